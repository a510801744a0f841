package db

// KNNQuery is the input for vector similarity search.
// Filter entries are conjunctive exact matches on tag fields.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Filter       map[string]string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Distance is the raw vector distance (KNN only).
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
