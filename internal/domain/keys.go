package domain

// KeyPrefix namespaces all ragcore keys in the shared Redis keyspace.
const KeyPrefix = "ragcore:"
