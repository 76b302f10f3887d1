package badgerfx

// Entity is a value stored under a single key with optional secondary indexes.
// Index keys hold the entity key as their value.
type Entity interface {
	StorageKey() string
	StorageIndexes() []string
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
