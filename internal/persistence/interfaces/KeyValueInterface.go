package interfaces

// KeyValueInterface is the small string store that survives restarts:
// last backup date, reminder state and the emergency snapshot.
type KeyValueInterface interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
