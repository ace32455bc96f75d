package model

// ObjectInfo describes a stored object in the archive repository.
type ObjectInfo struct {
	Path      string
	SizeBytes int64
}
