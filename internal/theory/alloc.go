package theory

import "github.com/rljacobson/mod2-gc/internal/storage"

// NewStorageAllocator builds the StorageAllocator every GCVector<node_ref>
// in a heap is allocated from.
func NewStorageAllocator(tuning storage.Tuning) *StorageAllocator {
	return storage.NewAllocator[NodeRef](tuning)
}
