package engine

import "fmt"

// FindKey returns the global index of an exact key match.
func (e *Engine) FindKey(key uint32) (uint32, error) {
	pos, found, err := e.searchIndex(key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("key %d: %w", key, ErrNotFound)
	}
	return pos, nil
}

// LocateKey returns the smallest global index whose key is >= key.
// It fails with ErrNotFound only when every key is strictly smaller.
func (e *Engine) LocateKey(key uint32) (uint32, error) {
	pos, found, err := e.searchIndex(key)
	if err != nil {
		return 0, err
	}
	if found {
		return pos, nil
	}
	if pos < e.indexCount {
		return pos, nil
	}
	return 0, fmt.Errorf("no key >= %d: %w", key, ErrNotFound)
}

// NextKey steps to the following global index. Tombstones are not skipped.
func (e *Engine) NextKey(currentIndex uint32) (uint32, error) {
	if currentIndex+1 < e.indexCount {
		return currentIndex + 1, nil
	}
	return 0, fmt.Errorf("no key after index %d: %w", currentIndex, ErrNotFound)
}

// PrevKey steps to the preceding global index. Tombstones are not skipped.
func (e *Engine) PrevKey(currentIndex uint32) (uint32, error) {
	if currentIndex == 0 || currentIndex-1 >= e.indexCount {
		return 0, fmt.Errorf("no key before index %d: %w", currentIndex, ErrNotFound)
	}
	return currentIndex - 1, nil
}
