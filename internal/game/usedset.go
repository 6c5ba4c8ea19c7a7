package game

import (
	"sync"
)

// usedSet tracks which photo ids have been played this session. It only
// grows until the session is reset; ids keeps insertion order for snapshots.
type usedSet struct {
	sync.RWMutex
	set map[string]bool
	ids []string
}

func newUsedSet() *usedSet {
	return &usedSet{set: make(map[string]bool)}
}

func (s *usedSet) Insert(id string) {
	s.Lock()
	defer s.Unlock()
	if s.set[id] {
		return
	}
	s.set[id] = true
	s.ids = append(s.ids, id)
}

func (s *usedSet) Check(id string) bool {
	s.RLock()
	defer s.RUnlock()
	return s.set[id]
}

func (s *usedSet) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.ids)
}

// IDs returns the used ids in the order they were played.
func (s *usedSet) IDs() []string {
	s.RLock()
	defer s.RUnlock()
	return append([]string(nil), s.ids...)
}
