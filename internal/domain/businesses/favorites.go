package businesses

// OrderedSet keeps business ids in insertion order and rejects duplicates.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

func NewOrderedSet(ids ...string) *OrderedSet {
	s := &OrderedSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add reports whether the id was inserted.
func (s *OrderedSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

// Remove reports whether the id was present.
func (s *OrderedSet) Remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, item := range s.items {
		if item == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *OrderedSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the ids in insertion order.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Favorites maps a display name to that user's favorite business ids.
// Entries are created on first favorite and never deleted.
type Favorites map[string]*OrderedSet

func (f Favorites) entry(userName string) *OrderedSet {
	set, ok := f[userName]
	if !ok {
		set = NewOrderedSet()
		f[userName] = set
	}
	return set
}

// Snapshot copies the index into plain slices for serialization.
func (f Favorites) Snapshot() map[string][]string {
	out := make(map[string][]string, len(f))
	for user, set := range f {
		out[user] = set.Items()
	}
	return out
}
