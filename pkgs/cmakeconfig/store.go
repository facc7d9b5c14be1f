package cmakeconfig

import "strings"

// MergePolicy selects how Store.Merge resolves keys present on both sides.
type MergePolicy int

const (
	// KeepExisting ignores incoming items whose key already exists.
	KeepExisting MergePolicy = iota
	// Overwrite replaces existing items in place.
	Overwrite
	// JoinValues joins differing values with a single space.
	JoinValues
)

// Store is an insertion-ordered set of items, unique by key.
// The zero value is an empty store ready to use.
type Store struct {
	items []Item
	index map[string]int
}

// NewStore returns a store holding items, later duplicates replacing
// earlier ones.
func NewStore(items ...Item) *Store {
	s := &Store{}
	for _, it := range items {
		s.Put(it)
	}
	return s
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, it := range s.items {
		s.index[it.Key] = i
	}
}

// Put inserts it, replacing an existing item with the same key in place.
func (s *Store) Put(it Item) {
	if s.index == nil {
		s.reindex()
	}
	if i, ok := s.index[it.Key]; ok {
		s.items[i] = it
		return
	}
	s.index[it.Key] = len(s.items)
	s.items = append(s.items, it)
}

// Erase removes key and reports whether it was present.
func (s *Store) Erase(key string) bool {
	if s == nil {
		return false
	}
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.reindex()
	return true
}

// Find returns the item stored under key.
func (s *Store) Find(key string) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	if s.index == nil {
		s.reindex()
	}
	if i, ok := s.index[key]; ok {
		return s.items[i], true
	}
	return Item{}, false
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Find(key)
	return ok
}

// ValueOf returns the raw value of key, or "" when absent.
func (s *Store) ValueOf(key string) string {
	it, _ := s.Find(key)
	return it.Value
}

// StringValueOf returns the value of key as valid UTF-8.
func (s *Store) StringValueOf(key string) string {
	return strings.ToValidUTF8(s.ValueOf(key), "�")
}

// Items returns a copy of the items in insertion order.
func (s *Store) Items() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Keys returns the keys in insertion order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.items))
	for i, it := range s.items {
		keys[i] = it.Key
	}
	return keys
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Clone returns an independent copy of s.
func (s *Store) Clone() *Store {
	c := &Store{}
	if s == nil {
		return c
	}
	c.items = make([]Item, len(s.items))
	for i, it := range s.items {
		it.Values = append([]string(nil), it.Values...)
		c.items[i] = it
	}
	c.reindex()
	return c
}

// Filter returns the items for which keep reports true, in order.
func (s *Store) Filter(keep func(Item) bool) *Store {
	out := &Store{}
	for _, it := range s.Items() {
		if keep(it) {
			out.Put(it)
		}
	}
	return out
}

// Merge folds other into s according to policy. Keys new to s are
// appended in other's order.
func (s *Store) Merge(other *Store, policy MergePolicy) {
	for _, it := range other.Items() {
		prev, ok := s.Find(it.Key)
		if !ok {
			s.Put(it)
			continue
		}
		switch policy {
		case KeepExisting:
		case Overwrite:
			s.Put(it)
		case JoinValues:
			s.Put(join(prev, it))
		}
	}
}

// join merges a duplicate definition into prev. Unset directives and BOOL
// values cannot be concatenated, so the later item wins for those.
func join(prev, next Item) Item {
	if prev.IsUnset || next.IsUnset || prev.Type == Bool {
		return next
	}
	if prev.Value != next.Value {
		prev.Value += " " + next.Value
	}
	return prev
}
