package domain

// Role is a guild role as seen through the chat gateway.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoleSet is an ordered role-ID list with set semantics on insert.
type RoleSet struct {
	ids  []string
	seen map[string]struct{}
}

// NewRoleSet builds a set from ids, dropping duplicates and keeping first-seen order.
func NewRoleSet(ids ...string) *RoleSet {
	s := &RoleSet{seen: make(map[string]struct{}, len(ids))}
	s.Add(ids...)
	return s
}

func (s *RoleSet) Add(ids ...string) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func (s *RoleSet) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// IDs returns the members in insertion order. The slice is never nil.
func (s *RoleSet) IDs() []string {
	return append([]string{}, s.ids...)
}
