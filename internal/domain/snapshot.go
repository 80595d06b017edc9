package domain

// RoleSnapshots is the persisted document: partition -> user ID -> saved role IDs.
// A partition holds the roles to restore when a member re-enters that project.
type RoleSnapshots map[string]map[string][]string

// NewRoleSnapshots returns a document with an empty map for every partition.
func NewRoleSnapshots(partitions ...string) RoleSnapshots {
	s := make(RoleSnapshots, len(partitions))
	for _, p := range partitions {
		s[p] = map[string][]string{}
	}
	return s
}

// Ensure adds any missing partitions in place.
func (s RoleSnapshots) Ensure(partitions ...string) {
	for _, p := range partitions {
		if s[p] == nil {
			s[p] = map[string][]string{}
		}
	}
}
