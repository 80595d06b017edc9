package domain

// Project is one of the two mutually exclusive role-based segments of the server.
// Key names the project in component IDs and is the partition name of its snapshots.
type Project struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	PrimaryRoleID string `json:"primary_role_id"`
}

// Projects is the configured pair. Switching always moves a member from one to the other.
type Projects struct {
	A Project
	B Project
}

// ByKey returns the project whose key matches.
func (p Projects) ByKey(key string) (Project, bool) {
	switch key {
	case p.A.Key:
		return p.A, true
	case p.B.Key:
		return p.B, true
	}
	return Project{}, false
}

// Other returns the counterpart of the given project.
func (p Projects) Other(of Project) Project {
	if of.Key == p.A.Key {
		return p.B
	}
	return p.A
}

// Keys lists both partition names, A first.
func (p Projects) Keys() []string {
	return []string{p.A.Key, p.B.Key}
}
