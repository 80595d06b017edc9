package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSet_DedupKeepsFirstOrder(t *testing.T) {
	s := NewRoleSet("b", "a", "b")
	s.Add("c", "a")
	assert.Equal(t, []string{"b", "a", "c"}, s.IDs())
	assert.True(t, s.Has("c"))
	assert.False(t, s.Has("d"))
}

func TestRoleSet_EmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, NewRoleSet().IDs())
}

func TestProjects_ByKeyAndOther(t *testing.T) {
	ps := Projects{
		A: Project{Key: "octonads", PrimaryRoleID: "A"},
		B: Project{Key: "octoverse", PrimaryRoleID: "B"},
	}
	p, ok := ps.ByKey("octoverse")
	assert.True(t, ok)
	assert.Equal(t, "B", p.PrimaryRoleID)
	assert.Equal(t, ps.A, ps.Other(p))
	assert.Equal(t, ps.B, ps.Other(ps.A))

	_, ok = ps.ByKey("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"octonads", "octoverse"}, ps.Keys())
}
