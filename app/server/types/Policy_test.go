package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	owner := &Identity{ID: 1, Role: RoleNormal}
	stranger := &Identity{ID: 2, Role: RoleNormal}
	admin := &Identity{ID: 3, Role: RoleAdmin}
	team := Resource{OwnerID: 1}

	tests := []struct {
		name   string
		actor  *Identity
		action Action
		want   bool
	}{
		{"owner updates", owner, ActionUpdateTeam, true},
		{"owner deletes", owner, ActionDeleteTeam, true},
		{"stranger updates", stranger, ActionUpdateTeam, false},
		{"stranger deletes", stranger, ActionDeleteTeam, false},
		{"admin deletes", admin, ActionDeleteTeam, true},
		{"nil actor", nil, ActionUpdateTeam, false},
		{"owner cannot search users", owner, ActionSearchUsers, false},
		{"admin searches users", admin, ActionSearchUsers, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.actor, tt.action, team))
		})
	}
}

func TestTagSet(t *testing.T) {
	s := NewTagSet(" java", "go", "", "java", "python")
	assert.Equal(t, TagSet{"java", "go", "python"}, s)
	assert.True(t, s.ContainsAll(NewTagSet("python", "java")))
	assert.False(t, s.ContainsAll(NewTagSet("java", "rust")))
	assert.True(t, s.ContainsAll(nil))
}

func TestParseTeamStatus(t *testing.T) {
	s, ok := ParseTeamStatus(2)
	assert.True(t, ok)
	assert.Equal(t, TeamStatusSecret, s)

	_, ok = ParseTeamStatus(3)
	assert.False(t, ok)
	_, ok = ParseTeamStatus(-1)
	assert.False(t, ok)
}
