package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleCreator, ParseRole("creator"))
	assert.Equal(t, RoleSupport, ParseRole("support"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""), "unknown input falls back to user")
	assert.Equal(t, RoleUser, ParseRole("ADMIN"), "matching is case sensitive")
}

func TestRoleCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role           Role
		deleteComments bool
		blockUsers     bool
		manageRoles    bool
	}{
		{role: RoleUser, deleteComments: false, blockUsers: false, manageRoles: false},
		{role: RoleCreator, deleteComments: true, blockUsers: true, manageRoles: false},
		{role: RoleSupport, deleteComments: true, blockUsers: false, manageRoles: false},
		{role: RoleAdmin, deleteComments: true, blockUsers: true, manageRoles: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.deleteComments, CanDeleteComments(tt.role))
			assert.Equal(t, tt.blockUsers, CanBlockUsers(tt.role))
			assert.Equal(t, tt.manageRoles, CanManageRoles(tt.role))
		})
	}
}
