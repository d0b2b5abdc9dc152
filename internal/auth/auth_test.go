package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNormalizesRoles(t *testing.T) {
	ctx := New("user-1", "user@example.com", []string{"Admin", " editor ", "", "ADMIN"})

	assert.True(t, ctx.Authenticated())
	assert.True(t, ctx.IsAdmin())
	assert.Len(t, ctx.Roles, 2)
	_, hasEditor := ctx.Roles["editor"]
	assert.True(t, hasEditor)
}

func TestIsAdminRequiresAdminRole(t *testing.T) {
	assert.False(t, New("user-1", "user@example.com", []string{"editor"}).IsAdmin())
	assert.False(t, New("user-1", "user@example.com", nil).IsAdmin())
	assert.False(t, Anonymous().IsAdmin())
}

func TestAnonymous(t *testing.T) {
	ctx := Anonymous()
	assert.False(t, ctx.Authenticated())

	assert.True(t, New("", "someone@example.com", nil).Authenticated())
	assert.True(t, New("user-1", "", nil).Authenticated())
}

func TestFlattenRoles(t *testing.T) {
	testCases := []struct {
		name  string
		input any
		want  []string
	}{
		{"single string", "admin", []string{"admin"}},
		{"comma separated", "admin,editor", []string{"admin", "editor"}},
		{"space separated", "admin editor", []string{"admin", "editor"}},
		{"mixed separators", "admin, editor\tviewer", []string{"admin", "editor", "viewer"}},
		{"string slice", []string{"admin", "editor"}, []string{"admin", "editor"}},
		{"any slice", []any{"admin", 42, "editor"}, []string{"admin", "editor"}},
		{"nil", nil, nil},
		{"number", 7, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FlattenRoles(tc.input)
			if tc.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
