package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Listener", expected: "listener"},
		{name: "two words", input: "Super Admin", expected: "super-admin"},
		{name: "already slug", input: "super-admin", expected: "super-admin"},
		{name: "punctuation runs", input: "Ads -- Manager!", expected: "ads-manager"},
		{name: "leading and trailing noise", input: "  Publisher  ", expected: "publisher"},
		{name: "digits kept", input: "Tier 2 Support", expected: "tier-2-support"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}
}

func TestRoleBeforeSaveRecomputesSlug(t *testing.T) {
	r := Role{Name: "Super Admin", Slug: "stale-value"}

	err := r.BeforeSave(nil)

	assert.NoError(t, err)
	assert.Equal(t, "super-admin", r.Slug)
}

func TestRoleActions(t *testing.T) {
	r := Role{
		Permissions: []Permission{
			{Action: "sermon:read"},
			{Action: "sermon:delete"},
		},
	}

	assert.Equal(t, []string{"sermon:read", "sermon:delete"}, r.Actions())
	assert.True(t, r.HasAction("sermon:read"))
	assert.False(t, r.HasAction("ads:create"))
}
