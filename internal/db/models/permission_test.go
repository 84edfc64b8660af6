package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAction(t *testing.T) {
	testCases := []struct {
		action string
		valid  bool
	}{
		{action: "sermon:read", valid: true},
		{action: "system:restart", valid: true},
		{action: "sermon", valid: false},
		{action: ":read", valid: false},
		{action: "sermon:", valid: false},
		{action: "a:b:c", valid: false},
		{action: "", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.action, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidAction(tc.action))
		})
	}
}

func TestPermissionBeforeSaveSplitsAction(t *testing.T) {
	p := Permission{Action: "ads:create"}

	err := p.BeforeSave(nil)

	assert.NoError(t, err)
	assert.Equal(t, "ads", p.Resource)
	assert.Equal(t, "create", p.Verb)
}
