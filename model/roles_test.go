package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMapPriority(t *testing.T) {
	rm := NewRoleMap("default-model", func(o *RoleMapOptions) {
		o.Bindings = map[string]string{"grader": "judge-model"}
		o.Defaults = map[string]string{"grader": "cheap-model", "critic": "cheap-model"}
	})

	assert.Equal(t, "judge-model", rm.Get("grader"))
	assert.Equal(t, "cheap-model", rm.Get("critic"))
	assert.Equal(t, "default-model", rm.Get("unknown"))
}

func TestRoleMapResolve(t *testing.T) {
	clients := map[string]*Client{
		"judge-model":   NewClient(NewMockModel("judge-model")),
		"default-model": NewClient(NewMockModel("default-model")),
	}
	rm := NewRoleMap("default-model", func(o *RoleMapOptions) {
		o.Bindings = map[string]string{"grader": "judge-model"}
	})

	resolved, err := rm.Resolve([]string{"grader", "helper"}, clients)
	require.NoError(t, err)
	assert.Equal(t, "judge-model", resolved["grader"].Name())
	assert.Equal(t, "default-model", resolved["helper"].Name())

	_, err = rm.Resolve([]string{"grader"}, map[string]*Client{})
	assert.Error(t, err)
}
