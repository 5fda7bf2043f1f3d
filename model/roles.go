package model

import "fmt"

// RoleMap resolves named model roles (grader, critic, ...) to concrete model
// identifiers. Resolution happens once at task bind time and follows the
// priority: explicit binding > declared default for the role > global default
// model. Immutable after construction.
type RoleMap struct {
	bindings map[string]string
	defaults map[string]string
	fallback string
}

// RoleMapOptions configure NewRoleMap.
type RoleMapOptions struct {
	// Bindings are explicit role -> model id assignments, highest priority.
	Bindings map[string]string
	// Defaults are per-role declared defaults, used when no binding exists.
	Defaults map[string]string
}

// NewRoleMap creates a RoleMap with the given global default model.
func NewRoleMap(defaultModel string, optFns ...func(o *RoleMapOptions)) *RoleMap {
	opts := RoleMapOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	rm := &RoleMap{
		bindings: map[string]string{},
		defaults: map[string]string{},
		fallback: defaultModel,
	}
	for k, v := range opts.Bindings {
		rm.bindings[k] = v
	}
	for k, v := range opts.Defaults {
		rm.defaults[k] = v
	}
	return rm
}

// Get resolves a role to a model identifier. Unresolved roles with no
// declared default fall back to the global default model.
func (rm *RoleMap) Get(role string) string {
	if id, ok := rm.bindings[role]; ok {
		return id
	}
	if id, ok := rm.defaults[role]; ok {
		return id
	}
	return rm.fallback
}

// Resolve maps every role through a set of constructed clients keyed by model
// id. Unknown model ids are an error: roles bind at task construction, not
// lazily inside call stacks.
func (rm *RoleMap) Resolve(roles []string, clients map[string]*Client) (map[string]*Client, error) {
	out := make(map[string]*Client, len(roles))
	for _, role := range roles {
		id := rm.Get(role)
		client, ok := clients[id]
		if !ok {
			return nil, fmt.Errorf("role %q resolves to model %q but no client is registered for it", role, id)
		}
		out[role] = client
	}
	return out, nil
}
