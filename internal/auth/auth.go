package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	// RoleAnalyst may open sessions and ask questions.
	RoleAnalyst = "analyst"
	// RoleAuditor may read the query journal.
	RoleAuditor = "auditor"
)

type Identity struct {
	Team  string
	Roles []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator resolves keys from a fixed list configured as
// "key:team:role|role,key2:team2:role".
type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, team, roles, err := parseStaticEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, exists := validator.keys[key]; exists {
			return nil, fmt.Errorf("invalid static key entry %q: duplicate key", entry)
		}
		validator.keys[key] = Identity{Team: team, Roles: roles}
	}
	return validator, nil
}

func parseStaticEntry(entry string) (string, string, []string, error) {
	parts := strings.Split(entry, ":")
	if len(parts) != 3 {
		return "", "", nil, fmt.Errorf("invalid static key entry %q: expected key:team:role|role", entry)
	}
	key := strings.TrimSpace(parts[0])
	team := strings.TrimSpace(parts[1])
	if key == "" || team == "" {
		return "", "", nil, fmt.Errorf("invalid static key entry %q: empty key/team", entry)
	}
	roles := make([]string, 0, 2)
	for _, role := range strings.Split(parts[2], "|") {
		role = strings.TrimSpace(role)
		if role != "" && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", "", nil, fmt.Errorf("invalid static key entry %q: at least one role is required", entry)
	}
	slices.Sort(roles)
	return key, team, roles, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

// Authorize checks role against the identity in ctx. Requests without an
// identity are allowed; they only reach handlers when auth is disabled.
func Authorize(ctx context.Context, role string) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
