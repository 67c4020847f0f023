package rbac

import (
	"sort"
	"strings"

	"github.com/elmeel/warehouse/internal/store"
)

// Service answers permission questions from the static role table.
type Service struct {
	grants map[store.Role][]string
}

// NewService constructs a Service over the built-in role table.
func NewService() *Service {
	grants := make(map[store.Role][]string, len(defaultGrants))
	for role, perms := range defaultGrants {
		grants[role] = normalizePermissions(perms)
	}
	return &Service{grants: grants}
}

// EffectivePermissions returns the permissions granted to role.
func (s *Service) EffectivePermissions(role store.Role) []string {
	perms := s.grants[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Allowed reports whether role holds perm.
func (s *Service) Allowed(role store.Role, perm string) bool {
	return hasAnyPermission(s.grants[role], []string{strings.ToLower(perm)})
}

// Grants lists the role table sorted by role name.
func (s *Service) Grants() []RoleGrant {
	out := make([]RoleGrant, 0, len(s.grants))
	for role := range s.grants {
		out = append(out, RoleGrant{Role: role, Permissions: s.EffectivePermissions(role)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}
