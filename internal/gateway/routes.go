// Package gateway implements the edge auth filter and reverse proxy. Every
// inbound request is authenticated locally against the shared signing
// secret and authorized against a static permission table before being
// forwarded to its upstream service.
package gateway

import (
	"net/http"
	"sort"
	"strings"
)

// PermissionTable maps "METHOD:pathPrefix" route keys to the permission an
// access token must carry to pass. Routes absent from the table are open to
// any validly authenticated caller.
type PermissionTable struct {
	rules []permissionRule
}

type permissionRule struct {
	method     string
	prefix     string
	permission string
}

// NewPermissionTable builds a table from route keys of the form
// "METHOD:/path/prefix". Longer prefixes win when several match.
func NewPermissionTable(routes map[string]string) *PermissionTable {
	t := &PermissionTable{rules: make([]permissionRule, 0, len(routes))}
	for key, perm := range routes {
		method, prefix, ok := strings.Cut(key, ":")
		if !ok || perm == "" {
			continue
		}
		t.rules = append(t.rules, permissionRule{
			method:     strings.ToUpper(strings.TrimSpace(method)),
			prefix:     prefix,
			permission: perm,
		})
	}

	// Longest prefix first so "/v1/api/user/create" shadows "/v1/api/user".
	sort.Slice(t.rules, func(i, j int) bool {
		return len(t.rules[i].prefix) > len(t.rules[j].prefix)
	})
	return t
}

// Required returns the permission guarding method+path, or ok=false when
// the route is unmapped.
func (t *PermissionTable) Required(method, path string) (string, bool) {
	for _, r := range t.rules {
		if r.method == method && strings.HasPrefix(path, r.prefix) {
			return r.permission, true
		}
	}
	return "", false
}

// DefaultPermissions guards the user, role and employee management routes.
// Everything else only needs a valid token.
func DefaultPermissions() *PermissionTable {
	return NewPermissionTable(map[string]string{
		http.MethodPost + ":/v1/api/user/create": "USER:CREATE",
		http.MethodGet + ":/v1/api/user/paged":   "USER:READ",
		http.MethodGet + ":/v1/api/user/detail":  "USER:READ",
		http.MethodPut + ":/v1/api/user/update":  "USER:UPDATE",
		http.MethodPut + ":/v1/api/user/status":  "USER:UPDATE",

		http.MethodGet + ":/v1/api/role/paged":   "ROLE:READ",
		http.MethodPost + ":/v1/api/role/create": "ROLE:CREATE",
		http.MethodPut + ":/v1/api/role/update":  "ROLE:UPDATE",
		http.MethodPut + ":/v1/api/role/status":  "ROLE:UPDATE",
		http.MethodDelete + ":/v1/api/role":      "ROLE:DELETE",

		http.MethodPost + ":/v1/api/rrhh/employee/create": "EMPLOYEE:CREATE",
		http.MethodGet + ":/v1/api/rrhh/employee/paged":   "EMPLOYEE:READ",
		http.MethodGet + ":/v1/api/rrhh/employee/detail":  "EMPLOYEE:READ",
		http.MethodGet + ":/v1/api/rrhh/employee/select":  "EMPLOYEE:READ",
		http.MethodPut + ":/v1/api/rrhh/employee/update":  "EMPLOYEE:UPDATE",
		http.MethodPut + ":/v1/api/rrhh/employee":         "EMPLOYEE:UPDATE",
		http.MethodDelete + ":/v1/api/rrhh/employee":      "EMPLOYEE:DELETE",
	})
}
