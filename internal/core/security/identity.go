// Package security provides row-level data permission rules.
package security

import (
	"fmt"
	"strconv"
	"strings"
)

// DataScope defines which rows a role may see.
type DataScope int

// The zero value is not a scope and grants nothing.
const (
	// AllData sees every row. It wins over any co-held restrictive role.
	AllData DataScope = iota + 1
	// DeptAndBelow sees rows of the user's department and its descendants.
	DeptAndBelow
	// DeptOnly sees rows of the user's department.
	DeptOnly
	// SelfOnly sees rows the user created.
	SelfOnly
	// Custom sees rows of an explicit department list.
	Custom
)

var dataScopeNames = map[DataScope]string{
	AllData:      "all",
	DeptAndBelow: "dept_and_below",
	DeptOnly:     "dept",
	SelfOnly:     "self",
	Custom:       "custom",
}

func (s DataScope) String() string {
	if name, ok := dataScopeNames[s]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// ParseDataScope converts a stored name back to a DataScope.
func ParseDataScope(name string) (DataScope, error) {
	for scope, n := range dataScopeNames {
		if n == name {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown data scope %q", name)
}

// Role is the part of a role the permission evaluator needs.
type Role struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	DataScope DataScope `db:"data_scope" json:"dataScope"`

	// CustomOrgIDs is a comma separated department id list, used by Custom.
	CustomOrgIDs string `db:"custom_org_ids" json:"customOrgIds,omitempty"`
}

// Identity is the authenticated caller of one request.
// It is built by the authentication layer and only read here.
type Identity struct {
	UserID   int64
	UserName string

	// OrgID is the user's own department.
	OrgID int64

	Roles []Role
}

// Anonymous reports whether there is no usable user or role set.
func (i *Identity) Anonymous() bool {
	return i == nil || i.UserID == 0 || len(i.Roles) == 0
}

// HasScope reports whether any held role has the given scope.
func (i *Identity) HasScope(scope DataScope) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r.DataScope == scope {
			return true
		}
	}
	return false
}

// ParseOrgIDs parses a comma separated id list such as "1, 2,3".
// Blank entries are ignored; any non-numeric entry fails the whole list.
func ParseOrgIDs(list string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid org id %q: %w", part, err)
		}
		ids = append(ids, v)
	}
	return ids, nil
}
