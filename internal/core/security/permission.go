package security

import (
	"context"
	"fmt"

	"easyadmin/internal/domain/filter"
	"easyadmin/pkg/logger"
)

// Default column names for owned rows.
const (
	DefaultOwnerField = "created_user_id"
	DefaultOrgField   = "org_id"
)

// PermissionAware marks an entity type whose rows are subject to data permissions.
type PermissionAware interface {
	DataPermission()
}

// CreatorTracked marks an entity type that records its creating user.
type CreatorTracked interface {
	CreatorID() int64
}

// OrgResolver expands the caller's department for a role.
type OrgResolver interface {
	ResolveOrgIDs(ctx context.Context, ident *Identity, role Role, includeDescendants bool) ([]int64, error)
}

// Evaluator turns an Identity into a row visibility predicate.
type Evaluator struct {
	// Enabled is false for entity types without data permissions;
	// Evaluate then returns filter.True().
	Enabled bool

	OwnerField string
	OrgField   string

	Orgs OrgResolver
}

// NewEvaluatorFor builds an Evaluator for entity type T. It is enabled only when
// enable is set and T is both PermissionAware and CreatorTracked.
func NewEvaluatorFor[T any](enable bool, orgs OrgResolver) *Evaluator {
	var zero T
	_, aware := any(zero).(PermissionAware)
	_, tracked := any(zero).(CreatorTracked)

	return &Evaluator{
		Enabled:    enable && aware && tracked,
		OwnerField: DefaultOwnerField,
		OrgField:   DefaultOrgField,
		Orgs:       orgs,
	}
}

// Evaluate returns the predicate limiting rows visible to ident.
//
// Missing identity or roles yields filter.False(). Any AllData role yields
// filter.True() regardless of other roles. Otherwise each role grants a
// predicate and the grants are combined with Or; no grant means False.
// Only org resolution failures are returned as errors.
func (e *Evaluator) Evaluate(ctx context.Context, ident *Identity) (filter.Condition, error) {
	if e == nil || !e.Enabled {
		return filter.True(), nil
	}
	if ident.Anonymous() {
		return filter.False(), nil
	}
	if ident.HasScope(AllData) {
		return filter.True(), nil
	}

	var grants []filter.Condition
	for _, role := range ident.Roles {
		grant, ok, err := e.grantFor(ctx, ident, role)
		if err != nil {
			return filter.False(), err
		}
		if ok {
			grants = append(grants, grant)
		}
	}

	switch len(grants) {
	case 0:
		return filter.False(), nil
	case 1:
		return grants[0], nil
	}
	return filter.AnyOf(grants...), nil
}

func (e *Evaluator) grantFor(ctx context.Context, ident *Identity, role Role) (filter.Condition, bool, error) {
	switch role.DataScope {
	case SelfOnly:
		return filter.Leaf(e.ownerField(), filter.Equal, ident.UserID), true, nil

	case DeptOnly, DeptAndBelow:
		if e.Orgs == nil {
			return filter.Condition{}, false, nil
		}
		ids, err := e.Orgs.ResolveOrgIDs(ctx, ident, role, role.DataScope == DeptAndBelow)
		if err != nil {
			return filter.Condition{}, false, fmt.Errorf("resolve orgs for role %d: %w", role.ID, err)
		}
		if len(ids) == 0 {
			return filter.Condition{}, false, nil
		}
		return filter.Leaf(e.orgField(), filter.InList, ids), true, nil

	case Custom:
		ids, err := ParseOrgIDs(role.CustomOrgIDs)
		if err != nil {
			logger.Warn(ctx, "ignoring malformed custom data permission",
				"role_id", role.ID,
				"custom_org_ids", role.CustomOrgIDs,
				"error", err,
			)
			return filter.Condition{}, false, nil
		}
		if len(ids) == 0 {
			return filter.Condition{}, false, nil
		}
		return filter.Leaf(e.orgField(), filter.InList, ids), true, nil
	}

	return filter.Condition{}, false, nil
}

func (e *Evaluator) ownerField() string {
	if e.OwnerField == "" {
		return DefaultOwnerField
	}
	return e.OwnerField
}

func (e *Evaluator) orgField() string {
	if e.OrgField == "" {
		return DefaultOrgField
	}
	return e.OrgField
}
