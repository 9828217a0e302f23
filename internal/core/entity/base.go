// Package entity holds the column sets shared by persisted entities.
package entity

import (
	"context"
	"time"

	appctx "easyadmin/internal/core/context"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// Owned is embedded by entities whose rows belong to a user and a department.
// Embedding it opts the entity into data permissions: it satisfies
// security.PermissionAware and security.CreatorTracked.
type Owned struct {
	CreatedUserID   int64     `db:"created_user_id" json:"createdUserId"`
	CreatedUserName string    `db:"created_user_name" json:"createdUserName"`
	CreatedTime     time.Time `db:"created_time" json:"createdTime"`
	UpdatedTime     time.Time `db:"updated_time" json:"updatedTime"`
	OrgID           int64     `db:"org_id" json:"orgId"`
}

// DataPermission marks the entity as subject to row-level visibility.
func (Owned) DataPermission() {}

// CreatorID returns the id of the user that created the row.
func (o Owned) CreatorID() int64 {
	return o.CreatedUserID
}

// StampCreated fills the creator columns from the request user. The org is
// only taken from the user when the caller did not set one.
func (o *Owned) StampCreated(ctx context.Context) {
	now := time.Now().UTC()
	o.CreatedTime = now
	o.UpdatedTime = now

	if user := appctx.GetUser(ctx); user != nil {
		o.CreatedUserID = user.UserID
		o.CreatedUserName = user.UserName
		if o.OrgID == 0 {
			o.OrgID = user.OrgID
		}
	}
}

// Touch sets the update time.
func (o *Owned) Touch() {
	o.UpdatedTime = time.Now().UTC()
}

// ImmutableColumns are never written by an update.
var ImmutableColumns = []string{"id", "created_user_id", "created_user_name", "created_time"}
