// Package users provides the managed user list, the reference owned entity.
package users

import (
	"context"
	"net/mail"
	"strings"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/core/entity"
)

// Status of a user account.
type Status int

const (
	StatusActive   Status = 1
	StatusDisabled Status = 2
)

// User is a managed account row of sys_user.
type User struct {
	ID       int64  `db:"id" json:"id"`
	UserName string `db:"user_name" json:"userName"`
	NickName string `db:"nick_name" json:"nickName"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
	Status   Status `db:"status" json:"status"`

	entity.Owned
}

// ExcludedFields may not be filtered on from any search channel.
var ExcludedFields = []string{"password_hash"}

// Validate checks the user's own invariants.
func (u *User) Validate(ctx context.Context) error {
	u.UserName = strings.TrimSpace(u.UserName)
	if u.UserName == "" {
		return apperror.NewValidation("user name is required").
			WithDetail("field", "userName")
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return apperror.NewValidation("invalid email").
				WithDetail("field", "email")
		}
	}
	switch u.Status {
	case 0:
		u.Status = StatusActive
	case StatusActive, StatusDisabled:
	default:
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("status", u.Status)
	}
	return nil
}

var _ entity.Validatable = (*User)(nil)
