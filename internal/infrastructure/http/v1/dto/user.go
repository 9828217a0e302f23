package dto

import (
	"easyadmin/internal/core/entity"
	"easyadmin/internal/domain/users"
)

// SaveUserRequest is the body of user create and update.
type SaveUserRequest struct {
	UserName string       `json:"userName" binding:"required"`
	NickName string       `json:"nickName"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Status   users.Status `json:"status"`

	// OrgID places a new user in a department; ignored by update.
	OrgID int64 `json:"orgId"`
}

// ToEntity converts DTO to domain entity.
func (r *SaveUserRequest) ToEntity(id int64) users.User {
	return users.User{
		ID:       id,
		UserName: r.UserName,
		NickName: r.NickName,
		Email:    r.Email,
		Phone:    r.Phone,
		Status:   r.Status,
		Owned:    entity.Owned{OrgID: r.OrgID},
	}
}
