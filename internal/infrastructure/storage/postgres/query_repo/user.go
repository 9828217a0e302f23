package query_repo

import (
	"easyadmin/internal/core/entity"
	"easyadmin/internal/domain/users"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// UserRepo stores users in sys_user.
type UserRepo struct {
	*BaseRepo[users.User]
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		BaseRepo: NewBaseRepo[users.User](txm, "sys_user", entity.ImmutableColumns...),
	}
}

var _ users.Repository = (*UserRepo)(nil)
