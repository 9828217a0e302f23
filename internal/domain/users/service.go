package users

import (
	"context"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/core/security"
	"easyadmin/internal/core/tx"
	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
)

// Repository is the storage of users.
type Repository interface {
	query.Source[User]

	Insert(ctx context.Context, u User) (int64, error)
	Update(ctx context.Context, id int64, u User) error
	Delete(ctx context.Context, id int64) error
}

// Service is the user list screen: every operation is permission-scoped to
// the caller and audited.
type Service struct {
	repo  Repository
	list  *query.Service[User]
	txm   tx.Manager
	audit *audit.Interceptor
}

// NewService creates a user Service.
func NewService(repo Repository, list *query.Service[User], txm tx.Manager, interceptor *audit.Interceptor) *Service {
	return &Service{repo: repo, list: list, txm: txm, audit: interceptor}
}

// GetUserList returns the page of users visible to ident.
func (s *Service) GetUserList(ctx context.Context, ident *security.Identity, opts query.Options) (query.Page[User], error) {
	op := audit.Op{Method: "GetUserList", Args: []any{opts}, Description: "{0} users"}
	return audit.Call(ctx, s.audit, op, func(ctx context.Context) (query.Page[User], error) {
		return s.list.Query(ctx, ident, opts)
	})
}

// GetUser returns one user, or NotFound when it does not exist or is not
// visible to ident.
func (s *Service) GetUser(ctx context.Context, ident *security.Identity, id int64) (User, error) {
	op := audit.Op{Method: "GetUser", Args: []any{id}}
	return audit.Call(ctx, s.audit, op, func(ctx context.Context) (User, error) {
		return s.visible(ctx, ident, id)
	})
}

// SaveUser adds or updates u depending on kind.
func (s *Service) SaveUser(ctx context.Context, ident *security.Identity, u User, kind audit.ChangeKind) (User, error) {
	op := audit.Op{Method: "SaveUser", Args: []any{u, kind}, Description: "{0} user"}
	return audit.Call(ctx, s.audit, op, func(ctx context.Context) (User, error) {
		if err := u.Validate(ctx); err != nil {
			return User{}, err
		}

		err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			switch kind {
			case audit.ChangeAdd:
				u.StampCreated(ctx)
				id, err := s.repo.Insert(ctx, u)
				if err != nil {
					return err
				}
				u.ID = id
				return nil

			case audit.ChangeUpdate:
				current, err := s.visible(ctx, ident, u.ID)
				if err != nil {
					return err
				}
				u.Owned = current.Owned
				u.Touch()
				return s.repo.Update(ctx, u.ID, u)
			}
			return apperror.NewValidation("unknown change kind").WithDetail("kind", kind)
		})
		if err != nil {
			return User{}, err
		}
		return u, nil
	})
}

// DeleteUser removes a user visible to ident.
func (s *Service) DeleteUser(ctx context.Context, ident *security.Identity, id int64) error {
	op := audit.Op{Method: "DeleteUser", Args: []any{id}, Description: "{0} user"}
	return s.audit.Do(ctx, op, func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.visible(ctx, ident, id); err != nil {
				return err
			}
			return s.repo.Delete(ctx, id)
		})
	})
}

// ExportUsers passes every user visible to ident and matching opts to write,
// ignoring paging.
func (s *Service) ExportUsers(ctx context.Context, ident *security.Identity, opts query.Options, write func([]User) error) error {
	op := audit.Op{Method: "ExportUsers", Args: []any{opts}, Action: audit.Export, Description: "{0} users"}
	return s.audit.Do(ctx, op, func(ctx context.Context) error {
		page, err := s.list.All(ctx, ident, opts)
		if err != nil {
			return err
		}
		return write(page.Items)
	})
}

// visible loads id through the permission pipeline so hidden rows look
// exactly like missing ones.
func (s *Service) visible(ctx context.Context, ident *security.Identity, id int64) (User, error) {
	opts := query.Options{
		Request:   filter.Request{Filters: []filter.Condition{filter.Leaf("id", filter.Equal, id)}},
		PageIndex: 1,
		PageItems: 1,
		IsPage:    true,
	}
	page, err := s.list.Query(ctx, ident, opts)
	if err != nil {
		return User{}, err
	}
	if len(page.Items) == 0 {
		return User{}, apperror.NewNotFound("user", id)
	}
	return page.Items[0], nil
}
