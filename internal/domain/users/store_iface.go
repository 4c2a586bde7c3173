package users

import "context"

type StoreAPI interface {
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Get(ctx context.Context, id string) (User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	RoleExists(ctx context.Context, roleID string) (bool, error)
	CreateWithAccess(ctx context.Context, user User, passwordHash string) error
	Update(ctx context.Context, user User) error
	ChangeRole(ctx context.Context, userID, roleID string) error
	SetActive(ctx context.Context, userID string, active bool) error
}
