package roles

import "context"

type StoreAPI interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id string) (Role, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, role Role) error
	Update(ctx context.Context, role Role) error
	CountUsers(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}
