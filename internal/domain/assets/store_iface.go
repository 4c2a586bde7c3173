package assets

import "context"

type StoreAPI interface {
	List(ctx context.Context, assignedTo string) ([]Asset, error)
	Get(ctx context.Context, id string) (Asset, error)
	Create(ctx context.Context, a Asset) error
	Update(ctx context.Context, a Asset) error
	Delete(ctx context.Context, id string) error
}
