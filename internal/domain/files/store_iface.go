package files

import "context"

type StoreAPI interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	ProfileImage(ctx context.Context, userID string) (string, error)
	SetProfileImage(ctx context.Context, userID, path string) error
	Create(ctx context.Context, f File) error
	Get(ctx context.Context, id string) (File, error)
	ListByUser(ctx context.Context, userID string) ([]File, error)
	Delete(ctx context.Context, id string) error
}
