package payroll

import "context"

type StoreAPI interface {
	ListItems(ctx context.Context, itemType ItemType) ([]PayItem, error)
	GetItem(ctx context.Context, id string) (PayItem, error)
	ItemNameTaken(ctx context.Context, itemType ItemType, name, excludeID string) (bool, error)
	CreateItem(ctx context.Context, item PayItem) error
	UpdateItem(ctx context.Context, item PayItem) error
	DeleteItem(ctx context.Context, id string) error

	UserExists(ctx context.Context, userID string) (bool, error)
	ListSetups(ctx context.Context) ([]SetupSummary, error)
	GetSetup(ctx context.Context, userID string) (Setup, error)
	UpsertSetup(ctx context.Context, setup Setup) (Setup, error)
}
