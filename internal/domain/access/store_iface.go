package access

import "context"

type StoreAPI interface {
	ListForms(ctx context.Context) ([]Form, error)
	GetForm(ctx context.Context, formID string) (Form, error)
	ListUserAccess(ctx context.Context, userID string) ([]FormAccess, error)
	ListFormUsers(ctx context.Context, formID string) ([]UserFormAccess, error)
	GetRecord(ctx context.Context, userID, formID string) (Record, error)
	FindRecordByFormName(ctx context.Context, userID, formName string) (Record, error)
	SaveRecord(ctx context.Context, userID string, rec Record) error
}
