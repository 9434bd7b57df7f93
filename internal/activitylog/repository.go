package activitylog

import "context"

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*Entry, int, error)
}
