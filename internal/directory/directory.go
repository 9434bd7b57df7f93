package directory

import "context"

// Directory resolves member and committee references for display. A missing
// record is reported as a not-found error; callers degrade to placeholder
// names rather than failing.
type Directory interface {
	GetMember(ctx context.Context, id string) (*Member, error)
	GetCommittee(ctx context.Context, id string) (*Committee, error)
}
