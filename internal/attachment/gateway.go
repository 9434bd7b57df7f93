package attachment

import (
	"context"
	"fmt"
	"path"

	"github.com/oklog/ulid/v2"

	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

const attachmentsPrefix = "attachments"

// Gateway uploads blobs for task attachments and submission content,
// returning stable references. It carries no business logic; cleanup of
// orphaned blobs is the caller's concern.
type Gateway interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// StorageGateway implements Gateway directly on the storage layer. The
// returned reference is the storage key; it stays valid across local and
// S3 backends because both resolve keys the same way.
type StorageGateway struct {
	storage storage.Storage
}

func NewStorageGateway(s storage.Storage) *StorageGateway {
	return &StorageGateway{storage: s}
}

func (g *StorageGateway) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if filename == "" {
		return "", cerr.NewError(cerr.InvalidArgument, "filename is required", nil)
	}
	// ULID prefix keeps same-named uploads distinct and keys time-ordered.
	key := fmt.Sprintf("%s/%s-%s", attachmentsPrefix, ulid.Make().String(), path.Base(filename))
	if err := g.storage.Write(ctx, key, data); err != nil {
		return "", cerr.WrapStorageWriteError("attachment", err)
	}
	return key, nil
}
