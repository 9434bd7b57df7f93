package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

const (
	membersPrefix    = "directory/members"
	committeesPrefix = "directory/committees"
)

// YAMLRepository reads the membership data the portal's directory sync
// materializes into storage. It is read-only from the engine's side.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func memberPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", membersPrefix, id)
}

func committeePath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", committeesPrefix, id)
}

func (r *YAMLRepository) GetMember(ctx context.Context, id string) (*directory.Member, error) {
	data, err := r.storage.Read(ctx, memberPath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("member", err)
	}
	var m directory.Member
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal member: %w", err))
	}
	return &m, nil
}

func (r *YAMLRepository) GetCommittee(ctx context.Context, id string) (*directory.Committee, error) {
	data, err := r.storage.Read(ctx, committeePath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("committee", err)
	}
	var c directory.Committee
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal committee: %w", err))
	}
	return &c, nil
}
