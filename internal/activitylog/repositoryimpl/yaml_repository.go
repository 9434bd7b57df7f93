package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/orgsuite/taskengine/internal/activitylog"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

const activityPrefix = "activity"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(organizationID, id string) string {
	return fmt.Sprintf("%s/%s/%s.yaml", activityPrefix, organizationID, id)
}

func (r *YAMLRepository) Append(ctx context.Context, e *activitylog.Entry) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal activity entry: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.OrganizationID, e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("activity entry", err)
	}
	return nil
}

func (r *YAMLRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*activitylog.Entry, int, error) {
	keys, err := r.storage.List(ctx, fmt.Sprintf("%s/%s", activityPrefix, organizationID))
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("activity entries", err)
	}

	// ULID filenames sort by creation time; newest first for a feed.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var all []*activitylog.Entry
	for _, k := range keys {
		data, err := r.storage.Read(ctx, k)
		if err != nil {
			continue
		}
		var e activitylog.Entry
		if err := yaml.Unmarshal(data, &e); err != nil {
			continue
		}
		all = append(all, &e)
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}
