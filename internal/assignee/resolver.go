package assignee

import (
	"context"
	"sort"

	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

const (
	// UnknownMemberName is the display placeholder for a member id the
	// directory no longer knows. Stale references are tolerated, not fatal.
	UnknownMemberName = "Unknown Member"

	// UnknownCommitteeName is the display placeholder for a committee id
	// the directory no longer knows.
	UnknownCommitteeName = "Unknown Committee"
)

// Resolution is the effective recipient set of a task: direct members plus
// every member of every referenced committee, deduplicated. DisplayNames
// carries names for both member and committee ids so the read model never
// depends on the denormalized snapshots stored on the task.
type Resolution struct {
	RecipientIDs []string
	DisplayNames map[string]string
}

// Resolve expands direct member and committee references against the
// directory. Unresolved ids degrade to placeholder names; only transport
// failures propagate.
func Resolve(ctx context.Context, dir directory.Directory, memberIDs, committeeIDs []string) (*Resolution, error) {
	res := &Resolution{
		DisplayNames: make(map[string]string),
	}
	seen := make(map[string]bool)

	addMember := func(id string) error {
		if !seen[id] {
			seen[id] = true
			res.RecipientIDs = append(res.RecipientIDs, id)
		}
		if _, ok := res.DisplayNames[id]; ok {
			return nil
		}
		m, err := dir.GetMember(ctx, id)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				res.DisplayNames[id] = UnknownMemberName
				return nil
			}
			return err
		}
		res.DisplayNames[id] = m.Name
		return nil
	}

	for _, id := range memberIDs {
		if err := addMember(id); err != nil {
			return nil, err
		}
	}
	for _, id := range committeeIDs {
		c, err := dir.GetCommittee(ctx, id)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				res.DisplayNames[id] = UnknownCommitteeName
				continue
			}
			return nil, err
		}
		res.DisplayNames[id] = c.Name
		for _, mid := range c.MemberIDs {
			if err := addMember(mid); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(res.RecipientIDs)
	return res, nil
}
