package assignee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsuite/taskengine/internal/assignee"
	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

type fakeDirectory struct {
	members    map[string]*directory.Member
	committees map[string]*directory.Committee
	err        error
}

func (d *fakeDirectory) GetMember(ctx context.Context, id string) (*directory.Member, error) {
	if d.err != nil {
		return nil, d.err
	}
	if m, ok := d.members[id]; ok {
		return m, nil
	}
	return nil, cerr.NewError(cerr.NotFound, "member not found", nil)
}

func (d *fakeDirectory) GetCommittee(ctx context.Context, id string) (*directory.Committee, error) {
	if d.err != nil {
		return nil, d.err
	}
	if c, ok := d.committees[id]; ok {
		return c, nil
	}
	return nil, cerr.NewError(cerr.NotFound, "committee not found", nil)
}

func newDir() *fakeDirectory {
	return &fakeDirectory{
		members: map[string]*directory.Member{
			"m1": {ID: "m1", Name: "Ada Lovelace"},
			"m2": {ID: "m2", Name: "Grace Hopper"},
			"m3": {ID: "m3", Name: "Edsger Dijkstra"},
		},
		committees: map[string]*directory.Committee{
			"c1": {ID: "c1", Name: "Events Committee", HeadID: "m2", MemberIDs: []string{"m2", "m3"}},
			"c2": {ID: "c2", Name: "Finance Committee", HeadID: "m1", MemberIDs: []string{"m1"}},
		},
	}
}

func TestResolveDirectMembers(t *testing.T) {
	res, err := assignee.Resolve(context.Background(), newDir(), []string{"m2", "m1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, res.RecipientIDs)
	assert.Equal(t, "Ada Lovelace", res.DisplayNames["m1"])
	assert.Equal(t, "Grace Hopper", res.DisplayNames["m2"])
}

func TestResolveCommitteeExpansion(t *testing.T) {
	res, err := assignee.Resolve(context.Background(), newDir(), nil, []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, res.RecipientIDs)
	assert.Equal(t, "Events Committee", res.DisplayNames["c1"])
	assert.Equal(t, "Edsger Dijkstra", res.DisplayNames["m3"])
}

func TestResolveDeduplicatesOverlap(t *testing.T) {
	// m2 is both a direct assignee and a committee member; the recipient
	// set carries it once.
	res, err := assignee.Resolve(context.Background(), newDir(), []string{"m2"}, []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, res.RecipientIDs)
}

func TestResolveMultipleCommittees(t *testing.T) {
	res, err := assignee.Resolve(context.Background(), newDir(), nil, []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, res.RecipientIDs)
	assert.Equal(t, "Finance Committee", res.DisplayNames["c2"])
}

func TestResolveUnknownMemberPlaceholder(t *testing.T) {
	res, err := assignee.Resolve(context.Background(), newDir(), []string{"ghost"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, res.RecipientIDs)
	assert.Equal(t, assignee.UnknownMemberName, res.DisplayNames["ghost"])
}

func TestResolveUnknownCommitteePlaceholder(t *testing.T) {
	// An unknown committee contributes no recipients but still gets a
	// display placeholder.
	res, err := assignee.Resolve(context.Background(), newDir(), []string{"m1"}, []string{"gone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, res.RecipientIDs)
	assert.Equal(t, assignee.UnknownCommitteeName, res.DisplayNames["gone"])
}

func TestResolveEmptyInput(t *testing.T) {
	res, err := assignee.Resolve(context.Background(), newDir(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.RecipientIDs)
}

func TestResolvePropagatesTransportErrors(t *testing.T) {
	dir := newDir()
	dir.err = cerr.NewError(cerr.Unavailable, "storage unavailable", nil)

	_, err := assignee.Resolve(context.Background(), dir, []string{"m1"}, nil)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unavailable))
}
