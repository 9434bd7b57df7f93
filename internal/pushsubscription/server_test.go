package pushsubscription_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsuite/taskengine/internal/pushsubscription"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

// fakeRepo is an in-memory Repository with an injectable failure.
type fakeRepo struct {
	subs    map[string]*pushsubscription.Subscription
	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: map[string]*pushsubscription.Subscription{}}
}

func (r *fakeRepo) Create(ctx context.Context, s *pushsubscription.Subscription) error {
	r.subs[s.ID] = s
	return nil
}

func (r *fakeRepo) ListByMember(ctx context.Context, memberID string) ([]*pushsubscription.Subscription, error) {
	var out []*pushsubscription.Subscription
	for _, s := range r.subs {
		if s.MemberID == memberID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.subs[id]; !ok {
		return cerr.NewError(cerr.NotFound, "subscription not found", nil)
	}
	delete(r.subs, id)
	return nil
}

func (r *fakeRepo) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, s := range r.subs {
		if s.Endpoint == endpoint {
			return s, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "subscription not found", nil)
}

func (r *fakeRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	s, err := r.FindByEndpoint(ctx, endpoint)
	if err != nil {
		return err
	}
	return r.Delete(ctx, s.ID)
}

func newTestRouter(repo pushsubscription.Repository) http.Handler {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	pushsubscription.NewServer(repo).Routes(r)
	return r
}

func subscribe(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/push/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const subscribeBody = `{"memberId":"m1","organizationId":"org1","endpoint":"https://push.example/ep1","p256dhKey":"k","authKey":"a"}`

func TestSubscribe(t *testing.T) {
	repo := newFakeRepo()
	rec := subscribe(t, newTestRouter(repo), subscribeBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.subs, 1)
}

func TestSubscribeReplacesExistingEndpoint(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rec := subscribe(t, router, subscribeBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = subscribe(t, router, subscribeBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.subs, 1)
}

func TestSubscribeSurfacesLookupFailure(t *testing.T) {
	// A transient storage failure during the replace lookup must not be
	// read as "no existing subscription"; registering then would leave a
	// duplicate for the endpoint.
	repo := newFakeRepo()
	repo.findErr = cerr.NewError(cerr.Unavailable, "storage unavailable", nil)

	rec := subscribe(t, newTestRouter(repo), subscribeBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, repo.subs)
}

func TestSubscribeValidation(t *testing.T) {
	repo := newFakeRepo()
	rec := subscribe(t, newTestRouter(repo), `{"memberId":"","endpoint":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnsubscribe(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rec := subscribe(t, router, subscribeBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/push/subscriptions", strings.NewReader(`{"endpoint":"https://push.example/ep1"}`))
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)
	assert.Equal(t, http.StatusOK, del.Code)
	assert.Empty(t, repo.subs)
}
