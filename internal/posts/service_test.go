package posts

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

type fakePostStore struct {
	lastFeedOpts FeedOptions
	lastCreate   *CreatePostRequest
	views        map[uuid.UUID]*PostView
	createID     uuid.UUID
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{views: make(map[uuid.UUID]*PostView)}
}

func (f *fakePostStore) Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error) {
	f.lastFeedOpts = opts
	return &FeedPage{Posts: []*PostView{}, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (f *fakePostStore) GetView(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*PostView, error) {
	if v, ok := f.views[postID]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
}

func (f *fakePostStore) Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest, resolveURL func(key string) string) (uuid.UUID, error) {
	f.lastCreate = &req
	id := f.createID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var category *string
	if req.Category != "" {
		category = &req.Category
	}
	f.views[id] = &PostView{ID: id, AuthorID: authorID, Category: category, Status: req.Status, GroupID: req.GroupID}
	return id, nil
}

func (f *fakePostStore) Owner(ctx context.Context, postID uuid.UUID) (uuid.UUID, *uuid.UUID, error) {
	if v, ok := f.views[postID]; ok {
		return v.AuthorID, v.GroupID, nil
	}
	return uuid.Nil, nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
}

func (f *fakePostStore) MediaKeys(ctx context.Context, postID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (f *fakePostStore) Delete(ctx context.Context, postID uuid.UUID) error {
	delete(f.views, postID)
	return nil
}

func (f *fakePostStore) UpdateStatus(ctx context.Context, postID uuid.UUID, status string) error {
	f.views[postID].Status = status
	return nil
}

func (f *fakePostStore) Like(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakePostStore) Unlike(ctx context.Context, postID, userID uuid.UUID) error { return nil }

func (f *fakePostStore) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) { return 1, nil }

func (f *fakePostStore) AddComment(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	return &Comment{ID: uuid.New(), PostID: req.PostID, UserID: userID, Body: req.Body}, nil
}

func (f *fakePostStore) Comments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Comment, error) {
	return nil, nil
}

func (f *fakePostStore) CommentOwner(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("%w: comment not found", apperr.ErrNotFound)
}

func (f *fakePostStore) DeleteComment(ctx context.Context, commentID uuid.UUID) error { return nil }

type fakeObjectStore struct {
	missing map[string]bool
}

func (f *fakeObjectStore) HeadExists(ctx context.Context, key string) (bool, error) {
	return !f.missing[key], nil
}
func (f *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return "http://localhost/" + key, nil
}
func (f *fakeObjectStore) PresignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "http://localhost/presigned/" + key, nil
}
func (f *fakeObjectStore) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeObjectStore) URLForKey(key string) string                  { return "http://localhost/" + key }

type recordingBroadcaster struct {
	events []string
}

func (b *recordingBroadcaster) Publish(eventType string, payload interface{}, groupID *uuid.UUID) {
	b.events = append(b.events, eventType)
}

type fakeGate struct {
	allowed bool
}

func (g *fakeGate) IsMemberOrOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return g.allowed, nil
}

func newTestService(store *fakePostStore, objects *fakeObjectStore, gate *fakeGate) (*Service, *recordingBroadcaster) {
	b := &recordingBroadcaster{}
	return NewService(store, objects, b, gate, 0, 0), b
}

func TestCreateMapsCategorySlugToLabel(t *testing.T) {
	store := newFakePostStore()
	svc, _ := newTestService(store, &fakeObjectStore{}, &fakeGate{})
	title := "my render"

	post, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{
		Title:    &title,
		Status:   StatusPublished,
		Category: "2d-art",
	})
	require.NoError(t, err)
	require.NotNil(t, store.lastCreate)
	assert.Equal(t, "2D art", store.lastCreate.Category, "slug is stored as its display label")
	require.NotNil(t, post.Category)
	assert.Equal(t, "2D art", *post.Category)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	store := newFakePostStore()
	svc, _ := newTestService(store, &fakeObjectStore{}, &fakeGate{})

	_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{
		Status:   StatusPublished,
		Category: "watercolor",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusCode(err))
	assert.Nil(t, store.lastCreate, "nothing reaches the store")
}

func TestCreateRequestValidationAcceptsSlugs(t *testing.T) {
	body := "fresh work"
	for _, slug := range []string{"2d-art", "3d-model", "graphic-design", "animation", "game", "ux-ui"} {
		req := CreatePostRequest{Body: &body, Status: StatusPublished, Category: slug}
		assert.NoError(t, utils.ValidateStruct(&req), slug)
	}

	req := CreatePostRequest{Body: &body, Status: StatusPublished, Category: "2D art"}
	assert.Error(t, utils.ValidateStruct(&req), "display labels are not accepted on the wire")
}

func TestCreateListsMissingMediaKeys(t *testing.T) {
	store := newFakePostStore()
	objects := &fakeObjectStore{missing: map[string]bool{"users/a/uploads/2.png": true}}
	svc, _ := newTestService(store, objects, &fakeGate{})

	_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{
		Status: StatusPublished,
		Media: []MediaDescriptor{
			{MediaType: "image", StorageKey: "users/a/uploads/1.png"},
			{MediaType: "image", StorageKey: "users/a/uploads/2.png", OrderIndex: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusCode(err))
	assert.Contains(t, apperr.Message(err), "users/a/uploads/2.png")
	assert.Nil(t, store.lastCreate)
}

func TestCreateGroupPostRequiresMembership(t *testing.T) {
	store := newFakePostStore()
	svc, _ := newTestService(store, &fakeObjectStore{}, &fakeGate{allowed: false})
	groupID := uuid.New()
	body := "group only"

	_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{
		Body:    &body,
		Status:  StatusPublished,
		GroupID: &groupID,
	})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusCode(err))
}

func TestCreateBroadcastsPublishedOnly(t *testing.T) {
	body := "hello"

	t.Run("published post broadcasts", func(t *testing.T) {
		store := newFakePostStore()
		svc, b := newTestService(store, &fakeObjectStore{}, &fakeGate{})
		_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{Body: &body, Status: StatusPublished})
		require.NoError(t, err)
		assert.Equal(t, []string{"new_post"}, b.events)
	})

	t.Run("unpublished draft stays silent", func(t *testing.T) {
		store := newFakePostStore()
		svc, b := newTestService(store, &fakeObjectStore{}, &fakeGate{})
		_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{Body: &body, Status: StatusUnpublished})
		require.NoError(t, err)
		assert.Empty(t, b.events)
	})
}

func TestFeedAppliesConfiguredLimits(t *testing.T) {
	store := newFakePostStore()
	b := &recordingBroadcaster{}
	svc := NewService(store, &fakeObjectStore{}, b, &fakeGate{}, 7, 25)
	ctx := context.Background()

	_, err := svc.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, store.lastFeedOpts.Limit, "zero limit takes the configured default")

	_, err = svc.Feed(ctx, FeedOptions{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 25, store.lastFeedOpts.Limit, "oversized limit clamps to the configured max")
}

func TestFeedStripsUnpublishedForForeignViews(t *testing.T) {
	store := newFakePostStore()
	svc, _ := newTestService(store, &fakeObjectStore{}, &fakeGate{})
	ctx := context.Background()
	viewer := uuid.New()
	author := uuid.New()

	_, err := svc.Feed(ctx, FeedOptions{
		ViewerID: &viewer,
		AuthorID: &author,
		Statuses: []string{StatusPublished, StatusUnpublished},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{StatusPublished}, store.lastFeedOpts.Statuses)

	_, err = svc.Feed(ctx, FeedOptions{
		ViewerID: &author,
		AuthorID: &author,
		Statuses: []string{StatusUnpublished},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{StatusUnpublished}, store.lastFeedOpts.Statuses, "authors see their own drafts")
}
