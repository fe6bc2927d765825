package users

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
)

type fakeStore struct {
	users       map[string]*User // keyed by cognito_sub
	syncCalls   int
	deleted     []uuid.UUID
	stats       ProfileStats
	statsOwn    bool
	following   map[[2]uuid.UUID]bool
	updateErr   error
	lastProfile UpdateProfileRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*User),
		following: make(map[[2]uuid.UUID]bool),
	}
}

func (f *fakeStore) add(sub, username, email string) *User {
	u := &User{ID: uuid.New(), CognitoSub: sub, Username: username, Email: email}
	f.users[sub] = u
	return u
}

func (f *fakeStore) SyncUser(ctx context.Context, sub, username, email, displayName string) error {
	f.syncCalls++
	if _, ok := f.users[sub]; !ok {
		f.add(sub, username, email)
	}
	return nil
}

func (f *fakeStore) GetBySub(ctx context.Context, sub string) (*User, error) {
	if u, ok := f.users[sub]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
}

func (f *fakeStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
}

func (f *fakeStore) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastProfile = req
	for _, u := range f.users {
		if u.ID == userID {
			if req.Email != nil {
				u.Email = *req.Email
			}
			if req.Username != nil {
				u.Username = *req.Username
			}
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
}

func (f *fakeStore) Stats(ctx context.Context, userID uuid.UUID, includeUnpublished bool) (ProfileStats, error) {
	f.statsOwn = includeUnpublished
	return f.stats, nil
}

func (f *fakeStore) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return f.following[[2]uuid.UUID{followerID, followingID}], nil
}

func (f *fakeStore) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return fmt.Errorf("%w: you cannot follow yourself", apperr.ErrValidation)
	}
	f.following[[2]uuid.UUID{followerID, followingID}] = true
	return nil
}

func (f *fakeStore) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	delete(f.following, [2]uuid.UUID{followerID, followingID})
	return nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	f.deleted = append(f.deleted, userID)
	for sub, u := range f.users {
		if u.ID == userID {
			delete(f.users, sub)
		}
	}
	return nil
}

type fakePool struct {
	deleteErr    error
	deletedUsers []string
	emailCalls   []string
	emailErr     error
}

func (p *fakePool) UpdateEmail(ctx context.Context, username, email string) error {
	p.emailCalls = append(p.emailCalls, username+":"+email)
	return p.emailErr
}

func (p *fakePool) DeleteUser(ctx context.Context, username string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletedUsers = append(p.deletedUsers, username)
	return nil
}

type nopStorage struct{}

func (nopStorage) HeadExists(ctx context.Context, key string) (bool, error) { return true, nil }
func (nopStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return "http://localhost/" + key, nil
}
func (nopStorage) PresignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "http://localhost/presigned/" + key, nil
}
func (nopStorage) Delete(ctx context.Context, key string) error { return nil }
func (nopStorage) URLForKey(key string) string                  { return "http://localhost/" + key }

func TestSyncUserIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nopStorage{}, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SyncUser(ctx, "sub-1", "alice", "a@example.com", ""))
	}

	assert.Equal(t, 3, store.syncCalls)
	assert.Len(t, store.users, 1)

	id, err := svc.ResolveID(ctx, "sub-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
}

func TestDeleteAccountPoolFailureLeavesRows(t *testing.T) {
	store := newFakeStore()
	store.add("sub-1", "alice", "a@example.com")
	pool := &fakePool{deleteErr: fmt.Errorf("%w: too many attempts, try again later", apperr.ErrUpstream)}
	svc := NewService(store, nopStorage{}, pool, time.Minute)

	err := svc.DeleteAccount(context.Background(), "sub-1")
	require.Error(t, err)
	assert.Equal(t, 502, apperr.StatusCode(err))
	assert.Empty(t, store.deleted, "local rows must survive a pool failure")
	assert.Len(t, store.users, 1)
}

func TestDeleteAccountContinuesWhenPoolUserMissing(t *testing.T) {
	store := newFakeStore()
	user := store.add("sub-1", "alice", "a@example.com")
	pool := &fakePool{deleteErr: fmt.Errorf("%w: user not found", apperr.ErrNotFound)}
	svc := NewService(store, nopStorage{}, pool, time.Minute)

	require.NoError(t, svc.DeleteAccount(context.Background(), "sub-1"))
	assert.Equal(t, []uuid.UUID{user.ID}, store.deleted)
}

func TestDeleteAccountWithoutPool(t *testing.T) {
	store := newFakeStore()
	user := store.add("sub-1", "alice", "a@example.com")
	svc := NewService(store, nopStorage{}, nil, time.Minute)

	require.NoError(t, svc.DeleteAccount(context.Background(), "sub-1"))
	assert.Equal(t, []uuid.UUID{user.ID}, store.deleted)
}

func TestUpdateProfileEmailChangeGoesToPoolFirst(t *testing.T) {
	store := newFakeStore()
	store.add("sub-1", "alice", "old@example.com")
	pool := &fakePool{}
	svc := NewService(store, nopStorage{}, pool, time.Minute)

	newEmail := "new@example.com"
	updated, err := svc.UpdateProfile(context.Background(), "sub-1", UpdateProfileRequest{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, []string{"alice:new@example.com"}, pool.emailCalls)
}

func TestUpdateProfilePoolRejectionLeavesRow(t *testing.T) {
	store := newFakeStore()
	store.add("sub-1", "alice", "old@example.com")
	pool := &fakePool{emailErr: fmt.Errorf("%w: invalid email", apperr.ErrValidation)}
	svc := NewService(store, nopStorage{}, pool, time.Minute)

	newEmail := "broken"
	_, err := svc.UpdateProfile(context.Background(), "sub-1", UpdateProfileRequest{Email: &newEmail})
	require.Error(t, err)
	assert.Equal(t, "old@example.com", store.users["sub-1"].Email)
}

func TestProfileByUsernameVisibility(t *testing.T) {
	store := newFakeStore()
	alice := store.add("sub-a", "alice", "a@example.com")
	bob := store.add("sub-b", "bob", "b@example.com")
	store.following[[2]uuid.UUID{bob.ID, alice.ID}] = true
	svc := NewService(store, nopStorage{}, nil, time.Minute)
	ctx := context.Background()

	t.Run("anonymous viewer never sees email", func(t *testing.T) {
		profile, err := svc.ProfileByUsername(ctx, "alice", "")
		require.NoError(t, err)
		assert.Empty(t, profile.Email)
		assert.False(t, profile.IsSelf)
		assert.False(t, store.statsOwn, "public stats exclude unpublished posts")
	})

	t.Run("other viewer sees follow state, no email", func(t *testing.T) {
		profile, err := svc.ProfileByUsername(ctx, "alice", "sub-b")
		require.NoError(t, err)
		assert.Empty(t, profile.Email)
		assert.True(t, profile.IsFollowing)
		assert.False(t, store.statsOwn)
	})

	t.Run("own profile keeps email and counts unpublished", func(t *testing.T) {
		profile, err := svc.ProfileByUsername(ctx, "alice", "sub-a")
		require.NoError(t, err)
		assert.True(t, profile.IsSelf)
		assert.Equal(t, "a@example.com", profile.Email)
		assert.True(t, store.statsOwn, "own stats include unpublished posts")
	})
}

func TestFollowResolvesBothSides(t *testing.T) {
	store := newFakeStore()
	alice := store.add("sub-a", "alice", "a@example.com")
	bob := store.add("sub-b", "bob", "b@example.com")
	svc := NewService(store, nopStorage{}, nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "sub-b", "alice"))
	assert.True(t, store.following[[2]uuid.UUID{bob.ID, alice.ID}])

	require.NoError(t, svc.Unfollow(ctx, "sub-b", "alice"))
	assert.False(t, store.following[[2]uuid.UUID{bob.ID, alice.ID}])

	err := svc.Follow(ctx, "sub-a", "alice")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusCode(err))
}
