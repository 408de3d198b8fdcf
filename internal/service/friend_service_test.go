package service

import (
	"context"
	"errors"
	"testing"

	"feeds/internal/models"
	"feeds/internal/notifications"
	"feeds/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.FriendRepository = (*friendRepoStub)(nil)

type friendRepoStub struct {
	createRequestFn    func(context.Context, uint, uint) (*models.Friendship, error)
	getBetweenFn       func(context.Context, uint, uint) ([]models.Friendship, error)
	acceptFn           func(context.Context, uint, uint) error
	deletePendingFn    func(context.Context, uint, uint) (bool, error)
	removeFriendshipFn func(context.Context, uint, uint) (bool, error)
}

func (s *friendRepoStub) CreateRequest(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	return s.createRequestFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) GetBetween(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error) {
	return s.getBetweenFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) AreFriends(context.Context, uint, uint) (bool, error) { return false, nil }
func (s *friendRepoStub) Accept(ctx context.Context, requesterID, addresseeID uint) error {
	return s.acceptFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) DeletePending(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	return s.deletePendingFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) RemoveFriendship(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.removeFriendshipFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) GetFriends(context.Context, uint, int) ([]models.User, error) {
	return nil, nil
}
func (s *friendRepoStub) FriendIDs(context.Context, uint) ([]uint, error)   { return nil, nil }
func (s *friendRepoStub) CountFriends(context.Context, uint) (int64, error) { return 0, nil }
func (s *friendRepoStub) GetPendingRequests(context.Context, uint) ([]models.User, error) {
	return nil, nil
}
func (s *friendRepoStub) GetSentRequests(context.Context, uint) ([]models.User, error) {
	return nil, nil
}

type userRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.User, error)
}

func (s *userRepoStub) Create(context.Context, *models.User) error { return nil }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(context.Context, []uint) ([]models.User, error) { return nil, nil }
func (s *userRepoStub) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", "")
}
func (s *userRepoStub) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", "")
}
func (s *userRepoStub) GetBySessionToken(context.Context, string) (*models.User, error) {
	return nil, models.NewUnauthorizedError("Session not found")
}
func (s *userRepoStub) Update(context.Context, *models.User) error                 { return nil }
func (s *userRepoStub) SetSessionToken(context.Context, uint, *string) error       { return nil }
func (s *userRepoStub) ClearSessionToken(context.Context, string) error            { return nil }
func (s *userRepoStub) Search(context.Context, string, int) ([]models.User, error) { return nil, nil }
func (s *userRepoStub) ListExcluding(context.Context, []uint, int) ([]models.User, error) {
	return nil, nil
}

func existingUsers() *userRepoStub {
	return &userRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "user"}, nil
	}}
}

func TestFriendService_SendRequestGuards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		sender   uint
		receiver uint
		users    *userRepoStub
		between  []models.Friendship
		wantErr  error
		wantCode string
	}{
		{
			name:     "Self request",
			sender:   1,
			receiver: 1,
			users:    existingUsers(),
			wantCode: models.CodeValidation,
		},
		{
			name:     "Missing receiver",
			sender:   1,
			receiver: 2,
			users: &userRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
				if id == 2 {
					return nil, models.NewNotFoundError("User", id)
				}
				return &models.User{ID: id}, nil
			}},
			wantCode: models.CodeNotFound,
		},
		{
			name:     "Already friends",
			sender:   1,
			receiver: 2,
			users:    existingUsers(),
			between:  []models.Friendship{{RequesterID: 2, AddresseeID: 1, Status: models.FriendshipStatusAccepted}},
			wantErr:  models.ErrAlreadyFriends,
		},
		{
			name:     "Duplicate pending",
			sender:   1,
			receiver: 2,
			users:    existingUsers(),
			between:  []models.Friendship{{RequesterID: 1, AddresseeID: 2, Status: models.FriendshipStatusPending}},
			wantErr:  models.ErrDuplicateRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &friendRepoStub{
				getBetweenFn: func(context.Context, uint, uint) ([]models.Friendship, error) { return tt.between, nil },
				createRequestFn: func(context.Context, uint, uint) (*models.Friendship, error) {
					created = true
					return &models.Friendship{}, nil
				},
			}
			svc := NewFriendService(repo, tt.users, nil, nil)

			_, err := svc.SendRequest(ctx, tt.sender, tt.receiver)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
			}
			assert.False(t, created)
		})
	}
}

func TestFriendService_ReverseRequestDoesNotBlock(t *testing.T) {
	var gotRequester, gotAddressee uint
	repo := &friendRepoStub{
		getBetweenFn: func(context.Context, uint, uint) ([]models.Friendship, error) {
			return []models.Friendship{{RequesterID: 2, AddresseeID: 1, Status: models.FriendshipStatusPending}}, nil
		},
		createRequestFn: func(_ context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
			gotRequester, gotAddressee = requesterID, addresseeID
			return &models.Friendship{RequesterID: requesterID, AddresseeID: addresseeID}, nil
		},
	}
	svc := NewFriendService(repo, existingUsers(), nil, nil)

	_, err := svc.SendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), gotRequester)
	assert.Equal(t, uint(2), gotAddressee)
}

func TestFriendService_StoreErrorsPropagate(t *testing.T) {
	storeErr := models.NewInternalError(errors.New("connection reset"))
	repo := &friendRepoStub{
		acceptFn:           func(context.Context, uint, uint) error { return storeErr },
		deletePendingFn:    func(context.Context, uint, uint) (bool, error) { return false, storeErr },
		removeFriendshipFn: func(context.Context, uint, uint) (bool, error) { return false, storeErr },
	}
	svc := NewFriendService(repo, existingUsers(), nil, nil)
	ctx := context.Background()

	assert.Equal(t, models.CodeInternal, models.ErrorCode(svc.AcceptRequest(ctx, 2, 1)))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(svc.RejectRequest(ctx, 2, 1)))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(svc.CancelRequest(ctx, 1, 2)))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(svc.Unfriend(ctx, 1, 2)))
}

func TestFriendService_SendThenAccept(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	pending, err := svc.ListPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	state, err := svc.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatePendingSent, state)
	state, err = svc.Status(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatePendingReceived, state)

	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))

	aFriends, err := svc.ListFriends(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, aFriends, 1)
	assert.Equal(t, b.ID, aFriends[0].ID)

	bFriends, err := svc.ListFriends(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, bFriends, 1)
	assert.Equal(t, a.ID, bFriends[0].ID)

	pending, err = svc.ListPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	state, err = svc.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStateFriends, state)

	_, err = svc.SendRequest(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyFriends)

	assert.Equal(t, []string{notifications.EventFriendRequestReceived}, env.events.types(b.ID))
	assert.Equal(t, []string{notifications.EventFriendRequestAccepted}, env.events.types(a.ID))
}

func TestFriendService_CrossingRequestsResolveOnAccept(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))

	for _, u := range []uint{a.ID, b.ID} {
		pending, err := svc.ListPendingRequests(ctx, u)
		require.NoError(t, err)
		assert.Empty(t, pending)
		sent, err := svc.ListSentRequests(ctx, u)
		require.NoError(t, err)
		assert.Empty(t, sent)
	}
}

func TestFriendService_DuplicateLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, models.ErrDuplicateRequest)

	pending, err := svc.ListPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestFriendService_RejectThenAcceptFails(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RejectRequest(ctx, b.ID, a.ID))

	pending, err := svc.ListPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, svc.AcceptRequest(ctx, b.ID, a.ID), models.ErrRequestNotFound)
	assert.ErrorIs(t, svc.RejectRequest(ctx, b.ID, a.ID), models.ErrRequestNotFound)
	assert.Contains(t, env.events.types(a.ID), notifications.EventFriendRequestRejected)
}

func TestFriendService_CancelAndUnfriend(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, svc.CancelRequest(ctx, a.ID, b.ID))
	assert.ErrorIs(t, svc.CancelRequest(ctx, a.ID, b.ID), models.ErrRequestNotFound)

	// Unfriending strangers is silent.
	require.NoError(t, svc.Unfriend(ctx, a.ID, b.ID))
	assert.NotContains(t, env.events.types(b.ID), notifications.EventFriendRemoved)

	_, err = svc.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))
	require.NoError(t, svc.Unfriend(ctx, b.ID, a.ID))

	friends, err := svc.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, friends)
	assert.Contains(t, env.events.types(a.ID), notifications.EventFriendRemoved)

	// NONE again, so a fresh request is allowed.
	_, err = svc.SendRequest(ctx, b.ID, a.ID)
	assert.NoError(t, err)
}

func TestFriendService_ListsAndSuggestions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	c := env.user(t, "carol")
	d := env.user(t, "dave")

	for _, other := range []uint{b.ID, c.ID} {
		_, err := svc.SendRequest(ctx, a.ID, other)
		require.NoError(t, err)
		require.NoError(t, svc.AcceptRequest(ctx, other, a.ID))
	}

	limited, err := svc.ListFriends(ctx, a.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, b.ID, limited[0].ID)

	_, err = svc.ListFriends(ctx, a.ID, -1)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.ListFriends(ctx, 999, 0)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	suggestions, err := svc.SuggestFriends(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, d.ID, suggestions[0].ID)

	state, err := svc.Status(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStateSelf, state)

	state, err = svc.Status(ctx, a.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStateNone, state)
}
