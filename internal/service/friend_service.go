package service

import (
	"context"

	"feeds/internal/cache"
	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/notifications"
	"feeds/internal/observability"
	"feeds/internal/repository"

	"github.com/redis/go-redis/v9"
)

// FriendService runs the friend-request state machine.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
	rdb        *redis.Client
}

// NewFriendService returns a new FriendService. events and rdb may be nil.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher, rdb *redis.Client) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     events,
		rdb:        rdb,
	}
}

// SendRequest records a pending request from sender to receiver. A pending
// request in the other direction does not block it.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID uint) (_ *models.Friendship, err error) {
	ctx, span := observability.StartSpan(ctx, "FriendService.SendRequest", observability.UserAttr(senderID))
	defer func() { observability.EndSpan(span, err) }()

	if senderID == receiverID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	rows, err := s.friendRepo.GetBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	for _, f := range rows {
		if f.Status == models.FriendshipStatusAccepted {
			return nil, models.ErrAlreadyFriends
		}
		if f.RequesterID == senderID {
			return nil, models.ErrDuplicateRequest
		}
	}

	friendship, err := s.friendRepo.CreateRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, "send", senderID, receiverID)
	publish(ctx, s.events, receiverID, notifications.EventFriendRequestReceived, map[string]any{
		"from_user": sender.Summary(),
	})
	return friendship, nil
}

// AcceptRequest makes receiver and sender friends.
func (s *FriendService) AcceptRequest(ctx context.Context, receiverID, senderID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "FriendService.AcceptRequest", observability.UserAttr(receiverID))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.friendRepo.Accept(ctx, senderID, receiverID); err != nil {
		return err
	}
	cache.InvalidateUsers(ctx, s.rdb, senderID, receiverID)
	s.transition(ctx, "accept", receiverID, senderID)
	publish(ctx, s.events, senderID, notifications.EventFriendRequestAccepted, map[string]uint{"user_id": receiverID})
	return nil
}

// RejectRequest drops the pending request sender made to receiver.
func (s *FriendService) RejectRequest(ctx context.Context, receiverID, senderID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "FriendService.RejectRequest", observability.UserAttr(receiverID))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.deletePending(ctx, senderID, receiverID); err != nil {
		return err
	}
	s.transition(ctx, "reject", receiverID, senderID)
	publish(ctx, s.events, senderID, notifications.EventFriendRequestRejected, map[string]uint{"user_id": receiverID})
	return nil
}

// CancelRequest withdraws the pending request sender made to receiver.
func (s *FriendService) CancelRequest(ctx context.Context, senderID, receiverID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "FriendService.CancelRequest", observability.UserAttr(senderID))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.deletePending(ctx, senderID, receiverID); err != nil {
		return err
	}
	s.transition(ctx, "cancel", senderID, receiverID)
	return nil
}

func (s *FriendService) deletePending(ctx context.Context, senderID, receiverID uint) error {
	found, err := s.friendRepo.DeletePending(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrRequestNotFound
	}
	return nil
}

// Unfriend removes the friendship between the users. It is a no-op when
// they are not friends.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "FriendService.Unfriend", observability.UserAttr(userID))
	defer func() { observability.EndSpan(span, err) }()

	removed, err := s.friendRepo.RemoveFriendship(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	cache.InvalidateUsers(ctx, s.rdb, userID, otherID)
	s.transition(ctx, "unfriend", userID, otherID)
	publish(ctx, s.events, otherID, notifications.EventFriendRemoved, map[string]uint{"user_id": userID})
	return nil
}

// AreFriends reports whether the users are friends.
func (s *FriendService) AreFriends(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.friendRepo.AreFriends(ctx, userID, otherID)
}

// ListFriends returns userID's friends in the order they were made. A limit
// of 0 returns all of them.
func (s *FriendService) ListFriends(ctx context.Context, userID uint, limit int) ([]*models.UserSummary, error) {
	if limit < 0 {
		return nil, models.NewValidationError("Limit must not be negative")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.friendRepo.GetFriends(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// ListPendingRequests returns users awaiting userID's decision.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID uint) ([]*models.UserSummary, error) {
	users, err := s.friendRepo.GetPendingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// ListSentRequests returns users userID has asked and not heard back from.
func (s *FriendService) ListSentRequests(ctx context.Context, userID uint) ([]*models.UserSummary, error) {
	users, err := s.friendRepo.GetSentRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// SuggestFriends returns users who are neither userID nor already friends.
func (s *FriendService) SuggestFriends(ctx context.Context, userID uint, limit int) ([]*models.UserSummary, error) {
	limit = clampLimit(limit, SuggestionLimit, MaxSuggestionLimit)
	friendIDs, err := s.friendRepo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListExcluding(ctx, append(friendIDs, userID), limit)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// Status describes the relationship from viewer to other.
func (s *FriendService) Status(ctx context.Context, viewerID, otherID uint) (models.FriendState, error) {
	if viewerID == otherID {
		return models.FriendStateSelf, nil
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return "", err
	}
	rows, err := s.friendRepo.GetBetween(ctx, viewerID, otherID)
	if err != nil {
		return "", err
	}

	state := models.FriendStateNone
	for _, f := range rows {
		switch {
		case f.Status == models.FriendshipStatusAccepted:
			return models.FriendStateFriends, nil
		case f.RequesterID == viewerID:
			state = models.FriendStatePendingSent
		case state == models.FriendStateNone:
			state = models.FriendStatePendingReceived
		}
	}
	return state, nil
}

func (s *FriendService) transition(ctx context.Context, kind string, actorID, otherID uint) {
	observability.FriendTransitions.WithLabelValues(kind).Inc()
	middleware.Logger.InfoContext(middleware.WithUserID(ctx, actorID), "friend graph transition",
		"transition", kind, "other_user_id", otherID)
}

func summaries(users []models.User) []*models.UserSummary {
	out := make([]*models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
