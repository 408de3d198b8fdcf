package server

import (
	"feeds/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friends.SendRequest(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// AcceptFriendRequest handles POST /api/friends/requests/:userId/accept.
// :userId is the sender of the pending request.
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	senderID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friends.AcceptRequest(c.UserContext(), currentUserID(c), senderID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"status": models.FriendStateFriends})
}

// RejectFriendRequest handles POST /api/friends/requests/:userId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	senderID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friends.RejectRequest(c.UserContext(), currentUserID(c), senderID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"status": models.FriendStateNone})
}

// CancelFriendRequest handles DELETE /api/friends/requests/:userId.
// :userId is the receiver of the caller's pending request.
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	receiverID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friends.CancelRequest(c.UserContext(), currentUserID(c), receiverID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"status": models.FriendStateNone})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	otherID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friends.Unfriend(c.UserContext(), currentUserID(c), otherID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"status": models.FriendStateNone})
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	users, err := s.friends.ListPendingRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(users)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	users, err := s.friends.ListSentRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(users)
}

// GetFriendSuggestions handles GET /api/friends/suggestions?limit=
func (s *Server) GetFriendSuggestions(c *fiber.Ctx) error {
	users, err := s.friends.SuggestFriends(c.UserContext(), currentUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(users)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	otherID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	state, err := s.friends.Status(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"status": state})
}
