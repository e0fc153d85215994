package server

import (
	"xweeter/internal/models"
	"xweeter/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReplyRequest struct {
	XweetID uint   `json:"xweet_id"`
	Body    string `json:"body"`
	Media   string `json:"media"`
}

type updateReplyRequest struct {
	Body  string `json:"body"`
	Media string `json:"media"`
}

// GetRepliesForPost lists a post's replies, oldest first, one page at a time.
func (s *Server) GetRepliesForPost(c *fiber.Ctx) error {
	xweetID, err := s.parseID(c, "xweetId")
	if err != nil {
		return nil
	}
	page, err := parsePagination(c, s.pageSize())
	if err != nil {
		return nil
	}

	replies, err := s.replyService.ListRepliesForPost(c.UserContext(), xweetID, page.Start, page.Size)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, replies)
}

// GetRepliesByUser lists every reply a user wrote, newest first.
func (s *Server) GetRepliesByUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	replies, err := s.replyService.ListRepliesByUser(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, replies)
}

// CreateReply adds a reply by the user in the path to the xweet in the body.
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req createReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	reply, err := s.replyService.CreateReply(c.UserContext(), service.CreateReplyInput{
		UserID:  userID,
		XweetID: req.XweetID,
		Body:    req.Body,
		Media:   req.Media,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}

// GetReply returns a single reply (protected). Replies are addressed by id
// alone; the user segment of the path is not checked.
func (s *Server) GetReply(c *fiber.Ctx) error {
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.GetReply(c.UserContext(), replyID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, reply)
}

// UpdateReply replaces a reply's body and media (protected).
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	var req updateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	reply, err := s.replyService.UpdateReply(c.UserContext(), service.UpdateReplyInput{
		ReplyID: replyID,
		Body:    req.Body,
		Media:   req.Media,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}

// DeleteReply removes a reply and echoes its final state (protected).
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.DeleteReply(c.UserContext(), replyID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}
