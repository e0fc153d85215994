package server

import (
	"xweeter/internal/models"
	"xweeter/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLikesForPost lists a post's likes with their count.
func (s *Server) GetLikesForPost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	xweetID, err := s.parseID(c, "xweetId")
	if err != nil {
		return nil
	}

	likes, err := s.likeService.ListLikesForPost(ctx, xweetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	count, err := s.likeService.CountLikesForPost(ctx, xweetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    likes,
		"count":   count,
	})
}

func (s *Server) GetLikesByUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	likes, err := s.likeService.ListLikesByUser(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, likes)
}

// GetLike returns one of userId's likes. A like of another user is not found.
func (s *Server) GetLike(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	likeID, err := s.parseID(c, "likeId")
	if err != nil {
		return nil
	}

	like, err := s.likeService.GetLike(c.UserContext(), likeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if like.UserID != userID {
		return respondServiceError(c, models.NewNotFoundError("Like"))
	}
	return models.RespondWithData(c, fiber.StatusOK, like)
}

// CreateLike likes the xweet in the body. Liking twice returns the first like with 200.
func (s *Server) CreateLike(c *fiber.Ctx) error {
	userID, err := s.parseOwnID(c)
	if err != nil {
		return nil
	}

	var req struct {
		XweetID uint `json:"xweet_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	like, created, err := s.likeService.Like(c.UserContext(), service.LikeInput{UserID: userID, XweetID: req.XweetID})
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return models.RespondWithData(c, status, like)
}

func (s *Server) DeleteLike(c *fiber.Ctx) error {
	userID, err := s.parseOwnID(c)
	if err != nil {
		return nil
	}
	likeID, err := s.parseID(c, "likeId")
	if err != nil {
		return nil
	}

	like, err := s.likeService.DeleteLike(c.UserContext(), userID, likeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, like)
}

// UnlikePost removes userId's like from xweetId.
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	xweetID, err := s.parseID(c, "xweetId")
	if err != nil {
		return nil
	}
	userID, err := s.parseOwnID(c)
	if err != nil {
		return nil
	}

	like, err := s.likeService.Unlike(c.UserContext(), service.LikeInput{UserID: userID, XweetID: xweetID})
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, like)
}
