package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"xweeter/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds the parsed start/size query parameters.
type Pagination struct {
	Start int
	Size  int
}

// parsePagination reads start and size. Missing values fall back to 0 and
// defaultSize; values that are not integers get a 400.
func parsePagination(c *fiber.Ctx, defaultSize int) (Pagination, error) {
	p := Pagination{Start: 0, Size: defaultSize}

	for _, q := range []struct {
		name string
		dst  *int
	}{{"start", &p.Start}, {"size", &p.Size}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(q.name+" must be an integer"))
			return p, errResponseWritten
		}
		*q.dst = v
	}

	if p.Start < 0 {
		p.Start = 0
	}
	return p, nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseOwnID parses the userId route parameter and checks it names the caller.
// Like writes may only act on the authenticated user's own likes.
func (s *Server) parseOwnID(c *fiber.Ctx) (uint, error) {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return 0, err
	}
	if caller, ok := c.Locals("userID").(uint); !ok || caller != userID {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only change your own likes"))
		return 0, errResponseWritten
	}
	return userID, nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "replyId" -> "reply ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// respondServiceError writes err with the status its AppError code maps to.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func (s *Server) pageSize() int {
	if s.config != nil && s.config.RepliesDefaultPageSize > 0 {
		return s.config.RepliesDefaultPageSize
	}
	return defaultPageSize
}
