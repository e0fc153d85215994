package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"xweeter/internal/middleware"
	"xweeter/internal/notifications"
	"xweeter/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const replyEventTimeout = 5 * time.Second

var errUnsupportedEvent = errors.New("unsupported event")

// inboundEvent is a client frame: {"event": "...", "data": ...}.
type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebSocketUpgrade rejects plain HTTP requests to the WebSocket endpoint.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketRepliesHandler registers the connection with the hub. Every client
// receives every reply broadcast; no authentication is needed to listen.
func (s *Server) WebSocketRepliesHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected", slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, errorFrame(err.Error()))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = s.handleReplyEvent
		go client.WritePump()
		client.ReadPump()
	})
}

// handleReplyEvent answers add_to_replies by broadcasting the newest reply of
// the given post. It does not know which reply the sender created, so two
// replies landing at once can both announce the later one.
func (s *Server) handleReplyEvent(c *notifications.Client, message []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), replyEventTimeout)
	defer cancel()

	wsLog := observability.NewWSLogger(s.hub.Name())

	xweetID, err := parseReplyEvent(message)
	if err != nil {
		wsLog.LogError(ctx, c.ID, err, "inbound")
		c.TrySend(errorFrame(err.Error()))
		return
	}
	wsLog.LogMessage(ctx, c.ID, notifications.TopicAddToReplies)
	observability.WebSocketEventsTotal.WithLabelValues(notifications.TopicAddToReplies).Inc()

	latest, err := s.replyService.LatestReplyForPost(ctx, xweetID)
	if err != nil {
		wsLog.LogError(ctx, c.ID, err, notifications.TopicAddToReplies)
		c.TrySend(errorFrame(err.Error()))
		return
	}
	s.broadcaster.Publish(ctx, notifications.TopicAddToReplies, latest)
}

// parseReplyEvent returns the post id of an add_to_replies frame. The id may
// be sent as a number or a numeric string.
func parseReplyEvent(message []byte) (uint, error) {
	var ev inboundEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return 0, fmt.Errorf("invalid message: %w", err)
	}
	if ev.Event != notifications.TopicAddToReplies {
		return 0, fmt.Errorf("%w %q", errUnsupportedEvent, ev.Event)
	}

	raw := bytes.TrimSpace(ev.Data)
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = []byte(asString)
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid xweet id %q", string(ev.Data))
	}
	return uint(id), nil
}

func errorFrame(message string) []byte {
	frame, _ := json.Marshal(notifications.Event{
		Event: "error",
		Data:  map[string]string{"message": message},
	})
	return frame
}
