package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/auth"
	"nycexplorer/internal/engine"
	"nycexplorer/internal/wshub"
)

// badgePassTimeout bounds the badge evaluation that follows a primary write.
const badgePassTimeout = 10 * time.Second

type Server struct {
	Store  activity.Store
	Engine *engine.Engine
	Hub    *wshub.Hub
	Auth   *auth.Manager
	Logger *zap.Logger

	// EventRateLimit caps badge event requests per user per minute. Zero
	// disables the limit.
	EventRateLimit int
}

type eventRequest struct {
	Event string `json:"event" validate:"required"`
}

func (s *Server) handleGetBadges(w http.ResponseWriter, r *http.Request) {
	c, err := s.Engine.Badges(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, c)
}

func (s *Server) handleBadgeEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := engine.ParseEventType(req.Event)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.Engine.OnEvent(r.Context(), auth.UserID(r.Context()), ev)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, out)
}

func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrIdentityMissing):
		respondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, engine.ErrUnknownEvent):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrPersist):
		respondError(w, http.StatusServiceUnavailable, "badge state could not be saved")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		s.Logger.Error("badge request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// fireEvent runs the badge pass for a primary write that already succeeded.
// Its failure never fails the write; the caller gets whatever outcome the
// engine could produce.
func (s *Server) fireEvent(r *http.Request, ev engine.EventType) engine.Outcome {
	userID := auth.UserID(r.Context())
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), badgePassTimeout)
	defer cancel()

	out, err := s.Engine.OnEvent(ctx, userID, ev)
	if err != nil {
		s.Logger.Warn("badge pass failed after write",
			zap.String("user_id", userID),
			zap.String("event", string(ev)),
			zap.Error(err))
	}
	return out
}

// handleBadgeStream upgrades to a websocket that receives unlock pushes for
// the authenticated user. Client frames are ignored.
func (s *Server) handleBadgeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	client := &wshub.Client{
		ID:     uuid.New().String(),
		UserID: auth.UserID(r.Context()),
		Conn:   conn,
		Send:   make(chan []byte, 8),
	}
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID)

	ctx := conn.CloseRead(r.Context())
	client.WritePump(ctx)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "db_error",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
