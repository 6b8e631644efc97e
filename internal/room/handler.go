package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

const maxPlayerNameLen = 50

// Handler manages WebSocket connections and routes room messages.
type Handler struct {
	service *Service
	hub     *ws.Hub
	logger  zerolog.Logger
}

// NewHandler creates a room WebSocket handler.
func NewHandler(service *Service, hub *ws.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger.With().Str("component", "room_handler").Logger(),
	}
}

// connSession is per-connection routing state. It is only touched by the
// connection's read goroutine.
type connSession struct {
	connID   string
	identity *Identity
	roomCode string
}

// HandleConnection drives one WebSocket connection until it closes. The
// identity is nil for anonymous connections; token validation happens at the
// upgrade endpoint.
func (h *Handler) HandleConnection(conn *websocket.Conn, identity *Identity) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(wsConn)

	go wsConn.WritePump()

	sess := &connSession{connID: wsConn.ID, identity: identity}
	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), sess, msg)
	})

	// Cleanup on disconnect.
	if sess.roomCode != "" {
		h.service.Leave(sess.roomCode, wsConn.ID)
	}
	h.hub.Unregister(wsConn.ID)
}

// handleMessage routes one inbound message. Errors from the room service are
// reported only to the originating connection.
func (h *Handler) handleMessage(ctx context.Context, sess *connSession, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeCreateRoom:
		return h.handleCreateRoom(ctx, sess, msg.Payload)
	case ws.TypeJoinRoom:
		return h.handleJoinRoom(sess, msg.Payload)
	case ws.TypeStartQuiz:
		return h.handleStartQuiz(sess, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(sess, msg.Payload)
	case ws.TypeNextQuiz:
		return h.handleNextQuiz(sess, msg.Payload)
	case ws.TypeGetLeaderboard:
		return h.handleGetLeaderboard(sess, msg.Payload)
	default:
		return h.sendError(sess.connID, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleCreateRoom(ctx context.Context, sess *connSession, payload json.RawMessage) error {
	var req ws.CreateRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid create-room payload")
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		return h.sendError(sess.connID, "Invalid quiz id")
	}

	duration := time.Duration(req.QuestionDuration) * time.Millisecond
	rm, err := h.service.CreateRoom(ctx, sess.identity, quizID, duration)
	if err != nil {
		return h.serviceError(sess.connID, err)
	}

	return h.send(sess.connID, ws.NewMessage(ws.TypeRoomCreated, ws.RoomCreatedPayload{
		RoomCode:       rm.Code,
		GameSessionID:  rm.GameSessionID.String(),
		QuizTitle:      rm.Quiz.Title,
		TotalQuestions: len(rm.Quiz.Questions),
	}))
}

func (h *Handler) handleJoinRoom(sess *connSession, payload json.RawMessage) error {
	var req ws.JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid join-room payload")
	}

	code, ok := normalizeRoomCode(req.RoomCode)
	if !ok {
		return h.sendError(sess.connID, "Invalid room code")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return h.sendError(sess.connID, "Name is required")
	}
	if len(name) > maxPlayerNameLen {
		name = name[:maxPlayerNameLen]
	}

	if sess.roomCode != "" {
		// A dead room no longer counts as membership.
		if h.service.IsMember(sess.roomCode, sess.connID) {
			return h.sendError(sess.connID, "Already in a room")
		}
		sess.roomCode = ""
	}

	if _, err := h.service.JoinRoom(code, sess.connID, name, sess.identity); err != nil {
		return h.serviceError(sess.connID, err)
	}
	sess.roomCode = code
	return nil
}

func (h *Handler) handleStartQuiz(sess *connSession, payload json.RawMessage) error {
	var req ws.StartQuizPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid start-quiz payload")
	}

	code, ok := normalizeRoomCode(req.RoomCode)
	if !ok {
		return h.sendError(sess.connID, "Invalid room code")
	}

	if err := h.service.StartQuiz(code, sess.connID); err != nil {
		return h.serviceError(sess.connID, err)
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(sess *connSession, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid submit-answer payload")
	}

	code, ok := normalizeRoomCode(req.RoomCode)
	if !ok {
		return h.sendError(sess.connID, "Invalid room code")
	}

	if err := h.service.SubmitAnswer(code, sess.connID, req.Answer, req.ClientTimeTaken); err != nil {
		return h.serviceError(sess.connID, err)
	}
	return nil
}

func (h *Handler) handleNextQuiz(sess *connSession, payload json.RawMessage) error {
	var req ws.NextQuizPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid next-quiz payload")
	}

	code, ok := normalizeRoomCode(req.RoomCode)
	if !ok {
		return h.sendError(sess.connID, "Invalid room code")
	}

	if err := h.service.Advance(code, sess.connID); err != nil {
		return h.serviceError(sess.connID, err)
	}
	return nil
}

func (h *Handler) handleGetLeaderboard(sess *connSession, payload json.RawMessage) error {
	var req ws.GetLeaderboardPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.connID, "Invalid get-leaderboard payload")
	}

	code, ok := normalizeRoomCode(req.RoomCode)
	if !ok {
		return h.sendError(sess.connID, "Invalid room code")
	}

	if err := h.service.Leaderboard(code, sess.connID, req.CurrentQuestionOnly); err != nil {
		return h.serviceError(sess.connID, err)
	}
	return nil
}

// serviceError turns a service failure into an error event for the caller.
// Internal failures get a generic message; the detail stays in the log.
func (h *Handler) serviceError(connID string, err error) error {
	kind := Kind(err)
	if kind == "internal" {
		h.logger.Error().Err(err).Str("conn_id", connID).Msg("room operation failed")
		return h.sendError(connID, "Internal server error")
	}
	h.logger.Debug().Err(err).Str("conn_id", connID).Str("kind", kind).Msg("room operation rejected")
	return h.sendError(connID, err.Error())
}

func (h *Handler) sendError(connID, message string) error {
	return h.send(connID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: message}))
}

func (h *Handler) send(connID string, msg ws.Message) error {
	return h.hub.SendToConn(connID, msg)
}

// normalizeRoomCode uppercases a client-supplied code and checks its shape.
func normalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return "", false
	}
	for _, r := range code {
		if !strings.ContainsRune(alphabet, r) {
			return "", false
		}
	}
	return code, true
}
