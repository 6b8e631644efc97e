package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/quiz"
	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

// Session lifecycle states.
const (
	StateLobby          = "lobby"
	StateQuestionActive = "question_active"
	StateQuestionClosed = "question_closed" // transient, only while advancing
	StateCompleted      = "completed"
	StateCancelled      = "cancelled"
)

// NoAnswer is the sentinel option recorded when a question closes without a
// submission from a participant.
const NoAnswer = -1

// Category errors. Every failure an operation can return wraps one of these.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotHost             = errors.New("only the host can do that")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomClosed          = errors.New("room is no longer accepting players")
	ErrAlreadyJoined       = errors.New("connection already joined this room")
	ErrQuizInProgress      = errors.New("quiz already in progress")
	ErrQuizNotStarted      = errors.New("quiz has not started")
	ErrNoParticipants      = errors.New("room has no participants")
	ErrQuestionNotOpen     = errors.New("question is not open for answers")
	ErrQuizFinished        = errors.New("quiz already finished")
	ErrInvalidOption       = errors.New("invalid option index")
	ErrInvalidDuration     = errors.New("question duration out of range")
	ErrAuthRequired        = errors.New("authentication required")
)

// Kind buckets an error into the coarse category used for logging and tests.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrQuizNotFound),
		errors.Is(err, ErrParticipantNotFound):
		return "not_found"
	case errors.Is(err, ErrNotHost):
		return "forbidden"
	case errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrRoomClosed),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrQuizInProgress),
		errors.Is(err, ErrQuizNotStarted),
		errors.Is(err, ErrNoParticipants),
		errors.Is(err, ErrQuestionNotOpen),
		errors.Is(err, ErrQuizFinished):
		return "conflict"
	case errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrInvalidDuration):
		return "validation"
	case errors.Is(err, ErrAuthRequired):
		return "auth"
	default:
		return "internal"
	}
}

// Identity is the authenticated caller attached to a connection, if any.
type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	IsGuest     bool
}

// AnswerRecord stores one response per question index.
type AnswerRecord struct {
	QuestionIndex int
	Answer        int   // option index, or NoAnswer
	IsCorrect     bool
	TimeTakenMs   int64 // display value; client-reported when plausible
	ServerTimeMs  int64 // authoritative server measurement
	SubmittedAt   time.Time
}

// Participant is one joined connection in a room.
type Participant struct {
	ConnID   string
	PlayerID string // stable 8-char id, unique within the room
	Name     string
	UserID   *uuid.UUID // set when the connection was authenticated
	IsGuest  bool
	JoinedAt time.Time
	JoinSeq  int
	Score    int
	Answers  []AnswerRecord
}

// answerAt returns the record for a question index, if present.
func (p *Participant) answerAt(index int) *AnswerRecord {
	for i := range p.Answers {
		if p.Answers[i].QuestionIndex == index {
			return &p.Answers[i]
		}
	}
	return nil
}

// Room is one live game room. All state behind mu; operations on the
// engine lock per room, never across rooms.
type Room struct {
	mu sync.Mutex

	Code             string
	GameSessionID    uuid.UUID
	Quiz             *quiz.Snapshot
	Creator          Identity
	Capacity         int
	QuestionDuration time.Duration

	State        string
	HostPlayerID string // set once, when the first participant joins

	participants []*Participant // join order
	byConn       map[string]*Participant
	joinCounter  int

	QuestionIndex     int
	questionStartedAt time.Time
	quizStartedAt     time.Time
	completedAt       time.Time
	results           *ws.QuizResults // computed once at completion

	questionTimer *time.Timer // at most one outstanding per room
	teardownTimer *time.Timer

	CreatedAt    time.Time
	lastActivity time.Time
}

func (r *Room) participant(connID string) *Participant {
	return r.byConn[connID]
}

func (r *Room) hostLocked() *Participant {
	if r.HostPlayerID == "" {
		return nil
	}
	for _, p := range r.participants {
		if p.PlayerID == r.HostPlayerID {
			return p
		}
	}
	return nil
}

// rosterLocked builds the wire view of the participant list. Caller holds mu.
func (r *Room) rosterLocked() []ws.ParticipantInfo {
	roster := make([]ws.ParticipantInfo, len(r.participants))
	for i, p := range r.participants {
		roster[i] = ws.ParticipantInfo{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Score:    p.Score,
			IsHost:   p.PlayerID == r.HostPlayerID,
		}
	}
	return roster
}

// connIDsLocked snapshots member connection ids. Caller holds mu.
func (r *Room) connIDsLocked() []string {
	ids := make([]string, len(r.participants))
	for i, p := range r.participants {
		ids[i] = p.ConnID
	}
	return ids
}

func (r *Room) playerIDTakenLocked(id string) bool {
	for _, p := range r.participants {
		if p.PlayerID == id {
			return true
		}
	}
	return false
}
