package game

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRecord is one player's final line as archived in the games
// table. The JSONB shape doubles as the HTTP response.
type ParticipantRecord struct {
	PlayerID  string     `json:"playerId"`
	Name      string     `json:"name"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	IsGuest   bool       `json:"isGuest"`
	Rank      int        `json:"rank"`
	Score     int        `json:"score"`
	Questions int        `json:"questions"`
	Won       bool       `json:"won"`
}

// Record is an archived quiz session.
type Record struct {
	ID           uuid.UUID           `json:"id"`
	RoomCode     string              `json:"roomCode"`
	QuizID       uuid.UUID           `json:"quizId"`
	QuizTitle    string              `json:"quizTitle"`
	Participants []ParticipantRecord `json:"participants"`
	StartedAt    time.Time           `json:"startedAt"`
	CompletedAt  time.Time           `json:"completedAt"`
	DurationMs   int64               `json:"durationMs"`
}
