package quiz

import (
	"time"

	"github.com/google/uuid"
)

// Question is one multiple-choice question with exactly four options.
// The correct index never leaves the server on the play path.
type Question struct {
	Text         string   `json:"text" validate:"required,max=500"`
	Options      []string `json:"options" validate:"required,len=4,dive,required,max=200"`
	CorrectIndex int      `json:"correctIndex" validate:"min=0,max=3"`
}

// Quiz is a stored quiz definition owned by a registered user.
type Quiz struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SaveQuizRequest is the payload for creating or replacing a quiz.
type SaveQuizRequest struct {
	Title     string     `json:"title" validate:"required,min=1,max=120"`
	Questions []Question `json:"questions" validate:"required,min=1,max=50,dive"`
}

// Snapshot is the immutable copy of a quiz handed to a live room.
// Catalog edits after the snapshot is taken never reach the room.
type Snapshot struct {
	QuizID    uuid.UUID  `json:"quizId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	TakenAt   time.Time  `json:"takenAt"`
}

// Clone deep-copies the snapshot so callers can hold it without sharing
// option slices.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		QuizID:    s.QuizID,
		Title:     s.Title,
		TakenAt:   s.TakenAt,
		Questions: make([]Question, len(s.Questions)),
	}
	for i, q := range s.Questions {
		out.Questions[i] = Question{
			Text:         q.Text,
			Options:      append([]string(nil), q.Options...),
			CorrectIndex: q.CorrectIndex,
		}
	}
	return out
}
