package game

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/room"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/standings"
)

type gameStore interface {
	Insert(ctx context.Context, g *repository.GameRow) error
}

type resultSink interface {
	RecordResult(ctx context.Context, res standings.Result) error
	PublishUpdate(ctx context.Context, gameID uuid.UUID)
}

// Recorder archives completed games and feeds the global standings.
type Recorder struct {
	games     gameStore
	standings resultSink
	logger    zerolog.Logger
}

var _ room.GameRecorder = (*Recorder)(nil)

func NewRecorder(games gameStore, standings resultSink, logger zerolog.Logger) *Recorder {
	return &Recorder{
		games:     games,
		standings: standings,
		logger:    logger.With().Str("component", "game_recorder").Logger(),
	}
}

// RecordCompletedGame archives the game, then folds each registered
// player's line into the standings. Standings failures never fail the
// archive.
func (r *Recorder) RecordCompletedGame(ctx context.Context, g room.CompletedGame) error {
	participants := make([]ParticipantRecord, len(g.Players))
	for i, p := range g.Players {
		participants[i] = ParticipantRecord{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			UserID:    p.UserID,
			IsGuest:   p.IsGuest,
			Rank:      p.Rank,
			Score:     p.Score,
			Questions: p.Questions,
			Won:       p.Won,
		}
	}
	data, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}

	row := &repository.GameRow{
		ID:           g.GameSessionID,
		RoomCode:     g.RoomCode,
		QuizID:       g.QuizID,
		QuizTitle:    g.QuizTitle,
		Participants: data,
		StartedAt:    g.StartedAt,
		CompletedAt:  g.CompletedAt,
		DurationMs:   g.DurationMs,
	}
	if err := r.games.Insert(ctx, row); err != nil {
		return fmt.Errorf("archive game: %w", err)
	}

	if r.standings == nil {
		return nil
	}
	fed := false
	for _, p := range g.Players {
		res := toResult(p)
		if !res.Eligible {
			continue
		}
		if err := r.standings.RecordResult(ctx, res); err != nil {
			r.logger.Warn().Err(err).Str("player_id", p.PlayerID).Msg("standings record failed")
			continue
		}
		fed = true
	}
	if fed {
		r.standings.PublishUpdate(ctx, g.GameSessionID)
	}
	return nil
}

func toResult(p room.CompletedPlayer) standings.Result {
	// Score counts correct answers, so it doubles as the accuracy numerator.
	res := standings.Result{
		DisplayName:   p.Name,
		Score:         p.Score,
		CorrectCount:  p.Score,
		QuestionCount: p.Questions,
		Won:           p.Won,
	}
	if p.UserID != nil && !p.IsGuest {
		res.UserID = *p.UserID
		res.Eligible = true
	}
	return res
}
