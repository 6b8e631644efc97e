package standings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

// Supported standings windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var Windows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// ValidWindow reports whether window names a supported standings board.
func ValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	}
	return false
}

// Entry is one aggregated standings row.
type Entry struct {
	UserID        uuid.UUID
	DisplayName   string
	Score         int
	Wins          int
	Games         int
	Accuracy      float64
	CorrectTotal  int
	QuestionTotal int
}

// Result is one player's outcome from a completed game. Guests carry
// Eligible=false and never touch the boards.
type Result struct {
	UserID        uuid.UUID
	DisplayName   string
	Score         int
	CorrectCount  int
	QuestionCount int
	Won           bool
	Eligible      bool
}

// Options configures the standings service.
type Options struct {
	TopN             int
	PubSubChannel    string
	KeyPrefix        string
	SnapshotTopLimit int
}

// Service keeps windowed standings in Redis sorted sets and emits updates
// over Pub/Sub so every API instance can push them to its connections.
type Service struct {
	redis          *redis.Client
	logger         zerolog.Logger
	topN           int
	pubsubChannel  string
	prefix         string
	snapshotTopLim int

	now func() time.Time
}

func NewService(rdb *redis.Client, logger zerolog.Logger, opts Options) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "standings:updates"
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "standings"
	}
	snapTop := opts.SnapshotTopLimit
	if snapTop <= 0 {
		snapTop = 100
	}

	return &Service{
		redis:          rdb,
		logger:         logger.With().Str("component", "standings").Logger(),
		topN:           topN,
		pubsubChannel:  channel,
		prefix:         prefix,
		snapshotTopLim: snapTop,
		now:            time.Now,
	}
}

// RecordResult folds one player's outcome into every window. Callers record
// a whole game first and then call PublishUpdate once.
func (s *Service) RecordResult(ctx context.Context, res Result) error {
	if !res.Eligible {
		return nil
	}
	for _, window := range Windows {
		if err := s.updateWindow(ctx, window, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) updateWindow(ctx context.Context, window string, res Result) error {
	zKey := s.boardKey(window)
	metaKey := s.metaKey(window, res.UserID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(res.Score), res.UserID.String())
	pipe.HIncrBy(ctx, metaKey, "wins", int64(boolToInt(res.Won)))
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "correct", int64(res.CorrectCount))
	pipe.HIncrBy(ctx, metaKey, "questions", int64(res.QuestionCount))
	pipe.HSet(ctx, metaKey, map[string]interface{}{
		"display_name": res.DisplayName,
	})
	if ttl := windowTTL(window); ttl > 0 {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update standings window %s: %w", window, err)
	}
	return nil
}

// Top returns the best limit entries for a window's current period.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	zKey := s.boardKey(window)
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch standings: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		entry, err := s.readMeta(ctx, window, member)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("standings meta read failed")
			continue
		}
		entry.Score = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

// SnapshotTop returns the persistence-sized slice for the snapshot worker.
func (s *Service) SnapshotTop(ctx context.Context, window string) ([]Entry, error) {
	return s.Top(ctx, window, s.snapshotTopLim)
}

// PublishUpdate pushes each window's current top ten to the update channel.
// Failures are logged; standings pushes are best effort.
func (s *Service) PublishUpdate(ctx context.Context, gameID uuid.UUID) {
	for _, window := range Windows {
		entries, err := s.Top(ctx, window, 10)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("standings update collect failed")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.StandingsUpdatePayload{
			Window: window,
			GameID: gameID.String(),
			Top:    toWireEntries(entries),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("standings update marshal failed")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("standings update publish failed")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, window, member string) (*Entry, error) {
	id, err := uuid.Parse(member)
	if err != nil {
		return nil, fmt.Errorf("bad standings member %q: %w", member, err)
	}

	data, err := s.redis.HGetAll(ctx, s.metaKey(window, id)).Result()
	if err != nil {
		return nil, err
	}

	entry := &Entry{UserID: id}
	if len(data) == 0 {
		return entry, nil
	}
	entry.DisplayName = data["display_name"]
	entry.Wins = parseInt(data["wins"])
	entry.Games = parseInt(data["games"])
	entry.CorrectTotal = parseInt(data["correct"])
	entry.QuestionTotal = parseInt(data["questions"])
	if entry.QuestionTotal > 0 {
		entry.Accuracy = float64(entry.CorrectTotal) / float64(entry.QuestionTotal)
	}
	return entry, nil
}

// Window keys carry the current period so boards reset on calendar
// boundaries instead of decaying while games keep coming.
func (s *Service) boardKey(window string) string {
	p := period(window, s.now())
	if p == "" {
		return fmt.Sprintf("%s:%s", s.prefix, window)
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, window, p)
}

func (s *Service) metaKey(window string, userID uuid.UUID) string {
	return s.boardKey(window) + ":meta:" + userID.String()
}

func period(window string, t time.Time) string {
	t = t.UTC()
	switch window {
	case WindowDaily:
		return t.Format("2006-01-02")
	case WindowWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case WindowMonthly:
		return t.Format("2006-01")
	default:
		return ""
	}
}

// windowTTL keeps finished periods readable for a while before Redis drops
// them. The all-time board never expires.
func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 15 * 24 * time.Hour
	case WindowMonthly:
		return 63 * 24 * time.Hour
	default:
		return 0
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
