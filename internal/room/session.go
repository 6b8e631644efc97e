package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/metrics"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/quiz"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/room/scoring"
	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

// clientElapsedToleranceMs bounds how far a client-reported answer time may
// drift from the server measurement and still be shown instead of it.
const clientElapsedToleranceMs = 5000

// QuizStore supplies immutable quiz snapshots for room creation.
type QuizStore interface {
	Snapshot(ctx context.Context, id uuid.UUID) (*quiz.Snapshot, error)
}

// Gateway delivers messages to connections and room groups.
type Gateway interface {
	SendToConn(connID string, msg ws.Message) error
	BroadcastToRoom(roomCode string, msg ws.Message) error
	JoinRoom(roomCode, connID string)
	LeaveRoom(roomCode, connID string)
	DropRoom(roomCode string)
}

// GameRecorder archives a completed game and feeds the global standings.
type GameRecorder interface {
	RecordCompletedGame(ctx context.Context, game CompletedGame) error
}

// CompletedGame is everything recorded when a quiz session finishes.
type CompletedGame struct {
	GameSessionID uuid.UUID
	RoomCode      string
	QuizID        uuid.UUID
	QuizTitle     string
	StartedAt     time.Time
	CompletedAt   time.Time
	DurationMs    int64
	Players       []CompletedPlayer
}

// CompletedPlayer is one participant's final line in a completed game.
type CompletedPlayer struct {
	PlayerID  string
	Name      string
	UserID    *uuid.UUID
	IsGuest   bool
	Rank      int
	Score     int
	Questions int
	Won       bool
}

// Options carries room defaults from config.
type Options struct {
	Capacity         int
	QuestionDuration time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
	CompletedGrace   time.Duration
	SweepInterval    time.Duration
	StaleAge         time.Duration
}

// Service drives room lifecycle and the question state machine. Outbound
// events flow through the gateway; nothing is sent while a room lock is held.
type Service struct {
	registry *Registry
	quizzes  QuizStore
	gateway  Gateway
	recorder GameRecorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	opts     Options

	now func() time.Time
}

// NewService wires the session engine.
func NewService(registry *Registry, quizzes QuizStore, gateway Gateway, recorder GameRecorder, m *metrics.Metrics, logger zerolog.Logger, opts Options) *Service {
	if opts.Capacity <= 0 {
		opts.Capacity = 50
	}
	if opts.QuestionDuration <= 0 {
		opts.QuestionDuration = 20 * time.Second
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = 5 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 60 * time.Second
	}
	if opts.CompletedGrace <= 0 {
		opts.CompletedGrace = 30 * time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Minute
	}
	if opts.StaleAge <= 0 {
		opts.StaleAge = 2 * time.Hour
	}
	return &Service{
		registry: registry,
		quizzes:  quizzes,
		gateway:  gateway,
		recorder: recorder,
		metrics:  m,
		logger:   logger.With().Str("component", "room_service").Logger(),
		opts:     opts,
		now:      time.Now,
	}
}

// CreateRoom fetches the quiz snapshot and registers a new lobby. The
// snapshot fetch always happens before any room lock is taken.
func (s *Service) CreateRoom(ctx context.Context, identity *Identity, quizID uuid.UUID, questionDuration time.Duration) (*Room, error) {
	if identity == nil {
		return nil, ErrAuthRequired
	}

	if questionDuration == 0 {
		questionDuration = s.opts.QuestionDuration
	}
	if questionDuration < s.opts.MinDuration || questionDuration > s.opts.MaxDuration {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, questionDuration)
	}

	snapshot, err := s.quizzes.Snapshot(ctx, quizID)
	if err != nil {
		if errors.Is(err, quiz.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("fetch quiz snapshot: %w", err)
	}

	now := s.now()
	rm := &Room{
		GameSessionID:    uuid.New(),
		Quiz:             snapshot,
		Creator:          *identity,
		Capacity:         s.opts.Capacity,
		QuestionDuration: questionDuration,
		State:            StateLobby,
		QuestionIndex:    -1,
		byConn:           make(map[string]*Participant),
		CreatedAt:        now,
		lastActivity:     now,
	}

	code, err := s.registry.Register(rm)
	if err != nil {
		return nil, err
	}

	s.metrics.RoomCreated()
	s.logger.Info().
		Str("room_code", code).
		Str("quiz_id", quizID.String()).
		Str("game_session_id", rm.GameSessionID.String()).
		Str("created_by", identity.DisplayName).
		Msg("room created")
	return rm, nil
}

// JoinRoom adds a connection to a lobby. The first joiner becomes the host.
func (s *Service) JoinRoom(code, connID, name string, identity *Identity) (*Participant, error) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}

	now := s.now()

	rm.mu.Lock()
	if rm.State != StateLobby {
		rm.mu.Unlock()
		return nil, ErrRoomClosed
	}
	if len(rm.participants) >= rm.Capacity {
		rm.mu.Unlock()
		return nil, ErrRoomFull
	}
	if _, joined := rm.byConn[connID]; joined {
		rm.mu.Unlock()
		return nil, ErrAlreadyJoined
	}

	playerID, err := s.newPlayerIDLocked(rm)
	if err != nil {
		rm.mu.Unlock()
		return nil, err
	}

	p := &Participant{
		ConnID:   connID,
		PlayerID: playerID,
		Name:     name,
		JoinedAt: now,
		JoinSeq:  rm.joinCounter,
	}
	if identity != nil {
		uid := identity.UserID
		p.UserID = &uid
		p.IsGuest = identity.IsGuest
	}
	rm.joinCounter++
	rm.participants = append(rm.participants, p)
	rm.byConn[connID] = p
	if rm.HostPlayerID == "" {
		rm.HostPlayerID = playerID
	}
	rm.lastActivity = now

	roster := rm.rosterLocked()
	count := len(rm.participants)
	sessionID := rm.GameSessionID.String()
	rm.mu.Unlock()

	s.gateway.JoinRoom(code, connID)
	s.sendToConn(connID, ws.NewMessage(ws.TypeRoomJoined, ws.RoomJoinedPayload{
		PlayerID:         p.PlayerID,
		GameSessionID:    sessionID,
		ParticipantCount: count,
		Participants:     roster,
	}))
	s.broadcast(code, ws.NewMessage(ws.TypeParticipantJoined, ws.ParticipantJoinedPayload{
		PlayerID:         p.PlayerID,
		Name:             p.Name,
		ParticipantCount: count,
		Participants:     roster,
	}))

	s.metrics.ParticipantJoined()
	s.logger.Info().
		Str("room_code", code).
		Str("player_id", p.PlayerID).
		Int("participant_count", count).
		Msg("participant joined")
	return p, nil
}

// Leave removes the participant behind a connection. Host departure cancels
// the whole room unless the quiz already completed.
func (s *Service) Leave(code, connID string) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return
	}

	rm.mu.Lock()
	p := rm.participant(connID)
	if p == nil {
		rm.mu.Unlock()
		return
	}
	delete(rm.byConn, connID)
	for i, cand := range rm.participants {
		if cand.ConnID == connID {
			rm.participants = append(rm.participants[:i], rm.participants[i+1:]...)
			break
		}
	}
	wasHost := p.PlayerID == rm.HostPlayerID
	remaining := len(rm.participants)
	state := rm.State
	rm.lastActivity = s.now()
	rm.mu.Unlock()

	s.gateway.LeaveRoom(code, connID)
	s.logger.Info().
		Str("room_code", code).
		Str("player_id", p.PlayerID).
		Int("participant_count", remaining).
		Msg("participant left")

	if wasHost && state != StateCompleted {
		s.cancel(rm, "host left the room")
		return
	}

	s.broadcast(code, ws.NewMessage(ws.TypeParticipantLeft, ws.ParticipantLeftPayload{
		PlayerID:         p.PlayerID,
		Name:             p.Name,
		ParticipantCount: remaining,
	}))

	if remaining == 0 {
		s.drop(rm)
	}
}

// StartQuiz moves a lobby into the first question. Host only.
func (s *Service) StartQuiz(code, connID string) error {
	rm, err := s.registry.Get(code)
	if err != nil {
		return err
	}

	now := s.now()

	rm.mu.Lock()
	p := rm.participant(connID)
	if p == nil {
		rm.mu.Unlock()
		return ErrParticipantNotFound
	}
	if p.PlayerID != rm.HostPlayerID {
		rm.mu.Unlock()
		return ErrNotHost
	}
	if rm.State != StateLobby {
		rm.mu.Unlock()
		return ErrQuizInProgress
	}

	rm.State = StateQuestionActive
	rm.QuestionIndex = 0
	rm.quizStartedAt = now
	rm.questionStartedAt = now
	rm.lastActivity = now
	s.armQuestionTimerLocked(rm, 0)

	payload := ws.QuizStartedPayload{
		Question:      rm.questionPayloadLocked(now),
		Leaderboard:   rm.leaderboardLocked(false),
		GameSessionID: rm.GameSessionID.String(),
	}
	rm.mu.Unlock()

	s.broadcast(code, ws.NewMessage(ws.TypeQuizStarted, payload))
	s.logger.Info().Str("room_code", code).Msg("quiz started")
	return nil
}

// SubmitAnswer records an option choice for the open question. Resubmitting
// while the question is open replaces the previous record and adjusts the
// score by the delta.
func (s *Service) SubmitAnswer(code, connID string, option int, clientElapsedMs *int64) error {
	rm, err := s.registry.Get(code)
	if err != nil {
		return err
	}

	now := s.now()

	rm.mu.Lock()
	switch rm.State {
	case StateQuestionActive:
	case StateLobby:
		rm.mu.Unlock()
		return ErrQuizNotStarted
	default:
		rm.mu.Unlock()
		return ErrQuestionNotOpen
	}

	p := rm.participant(connID)
	if p == nil {
		rm.mu.Unlock()
		return ErrParticipantNotFound
	}

	question := rm.Quiz.Questions[rm.QuestionIndex]
	if option < 0 || option >= len(question.Options) {
		rm.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}

	serverElapsed := now.Sub(rm.questionStartedAt).Milliseconds()
	display := serverElapsed
	if clientElapsedMs != nil {
		drift := *clientElapsedMs - serverElapsed
		if drift < 0 {
			drift = -drift
		}
		if drift <= clientElapsedToleranceMs {
			display = *clientElapsedMs
		}
	}

	correct := option == question.CorrectIndex
	if existing := p.answerAt(rm.QuestionIndex); existing != nil {
		if existing.IsCorrect {
			p.Score--
		}
		existing.Answer = option
		existing.IsCorrect = correct
		existing.TimeTakenMs = display
		existing.ServerTimeMs = serverElapsed
		existing.SubmittedAt = now
	} else {
		p.Answers = append(p.Answers, AnswerRecord{
			QuestionIndex: rm.QuestionIndex,
			Answer:        option,
			IsCorrect:     correct,
			TimeTakenMs:   display,
			ServerTimeMs:  serverElapsed,
			SubmittedAt:   now,
		})
	}
	if correct {
		p.Score++
	}
	rm.lastActivity = now

	ack := ws.AnswerSubmittedPayload{
		IsCorrect:       correct,
		TimeSpent:       display,
		ServerTimeSpent: serverElapsed,
		CurrentScore:    p.Score,
		PlayerID:        p.PlayerID,
	}
	board := rm.leaderboardLocked(false)
	rm.mu.Unlock()

	s.sendToConn(connID, ws.NewMessage(ws.TypeAnswerSubmitted, ack))
	s.broadcast(code, ws.NewMessage(ws.TypeLeaderboardUpdated, ws.LeaderboardUpdatedPayload{Leaderboard: board}))
	s.metrics.AnswerSubmitted()
	return nil
}

// Advance closes the open question on the host's request and moves on.
func (s *Service) Advance(code, connID string) error {
	rm, err := s.registry.Get(code)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	p := rm.participant(connID)
	if p == nil {
		rm.mu.Unlock()
		return ErrParticipantNotFound
	}
	if p.PlayerID != rm.HostPlayerID {
		rm.mu.Unlock()
		return ErrNotHost
	}
	switch rm.State {
	case StateQuestionActive:
	case StateLobby:
		rm.mu.Unlock()
		return ErrQuizNotStarted
	default:
		rm.mu.Unlock()
		return ErrQuizFinished
	}

	outcome := s.advanceLocked(rm)
	rm.mu.Unlock()

	s.finishAdvance(rm, outcome)
	return nil
}

// IsMember reports whether a connection currently belongs to a room.
func (s *Service) IsMember(code, connID string) bool {
	rm, err := s.registry.Get(code)
	if err != nil {
		return false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.participant(connID) != nil
}

// Leaderboard sends the current standings to the requesting connection.
func (s *Service) Leaderboard(code, connID string, currentQuestionOnly bool) error {
	rm, err := s.registry.Get(code)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	if rm.participant(connID) == nil {
		rm.mu.Unlock()
		return ErrParticipantNotFound
	}
	board := rm.leaderboardLocked(currentQuestionOnly)
	rm.mu.Unlock()

	s.sendToConn(connID, ws.NewMessage(ws.TypeLeaderboardUpdated, ws.LeaderboardUpdatedPayload{Leaderboard: board}))
	return nil
}

// questionExpired is the timer callback. A callback that fires after its
// question has advanced detects the index mismatch and does nothing.
func (s *Service) questionExpired(code string, index int) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return
	}

	rm.mu.Lock()
	if rm.State != StateQuestionActive || rm.QuestionIndex != index {
		rm.mu.Unlock()
		return
	}
	outcome := s.advanceLocked(rm)
	rm.mu.Unlock()

	s.metrics.QuestionTimedOut()
	s.logger.Info().Str("room_code", code).Int("question_index", index).Msg("question timed out")
	s.finishAdvance(rm, outcome)
}

type advanceOutcome struct {
	next      *ws.NextQuestionPayload
	completed *ws.QuizCompletedPayload
	game      *CompletedGame
}

// advanceLocked closes the current question and either opens the next one or
// completes the quiz. Caller holds the room lock.
func (s *Service) advanceLocked(rm *Room) advanceOutcome {
	now := s.now()
	rm.State = StateQuestionClosed

	// Participants who never answered get the no-answer sentinel so every
	// record list stays one-per-question.
	durationMs := rm.QuestionDuration.Milliseconds()
	for _, p := range rm.participants {
		if p.answerAt(rm.QuestionIndex) == nil {
			p.Answers = append(p.Answers, AnswerRecord{
				QuestionIndex: rm.QuestionIndex,
				Answer:        NoAnswer,
				IsCorrect:     false,
				TimeTakenMs:   durationMs,
				ServerTimeMs:  durationMs,
				SubmittedAt:   now,
			})
		}
	}
	rm.lastActivity = now

	if rm.QuestionIndex+1 < len(rm.Quiz.Questions) {
		rm.QuestionIndex++
		rm.questionStartedAt = now
		rm.State = StateQuestionActive
		s.armQuestionTimerLocked(rm, rm.QuestionIndex)
		return advanceOutcome{next: &ws.NextQuestionPayload{
			Question:    rm.questionPayloadLocked(now),
			Leaderboard: rm.leaderboardLocked(false),
		}}
	}

	return s.completeLocked(rm, now)
}

// completeLocked finalizes the session. Results are computed exactly once.
func (s *Service) completeLocked(rm *Room, now time.Time) advanceOutcome {
	rm.State = StateCompleted
	rm.completedAt = now
	s.stopQuestionTimerLocked(rm)

	var game *CompletedGame
	if rm.results == nil {
		standings := scoring.Rank(rm.scoringPlayersLocked(), rm.QuestionIndex, false)
		byID := make(map[string]*Participant, len(rm.participants))
		for _, p := range rm.participants {
			byID[p.PlayerID] = p
		}

		results := ws.QuizResults{
			QuizTitle:      rm.Quiz.Title,
			TotalQuestions: len(rm.Quiz.Questions),
			CompletionTime: now.UTC().Format(time.RFC3339),
			DurationMs:     now.Sub(rm.quizStartedAt).Milliseconds(),
			Participants:   make([]ws.ParticipantResult, 0, len(standings)),
		}
		completed := CompletedGame{
			GameSessionID: rm.GameSessionID,
			RoomCode:      rm.Code,
			QuizID:        rm.Quiz.QuizID,
			QuizTitle:     rm.Quiz.Title,
			StartedAt:     rm.quizStartedAt,
			CompletedAt:   now,
			DurationMs:    now.Sub(rm.quizStartedAt).Milliseconds(),
			Players:       make([]CompletedPlayer, 0, len(standings)),
		}

		for _, st := range standings {
			p := byID[st.PlayerID]
			answers := make([]ws.AnswerView, len(p.Answers))
			for i, a := range p.Answers {
				answers[i] = ws.AnswerView{
					QuestionIndex: a.QuestionIndex,
					Answer:        a.Answer,
					IsCorrect:     a.IsCorrect,
					TimeTaken:     a.TimeTakenMs,
				}
			}
			results.Participants = append(results.Participants, ws.ParticipantResult{
				Name:    st.Name,
				Score:   st.Score,
				Answers: answers,
			})
			completed.Players = append(completed.Players, CompletedPlayer{
				PlayerID:  st.PlayerID,
				Name:      st.Name,
				UserID:    p.UserID,
				IsGuest:   p.IsGuest,
				Rank:      st.Rank,
				Score:     st.Score,
				Questions: len(rm.Quiz.Questions),
				Won:       st.Rank == 1,
			})
		}

		rm.results = &results
		game = &completed
	}

	s.armTeardownLocked(rm)
	return advanceOutcome{
		completed: &ws.QuizCompletedPayload{Results: *rm.results},
		game:      game,
	}
}

// finishAdvance delivers the outcome of an advancement after the lock is
// released.
func (s *Service) finishAdvance(rm *Room, outcome advanceOutcome) {
	if outcome.next != nil {
		s.broadcast(rm.Code, ws.NewMessage(ws.TypeNextQuestion, *outcome.next))
		return
	}
	if outcome.completed != nil {
		s.broadcast(rm.Code, ws.NewMessage(ws.TypeQuizCompleted, *outcome.completed))
		s.metrics.QuizCompleted()
		s.logger.Info().
			Str("room_code", rm.Code).
			Int64("duration_ms", outcome.completed.Results.DurationMs).
			Msg("quiz completed")
		if outcome.game != nil {
			s.recordGame(*outcome.game)
		}
	}
}

// recordGame archives the game; failures only log.
func (s *Service) recordGame(game CompletedGame) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.recorder.RecordCompletedGame(ctx, game); err != nil {
		s.logger.Error().Err(err).Str("room_code", game.RoomCode).Msg("record completed game failed")
	}
}

// RunSweeper periodically cancels rooms idle past the staleness horizon.
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("room sweeper stopping")
			return
		case <-ticker.C:
			for _, rm := range s.registry.Stale(s.opts.StaleAge, s.now()) {
				s.cancel(rm, "room expired")
			}
		}
	}
}

// cancel broadcasts room-cancelled and removes the room.
func (s *Service) cancel(rm *Room, reason string) {
	rm.mu.Lock()
	if rm.State == StateCancelled {
		rm.mu.Unlock()
		return
	}
	rm.State = StateCancelled
	s.stopTimersLocked(rm)
	code := rm.Code
	rm.mu.Unlock()

	s.broadcast(code, ws.NewMessage(ws.TypeRoomCancelled, ws.RoomCancelledPayload{RoomCode: code, Reason: reason}))
	s.registry.Remove(code)
	s.gateway.DropRoom(code)
	s.metrics.RoomClosed()
	s.logger.Info().Str("room_code", code).Str("reason", reason).Msg("room cancelled")
}

// drop removes an emptied room without a cancellation broadcast.
func (s *Service) drop(rm *Room) {
	rm.mu.Lock()
	s.stopTimersLocked(rm)
	code := rm.Code
	rm.mu.Unlock()

	s.registry.Remove(code)
	s.gateway.DropRoom(code)
	s.metrics.RoomClosed()
	s.logger.Info().Str("room_code", code).Msg("empty room dropped")
}

// teardown removes a completed room once its grace period ends.
func (s *Service) teardown(code string) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return
	}

	rm.mu.Lock()
	if rm.State != StateCompleted {
		rm.mu.Unlock()
		return
	}
	s.stopTimersLocked(rm)
	rm.mu.Unlock()

	s.registry.Remove(code)
	s.gateway.DropRoom(code)
	s.metrics.RoomClosed()
	s.logger.Info().Str("room_code", code).Msg("completed room torn down")
}

// armQuestionTimerLocked stops any outstanding timer before arming the next,
// so a room never has two.
func (s *Service) armQuestionTimerLocked(rm *Room, index int) {
	if rm.questionTimer != nil {
		rm.questionTimer.Stop()
	}
	code := rm.Code
	rm.questionTimer = time.AfterFunc(rm.QuestionDuration, func() {
		s.questionExpired(code, index)
	})
}

func (s *Service) stopQuestionTimerLocked(rm *Room) {
	if rm.questionTimer != nil {
		rm.questionTimer.Stop()
		rm.questionTimer = nil
	}
}

func (s *Service) stopTimersLocked(rm *Room) {
	s.stopQuestionTimerLocked(rm)
	if rm.teardownTimer != nil {
		rm.teardownTimer.Stop()
		rm.teardownTimer = nil
	}
}

// armTeardownLocked schedules a completed room for removal after the grace
// period.
func (s *Service) armTeardownLocked(rm *Room) {
	if rm.teardownTimer != nil {
		rm.teardownTimer.Stop()
	}
	code := rm.Code
	rm.teardownTimer = time.AfterFunc(s.opts.CompletedGrace, func() {
		s.teardown(code)
	})
}

func (s *Service) newPlayerIDLocked(rm *Room) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		id, err := NewPlayerID()
		if err != nil {
			return "", fmt.Errorf("generate player id: %w", err)
		}
		if !rm.playerIDTakenLocked(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique player id")
}

func (s *Service) sendToConn(connID string, msg ws.Message) {
	if err := s.gateway.SendToConn(connID, msg); err != nil {
		s.logger.Warn().Err(err).Str("conn_id", connID).Str("type", msg.Type).Msg("send failed")
	}
}

func (s *Service) broadcast(code string, msg ws.Message) {
	if err := s.gateway.BroadcastToRoom(code, msg); err != nil {
		s.logger.Warn().Err(err).Str("room_code", code).Str("type", msg.Type).Msg("broadcast failed")
	}
}

// scoringPlayersLocked converts participants into the scoring package view.
func (r *Room) scoringPlayersLocked() []scoring.Player {
	players := make([]scoring.Player, len(r.participants))
	for i, p := range r.participants {
		answers := make([]scoring.Answer, len(p.Answers))
		for j, a := range p.Answers {
			answers[j] = scoring.Answer{QuestionIndex: a.QuestionIndex, IsCorrect: a.IsCorrect}
		}
		players[i] = scoring.Player{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			JoinSeq:  p.JoinSeq,
			Answers:  answers,
		}
	}
	return players
}

func (r *Room) leaderboardLocked(currentQuestionOnly bool) []ws.LeaderboardEntry {
	standings := scoring.Rank(r.scoringPlayersLocked(), r.QuestionIndex, currentQuestionOnly)
	entries := make([]ws.LeaderboardEntry, len(standings))
	for i, st := range standings {
		entries[i] = ws.LeaderboardEntry{
			Rank:     st.Rank,
			PlayerID: st.PlayerID,
			Name:     st.Name,
			Score:    st.Score,
		}
	}
	return entries
}

func (r *Room) questionPayloadLocked(now time.Time) ws.QuestionPayload {
	q := r.Quiz.Questions[r.QuestionIndex]
	durationMs := r.QuestionDuration.Milliseconds()
	remaining := durationMs - now.Sub(r.questionStartedAt).Milliseconds()
	if remaining < 0 {
		remaining = 0
	}
	return ws.QuestionPayload{
		QuestionIndex:  r.QuestionIndex,
		QuestionText:   q.Text,
		Options:        append([]string(nil), q.Options...),
		StartAt:        r.questionStartedAt.UnixMilli(),
		Duration:       durationMs,
		TimeRemaining:  remaining,
		TotalQuestions: len(r.Quiz.Questions),
	}
}
