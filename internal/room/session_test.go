package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/quiz"
	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

type sentRecord struct {
	target string
	msg    ws.Message
}

// fakeGateway records everything the engine sends. Timer callbacks run on
// their own goroutines, so access is mutexed.
type fakeGateway struct {
	mu      sync.Mutex
	sends   []sentRecord
	casts   []sentRecord
	joined  []string
	dropped []string
}

func (g *fakeGateway) SendToConn(connID string, msg ws.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, sentRecord{target: connID, msg: msg})
	return nil
}

func (g *fakeGateway) BroadcastToRoom(roomCode string, msg ws.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.casts = append(g.casts, sentRecord{target: roomCode, msg: msg})
	return nil
}

func (g *fakeGateway) JoinRoom(roomCode, connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.joined = append(g.joined, connID)
}

func (g *fakeGateway) LeaveRoom(roomCode, connID string) {}

func (g *fakeGateway) DropRoom(roomCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dropped = append(g.dropped, roomCode)
}

func (g *fakeGateway) broadcasts(msgType string) []ws.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []ws.Message
	for _, c := range g.casts {
		if c.msg.Type == msgType {
			out = append(out, c.msg)
		}
	}
	return out
}

func (g *fakeGateway) sendsTo(connID, msgType string) []ws.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []ws.Message
	for _, s := range g.sends {
		if s.target == connID && s.msg.Type == msgType {
			out = append(out, s.msg)
		}
	}
	return out
}

func (g *fakeGateway) joinedConns() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.joined...)
}

func (g *fakeGateway) droppedRooms() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.dropped...)
}

type fakeQuizzes struct {
	snap *quiz.Snapshot
	err  error
}

func (f *fakeQuizzes) Snapshot(ctx context.Context, id uuid.UUID) (*quiz.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap.Clone(), nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	games []CompletedGame
}

func (f *fakeRecorder) RecordCompletedGame(ctx context.Context, game CompletedGame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, game)
	return nil
}

func (f *fakeRecorder) recordedGames() []CompletedGame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletedGame(nil), f.games...)
}

type engineFixture struct {
	svc      *Service
	gateway  *fakeGateway
	recorder *fakeRecorder
	registry *Registry
	quizzes  *fakeQuizzes
}

func newEngine(t *testing.T, opts Options) *engineFixture {
	t.Helper()
	logger := zerolog.Nop()
	fx := &engineFixture{
		gateway:  &fakeGateway{},
		recorder: &fakeRecorder{},
		registry: NewRegistry(logger),
		quizzes:  &fakeQuizzes{snap: sampleSnapshot()},
	}
	fx.svc = NewService(fx.registry, fx.quizzes, fx.gateway, fx.recorder, nil, logger, opts)
	return fx
}

// slowOpts keeps every timer far beyond test runtime.
func slowOpts() Options {
	return Options{
		Capacity:         8,
		QuestionDuration: 30 * time.Second,
		MinDuration:      time.Second,
		MaxDuration:      time.Minute,
		CompletedGrace:   time.Minute,
	}
}

func sampleSnapshot() *quiz.Snapshot {
	return &quiz.Snapshot{
		QuizID: uuid.New(),
		Title:  "World Capitals",
		Questions: []quiz.Question{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectIndex: 0},
			{Text: "Capital of Japan?", Options: []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"}, CorrectIndex: 2},
			{Text: "Capital of Ghana?", Options: []string{"Lagos", "Accra", "Dakar", "Abuja"}, CorrectIndex: 1},
		},
	}
}

func singleQuestionSnapshot() *quiz.Snapshot {
	return &quiz.Snapshot{
		QuizID: uuid.New(),
		Title:  "One Question",
		Questions: []quiz.Question{
			{Text: "2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1},
		},
	}
}

func hostIdentity() *Identity {
	return &Identity{UserID: uuid.New(), DisplayName: "Hosty"}
}

func (fx *engineFixture) createRoom(t *testing.T) *Room {
	t.Helper()
	rm, err := fx.svc.CreateRoom(context.Background(), hostIdentity(), fx.quizzes.snap.QuizID, 0)
	require.NoError(t, err)
	return rm
}

func (fx *engineFixture) join(t *testing.T, code, connID, name string) *Participant {
	t.Helper()
	p, err := fx.svc.JoinRoom(code, connID, name, nil)
	require.NoError(t, err)
	return p
}

func TestCreateRoomRequiresIdentity(t *testing.T) {
	fx := newEngine(t, slowOpts())
	_, err := fx.svc.CreateRoom(context.Background(), nil, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestCreateRoomValidatesDuration(t *testing.T) {
	fx := newEngine(t, slowOpts())
	ctx := context.Background()

	_, err := fx.svc.CreateRoom(ctx, hostIdentity(), fx.quizzes.snap.QuizID, 500*time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = fx.svc.CreateRoom(ctx, hostIdentity(), fx.quizzes.snap.QuizID, 2*time.Minute)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	rm, err := fx.svc.CreateRoom(ctx, hostIdentity(), fx.quizzes.snap.QuizID, 0)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, rm.QuestionDuration, "zero duration falls back to the default")
}

func TestCreateRoomUnknownQuiz(t *testing.T) {
	fx := newEngine(t, slowOpts())
	fx.quizzes.err = quiz.ErrNotFound

	_, err := fx.svc.CreateRoom(context.Background(), hostIdentity(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestCreateRoomStartsInLobby(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)

	assert.Equal(t, StateLobby, rm.State)
	assert.Equal(t, -1, rm.QuestionIndex)
	assert.NotEmpty(t, rm.Code)
	assert.NotEqual(t, uuid.Nil, rm.GameSessionID)
	assert.Equal(t, 1, fx.registry.Len())
}

func TestJoinRoomFirstJoinerBecomesHost(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)

	host := fx.join(t, rm.Code, "conn-1", "Alice")
	assert.Equal(t, host.PlayerID, rm.HostPlayerID)

	second := fx.join(t, rm.Code, "conn-2", "Bob")
	assert.NotEqual(t, second.PlayerID, rm.HostPlayerID)
	assert.Equal(t, []string{"conn-1", "conn-2"}, fx.gateway.joinedConns())

	joinedMsgs := fx.gateway.sendsTo("conn-2", ws.TypeRoomJoined)
	require.Len(t, joinedMsgs, 1)
	var joined ws.RoomJoinedPayload
	require.NoError(t, json.Unmarshal(joinedMsgs[0].Payload, &joined))
	assert.Equal(t, second.PlayerID, joined.PlayerID)
	assert.Equal(t, rm.GameSessionID.String(), joined.GameSessionID)
	assert.Equal(t, 2, joined.ParticipantCount)
	require.Len(t, joined.Participants, 2)
	assert.True(t, joined.Participants[0].IsHost)
	assert.False(t, joined.Participants[1].IsHost)

	assert.Len(t, fx.gateway.broadcasts(ws.TypeParticipantJoined), 2)
}

func TestJoinRoomCapacity(t *testing.T) {
	opts := slowOpts()
	opts.Capacity = 2
	fx := newEngine(t, opts)
	rm := fx.createRoom(t)

	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")
	_, err := fx.svc.JoinRoom(rm.Code, "c3", "Carol", nil)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinRoomDuplicateConnection(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)

	fx.join(t, rm.Code, "c1", "Alice")
	_, err := fx.svc.JoinRoom(rm.Code, "c1", "Alice again", nil)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestJoinRoomUnknownCode(t *testing.T) {
	fx := newEngine(t, slowOpts())
	_, err := fx.svc.JoinRoom("NOPE42", "c1", "Alice", nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinAfterStartRejected(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	_, err := fx.svc.JoinRoom(rm.Code, "c2", "Bob", nil)
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestStartQuizHostOnly(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")

	assert.ErrorIs(t, fx.svc.StartQuiz(rm.Code, "c2"), ErrNotHost)
	assert.ErrorIs(t, fx.svc.StartQuiz(rm.Code, "ghost"), ErrParticipantNotFound)

	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	started := fx.gateway.broadcasts(ws.TypeQuizStarted)
	require.Len(t, started, 1)
	var payload ws.QuizStartedPayload
	require.NoError(t, json.Unmarshal(started[0].Payload, &payload))
	assert.Equal(t, 0, payload.Question.QuestionIndex)
	assert.Equal(t, "Capital of France?", payload.Question.QuestionText)
	assert.Equal(t, 3, payload.Question.TotalQuestions)
	assert.Len(t, payload.Question.Options, 4)
	assert.Len(t, payload.Leaderboard, 2)

	assert.ErrorIs(t, fx.svc.StartQuiz(rm.Code, "c1"), ErrQuizInProgress)
}

func TestSubmitAnswerScoring(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil))
	acks := fx.gateway.sendsTo("c1", ws.TypeAnswerSubmitted)
	require.Len(t, acks, 1)
	var ack ws.AnswerSubmittedPayload
	require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
	assert.True(t, ack.IsCorrect)
	assert.Equal(t, 1, ack.CurrentScore)

	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c2", 3, nil))
	acks = fx.gateway.sendsTo("c2", ws.TypeAnswerSubmitted)
	require.Len(t, acks, 1)
	require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
	assert.False(t, ack.IsCorrect)
	assert.Equal(t, 0, ack.CurrentScore)

	assert.Len(t, fx.gateway.broadcasts(ws.TypeLeaderboardUpdated), 2,
		"every accepted submission rebroadcasts the leaderboard")
}

func TestSubmitAnswerLifecycleErrors(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")

	assert.ErrorIs(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil), ErrQuizNotStarted)

	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))
	assert.ErrorIs(t, fx.svc.SubmitAnswer(rm.Code, "ghost", 0, nil), ErrParticipantNotFound)
	assert.ErrorIs(t, fx.svc.SubmitAnswer(rm.Code, "c1", 9, nil), ErrInvalidOption)
	assert.ErrorIs(t, fx.svc.SubmitAnswer(rm.Code, "c1", -3, nil), ErrInvalidOption)
}

func TestResubmissionReplacesAnswer(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil)) // correct
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 1, nil)) // wrong
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil)) // correct again

	acks := fx.gateway.sendsTo("c1", ws.TypeAnswerSubmitted)
	require.Len(t, acks, 3)
	scores := make([]int, 3)
	for i, m := range acks {
		var ack ws.AnswerSubmittedPayload
		require.NoError(t, json.Unmarshal(m.Payload, &ack))
		scores[i] = ack.CurrentScore
	}
	assert.Equal(t, []int{1, 0, 1}, scores)

	rm.mu.Lock()
	p := rm.byConn["c1"]
	require.Len(t, p.Answers, 1, "resubmission must replace, not append")
	assert.Equal(t, 0, p.Answers[0].Answer)
	assert.Equal(t, 1, p.Score)
	rm.mu.Unlock()
}

func TestClientElapsedDisplay(t *testing.T) {
	fx := newEngine(t, slowOpts())
	base := time.Now()
	current := base
	fx.svc.now = func() time.Time { return current }

	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	current = base.Add(2 * time.Second)

	plausible := int64(2500)
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, &plausible))
	acks := fx.gateway.sendsTo("c1", ws.TypeAnswerSubmitted)
	require.Len(t, acks, 1)
	var ack ws.AnswerSubmittedPayload
	require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
	assert.Equal(t, int64(2500), ack.TimeSpent, "plausible client time is shown")
	assert.Equal(t, int64(2000), ack.ServerTimeSpent)

	implausible := int64(9000)
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, &implausible))
	acks = fx.gateway.sendsTo("c1", ws.TypeAnswerSubmitted)
	require.Len(t, acks, 2)
	require.NoError(t, json.Unmarshal(acks[1].Payload, &ack))
	assert.Equal(t, int64(2000), ack.TimeSpent, "implausible client time falls back to the server clock")
	assert.Equal(t, int64(2000), ack.ServerTimeSpent)
}

func TestAdvanceMovesToNextQuestion(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	assert.ErrorIs(t, fx.svc.Advance(rm.Code, "c2"), ErrNotHost)
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	next := fx.gateway.broadcasts(ws.TypeNextQuestion)
	require.Len(t, next, 1)
	var payload ws.NextQuestionPayload
	require.NoError(t, json.Unmarshal(next[0].Payload, &payload))
	assert.Equal(t, 1, payload.Question.QuestionIndex)
	assert.Equal(t, "Capital of Japan?", payload.Question.QuestionText)

	// Neither player answered, so both got the no-answer sentinel.
	rm.mu.Lock()
	for _, p := range rm.participants {
		require.Len(t, p.Answers, 1)
		assert.Equal(t, NoAnswer, p.Answers[0].Answer)
		assert.False(t, p.Answers[0].IsCorrect)
	}
	rm.mu.Unlock()
}

func TestAdvanceBeforeStart(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")

	assert.ErrorIs(t, fx.svc.Advance(rm.Code, "c1"), ErrQuizNotStarted)
}

func TestQuizCompletionRanksAndRecords(t *testing.T) {
	fx := newEngine(t, slowOpts())

	alice := &Identity{UserID: uuid.New(), DisplayName: "Alice"}
	bob := &Identity{UserID: uuid.New(), DisplayName: "Bob", IsGuest: true}

	rm, err := fx.svc.CreateRoom(context.Background(), alice, fx.quizzes.snap.QuizID, 0)
	require.NoError(t, err)

	_, err = fx.svc.JoinRoom(rm.Code, "c1", "Alice", alice)
	require.NoError(t, err)
	_, err = fx.svc.JoinRoom(rm.Code, "c2", "Bob", bob)
	require.NoError(t, err)
	fx.join(t, rm.Code, "c3", "Carl") // anonymous

	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	// Q0: Alice correct, Bob wrong, Carl silent.
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil))
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c2", 1, nil))
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	// Q1: Alice and Bob correct.
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 2, nil))
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c2", 2, nil))
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	// Q2: nobody answers correctly.
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c2", 0, nil))
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	completed := fx.gateway.broadcasts(ws.TypeQuizCompleted)
	require.Len(t, completed, 1)
	var payload ws.QuizCompletedPayload
	require.NoError(t, json.Unmarshal(completed[0].Payload, &payload))
	assert.Equal(t, "World Capitals", payload.Results.QuizTitle)
	assert.Equal(t, 3, payload.Results.TotalQuestions)
	require.Len(t, payload.Results.Participants, 3)
	assert.Equal(t, "Alice", payload.Results.Participants[0].Name)
	assert.Equal(t, 2, payload.Results.Participants[0].Score)
	assert.Equal(t, "Bob", payload.Results.Participants[1].Name)
	assert.Equal(t, 1, payload.Results.Participants[1].Score)
	assert.Equal(t, "Carl", payload.Results.Participants[2].Name)
	assert.Equal(t, 0, payload.Results.Participants[2].Score)
	for _, pr := range payload.Results.Participants {
		assert.Len(t, pr.Answers, 3, "every player gets one record per question")
	}

	games := fx.recorder.recordedGames()
	require.Len(t, games, 1)
	g := games[0]
	assert.Equal(t, rm.GameSessionID, g.GameSessionID)
	assert.Equal(t, rm.Code, g.RoomCode)
	assert.Equal(t, "World Capitals", g.QuizTitle)
	require.Len(t, g.Players, 3)

	winner := g.Players[0]
	assert.Equal(t, 1, winner.Rank)
	assert.True(t, winner.Won)
	require.NotNil(t, winner.UserID)
	assert.Equal(t, alice.UserID, *winner.UserID)
	assert.False(t, winner.IsGuest)
	assert.Equal(t, 3, winner.Questions)

	assert.True(t, g.Players[1].IsGuest)
	assert.False(t, g.Players[1].Won)
	assert.Nil(t, g.Players[2].UserID)

	assert.ErrorIs(t, fx.svc.Advance(rm.Code, "c1"), ErrQuizFinished)
	assert.ErrorIs(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil), ErrQuestionNotOpen)
}

func TestQuestionTimerAutoAdvances(t *testing.T) {
	opts := Options{
		Capacity:         4,
		QuestionDuration: 40 * time.Millisecond,
		MinDuration:      10 * time.Millisecond,
		MaxDuration:      time.Second,
		CompletedGrace:   time.Minute,
	}
	fx := newEngine(t, opts)
	rm, err := fx.svc.CreateRoom(context.Background(), hostIdentity(), fx.quizzes.snap.QuizID, 40*time.Millisecond)
	require.NoError(t, err)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	// Nobody answers; every question expires on its own.
	assert.Eventually(t, func() bool {
		return len(fx.gateway.broadcasts(ws.TypeQuizCompleted)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, fx.gateway.broadcasts(ws.TypeNextQuestion), 2)

	games := fx.recorder.recordedGames()
	require.Len(t, games, 1)
	require.Len(t, games[0].Players, 1)
	assert.Equal(t, 0, games[0].Players[0].Score)
}

func TestStaleTimerCallbackIgnored(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))

	// A callback for a question that is no longer open must do nothing.
	fx.svc.questionExpired(rm.Code, 2)

	rm.mu.Lock()
	assert.Equal(t, StateQuestionActive, rm.State)
	assert.Equal(t, 0, rm.QuestionIndex)
	rm.mu.Unlock()
	assert.Empty(t, fx.gateway.broadcasts(ws.TypeNextQuestion))
}

func TestHostLeaveCancelsRoom(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")

	fx.svc.Leave(rm.Code, "c1")

	cancelled := fx.gateway.broadcasts(ws.TypeRoomCancelled)
	require.Len(t, cancelled, 1)
	var payload ws.RoomCancelledPayload
	require.NoError(t, json.Unmarshal(cancelled[0].Payload, &payload))
	assert.Equal(t, "host left the room", payload.Reason)
	assert.Equal(t, 0, fx.registry.Len())
	assert.Equal(t, []string{rm.Code}, fx.gateway.droppedRooms())
}

func TestNonHostLeaveKeepsRoomAlive(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")

	fx.svc.Leave(rm.Code, "c2")

	left := fx.gateway.broadcasts(ws.TypeParticipantLeft)
	require.Len(t, left, 1)
	var payload ws.ParticipantLeftPayload
	require.NoError(t, json.Unmarshal(left[0].Payload, &payload))
	assert.Equal(t, "Bob", payload.Name)
	assert.Equal(t, 1, payload.ParticipantCount)
	assert.Equal(t, 1, fx.registry.Len())
	assert.Empty(t, fx.gateway.droppedRooms())
}

func TestEmptiedCompletedRoomDrops(t *testing.T) {
	fx := newEngine(t, slowOpts())
	fx.quizzes.snap = singleQuestionSnapshot()
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	// Host departure after completion must not cancel.
	fx.svc.Leave(rm.Code, "c1")
	assert.Empty(t, fx.gateway.broadcasts(ws.TypeRoomCancelled))
	assert.Equal(t, 1, fx.registry.Len())

	fx.svc.Leave(rm.Code, "c2")
	assert.Equal(t, 0, fx.registry.Len())
	assert.Empty(t, fx.gateway.broadcasts(ws.TypeRoomCancelled))
	assert.Equal(t, []string{rm.Code}, fx.gateway.droppedRooms())
}

func TestCompletedRoomTornDownAfterGrace(t *testing.T) {
	opts := slowOpts()
	opts.CompletedGrace = 30 * time.Millisecond
	fx := newEngine(t, opts)
	fx.quizzes.snap = singleQuestionSnapshot()
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))
	require.NoError(t, fx.svc.Advance(rm.Code, "c1"))

	require.Equal(t, 1, fx.registry.Len())
	assert.Eventually(t, func() bool {
		return fx.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{rm.Code}, fx.gateway.droppedRooms())
}

func TestSweeperCancelsIdleRooms(t *testing.T) {
	opts := slowOpts()
	opts.SweepInterval = 20 * time.Millisecond
	opts.StaleAge = 30 * time.Millisecond
	fx := newEngine(t, opts)
	fx.createRoom(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fx.svc.RunSweeper(ctx)

	assert.Eventually(t, func() bool {
		return fx.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancelled := fx.gateway.broadcasts(ws.TypeRoomCancelled)
	require.Len(t, cancelled, 1)
	var payload ws.RoomCancelledPayload
	require.NoError(t, json.Unmarshal(cancelled[0].Payload, &payload))
	assert.Equal(t, "room expired", payload.Reason)
}

func TestIsMember(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	fx.join(t, rm.Code, "c1", "Alice")

	assert.True(t, fx.svc.IsMember(rm.Code, "c1"))
	assert.False(t, fx.svc.IsMember(rm.Code, "ghost"))
	assert.False(t, fx.svc.IsMember("ZZZZZZ", "c1"))
}

func TestLeaderboardOnDemand(t *testing.T) {
	fx := newEngine(t, slowOpts())
	rm := fx.createRoom(t)
	host := fx.join(t, rm.Code, "c1", "Alice")
	fx.join(t, rm.Code, "c2", "Bob")
	require.NoError(t, fx.svc.StartQuiz(rm.Code, "c1"))
	require.NoError(t, fx.svc.SubmitAnswer(rm.Code, "c1", 0, nil))

	require.NoError(t, fx.svc.Leaderboard(rm.Code, "c2", false))

	msgs := fx.gateway.sendsTo("c2", ws.TypeLeaderboardUpdated)
	require.Len(t, msgs, 1)
	var payload ws.LeaderboardUpdatedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	require.Len(t, payload.Leaderboard, 2)
	assert.Equal(t, host.PlayerID, payload.Leaderboard[0].PlayerID)
	assert.Equal(t, 1, payload.Leaderboard[0].Score)

	assert.ErrorIs(t, fx.svc.Leaderboard(rm.Code, "ghost", false), ErrParticipantNotFound)
}
