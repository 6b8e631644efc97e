package ws

import "encoding/json"

// MessageType constants for the room WebSocket protocol.
const (
	// Client -> Server
	TypeCreateRoom     = "create-room"
	TypeJoinRoom       = "join-room"
	TypeStartQuiz      = "start-quiz"
	TypeSubmitAnswer   = "submit-answer"
	TypeNextQuiz       = "next-quiz"
	TypeGetLeaderboard = "get-leaderboard"

	// Server -> Client
	TypeRoomCreated        = "room-created"
	TypeRoomJoined         = "room-joined"
	TypeParticipantJoined  = "participant-joined"
	TypeParticipantLeft    = "participant-left"
	TypeRoomCancelled      = "room-cancelled"
	TypeQuizStarted        = "quiz-started"
	TypeNextQuestion       = "next-question"
	TypeAnswerSubmitted    = "answer-submitted"
	TypeLeaderboardUpdated = "leaderboard-updated"
	TypeQuizCompleted      = "quiz-completed"
	TypeStandingsUpdated   = "standings-updated"
	TypeError              = "error"
)

// Message wraps all WebSocket payloads with an event type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client Messages (incoming)

type CreateRoomPayload struct {
	QuizID           string `json:"quizId"`
	QuestionDuration int64  `json:"questionDuration,omitempty"` // ms, optional override
}

type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type StartQuizPayload struct {
	RoomCode string `json:"roomCode"`
}

type SubmitAnswerPayload struct {
	RoomCode        string `json:"roomCode"`
	Answer          int    `json:"answer"`
	ClientTimeTaken *int64 `json:"clientTimeTaken,omitempty"` // ms, display only
}

type NextQuizPayload struct {
	RoomCode string `json:"roomCode"`
}

type GetLeaderboardPayload struct {
	RoomCode            string `json:"roomCode"`
	CurrentQuestionOnly bool   `json:"currentQuestionOnly,omitempty"`
}

// Server Messages (outgoing)

type RoomCreatedPayload struct {
	RoomCode       string `json:"roomCode"`
	GameSessionID  string `json:"gameSessionId"`
	QuizTitle      string `json:"quizTitle"`
	TotalQuestions int    `json:"totalQuestions"`
}

type ParticipantInfo struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"isHost"`
}

type RoomJoinedPayload struct {
	PlayerID         string            `json:"playerId"`
	GameSessionID    string            `json:"gameSessionId"`
	ParticipantCount int               `json:"participantCount"`
	Participants     []ParticipantInfo `json:"participants"`
}

type ParticipantJoinedPayload struct {
	PlayerID         string            `json:"playerId"`
	Name             string            `json:"name"`
	ParticipantCount int               `json:"participantCount"`
	Participants     []ParticipantInfo `json:"participants"`
}

type ParticipantLeftPayload struct {
	PlayerID         string `json:"playerId"`
	Name             string `json:"name"`
	ParticipantCount int    `json:"participantCount"`
}

type RoomCancelledPayload struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

// QuestionPayload never carries the correct option.
type QuestionPayload struct {
	QuestionIndex  int      `json:"questionIndex"`
	QuestionText   string   `json:"questionText"`
	Options        []string `json:"options"`
	StartAt        int64    `json:"startAt"`       // epoch ms
	Duration       int64    `json:"duration"`      // ms
	TimeRemaining  int64    `json:"timeRemaining"` // ms
	TotalQuestions int      `json:"totalQuestions"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type QuizStartedPayload struct {
	Question      QuestionPayload    `json:"question"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	GameSessionID string             `json:"gameSessionId"`
}

type NextQuestionPayload struct {
	Question    QuestionPayload    `json:"question"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type AnswerSubmittedPayload struct {
	IsCorrect       bool   `json:"isCorrect"`
	TimeSpent       int64  `json:"timeSpent"`       // ms, display value
	ServerTimeSpent int64  `json:"serverTimeSpent"` // ms, authoritative
	CurrentScore    int    `json:"currentScore"`
	PlayerID        string `json:"playerId"`
}

type LeaderboardUpdatedPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type AnswerView struct {
	QuestionIndex int   `json:"questionIndex"`
	Answer        int   `json:"answer"`
	IsCorrect     bool  `json:"isCorrect"`
	TimeTaken     int64 `json:"timeTaken"` // ms
}

type ParticipantResult struct {
	Name    string       `json:"name"`
	Score   int          `json:"score"`
	Answers []AnswerView `json:"answers"`
}

type QuizResults struct {
	QuizTitle      string              `json:"quizTitle"`
	TotalQuestions int                 `json:"totalQuestions"`
	Participants   []ParticipantResult `json:"participants"`
	CompletionTime string              `json:"completionTime"`
	DurationMs     int64               `json:"durationMs"`
}

type QuizCompletedPayload struct {
	Results QuizResults `json:"results"`
}

// StandingsEntry is one row of the global standings, pushed to every
// connection after a game feeds the aggregates.
type StandingsEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Score       int     `json:"score"`
	Wins        int     `json:"wins"`
	Games       int     `json:"games"`
	Accuracy    float64 `json:"accuracy"`
}

type StandingsUpdatePayload struct {
	Window string           `json:"window"`
	GameID string           `json:"gameId"`
	Top    []StandingsEntry `json:"top"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage marshals a payload into a typed message.
func NewMessage(msgType string, payload interface{}) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{"message":"internal encoding error"}`)
		msgType = TypeError
	}
	return Message{Type: msgType, Payload: data}
}
