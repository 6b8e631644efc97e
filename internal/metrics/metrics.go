package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the room engine. All methods
// are nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	roomsActive        prometheus.Gauge
	participantsJoined prometheus.Counter
	answersSubmitted   prometheus.Counter
	questionsTimedOut  prometheus.Counter
	quizzesCompleted   prometheus.Counter
}

// New registers the room collectors on the default registry. Call once per
// process.
func New() *Metrics {
	return &Metrics{
		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizrooms",
			Name:      "rooms_active",
			Help:      "Live rooms currently registered.",
		}),
		participantsJoined: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizrooms",
			Name:      "participants_joined_total",
			Help:      "Participants that joined a room.",
		}),
		answersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizrooms",
			Name:      "answers_submitted_total",
			Help:      "Accepted answer submissions, including resubmissions.",
		}),
		questionsTimedOut: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizrooms",
			Name:      "questions_timed_out_total",
			Help:      "Questions advanced by timer expiry rather than the host.",
		}),
		quizzesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizrooms",
			Name:      "quizzes_completed_total",
			Help:      "Quiz sessions that reached completion.",
		}),
	}
}

func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.roomsActive.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.roomsActive.Dec()
}

func (m *Metrics) ParticipantJoined() {
	if m == nil {
		return
	}
	m.participantsJoined.Inc()
}

func (m *Metrics) AnswerSubmitted() {
	if m == nil {
		return
	}
	m.answersSubmitted.Inc()
}

func (m *Metrics) QuestionTimedOut() {
	if m == nil {
		return
	}
	m.questionsTimedOut.Inc()
}

func (m *Metrics) QuizCompleted() {
	if m == nil {
		return
	}
	m.quizzesCompleted.Inc()
}
