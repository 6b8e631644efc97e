package scoring

import "sort"

// Answer is the slice of an answer record that scoring needs
// (duplicated here to avoid an import cycle with the room package).
type Answer struct {
	QuestionIndex int
	IsCorrect     bool
}

// Player carries identity and join order into the ranking.
type Player struct {
	PlayerID string
	Name     string
	JoinSeq  int
	Answers  []Answer
}

// Standing is one ranked leaderboard row.
type Standing struct {
	Rank     int
	PlayerID string
	Name     string
	Score    int
}

// Score counts correct answers. Timing never contributes to the score.
func Score(answers []Answer) int {
	total := 0
	for _, a := range answers {
		if a.IsCorrect {
			total++
		}
	}
	return total
}

// ScoreAt counts correctness for a single question index (0 or 1).
func ScoreAt(answers []Answer, questionIndex int) int {
	for _, a := range answers {
		if a.QuestionIndex == questionIndex && a.IsCorrect {
			return 1
		}
	}
	return 0
}

// Rank orders players by score descending with ties broken by join order.
// Zero-score players are always included. When currentQuestionOnly is set,
// only the given question index counts toward the score.
func Rank(players []Player, questionIndex int, currentQuestionOnly bool) []Standing {
	type row struct {
		standing Standing
		joinSeq  int
	}
	rows := make([]row, len(players))
	for i, p := range players {
		score := Score(p.Answers)
		if currentQuestionOnly {
			score = ScoreAt(p.Answers, questionIndex)
		}
		rows[i] = row{
			standing: Standing{PlayerID: p.PlayerID, Name: p.Name, Score: score},
			joinSeq:  p.JoinSeq,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].standing.Score != rows[j].standing.Score {
			return rows[i].standing.Score > rows[j].standing.Score
		}
		return rows[i].joinSeq < rows[j].joinSeq
	})

	standings := make([]Standing, len(rows))
	for i, r := range rows {
		r.standing.Rank = i + 1
		standings[i] = r.standing
	}
	return standings
}
