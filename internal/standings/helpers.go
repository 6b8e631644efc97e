package standings

import ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"

// toWireEntries ranks entries by their slice position and converts them to
// the wire shape shared by Pub/Sub, HTTP, and snapshots.
func toWireEntries(entries []Entry) []ws.StandingsEntry {
	result := make([]ws.StandingsEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.StandingsEntry{
			Rank:        i + 1,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Wins:        e.Wins,
			Games:       e.Games,
			Accuracy:    e.Accuracy,
		}
	}
	return result
}
