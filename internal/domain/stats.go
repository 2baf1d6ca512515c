package domain

// UserStats is the cumulative profile maintained incrementally as results
// arrive. It must be derivable by replaying history plus the externally
// triggered badge events, and counters never go negative.
type UserStats struct {
	QuizzesCompleted        int      `json:"quizzesCompleted"`
	PerfectScores           int      `json:"perfectScores"`
	HotStreak               int      `json:"hotStreak"`
	CompletedOnDates        []string `json:"completedOnDates"`
	TotalCorrectAnswers     int      `json:"totalCorrectAnswers"`
	MockExamsCompleted      int      `json:"mockExamsCompleted"`
	TopicsPracticed         []string `json:"topicsPracticed"`
	RevalidationUsed        bool     `json:"revalidationUsed"`
	PracticedFromSuggestion bool     `json:"practicedFromSuggestion"`
	// MockExamScores keeps per-subject mock percentages. History is capped at
	// ten entries, so the veteran/comeback rules cannot rely on it.
	MockExamScores map[Subject][]float64 `json:"mockExamScores"`
}

// Trend classifies a chronological score sequence.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
)

// TopicTrend is the derived performance indicator for one topic within a subject.
type TopicTrend struct {
	Topic  string    `json:"topic"`
	Trend  Trend     `json:"trend"`
	Scores []float64 `json:"scores"`
}

// SubjectTrend aggregates the subject-level trend and its per-topic breakdown.
type SubjectTrend struct {
	Subject Subject      `json:"subject"`
	Trend   Trend        `json:"trend"`
	Scores  []float64    `json:"scores"`
	Topics  []TopicTrend `json:"topics"`
}
