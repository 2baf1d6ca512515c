package app

import (
	"olympiad-quiz-service/internal/domain"
)

// ApplyResult folds a finished quiz into the lifetime stats and returns the
// badge IDs whose conditions hold afterwards. It is pure: persistence and
// dedup against already-unlocked badges happen in the caller. Re-running it
// on the same inputs yields the same outputs.
func ApplyResult(stats domain.UserStats, result domain.QuizResult) (domain.UserStats, []domain.BadgeID) {
	pct := result.Percentage()

	stats.QuizzesCompleted++
	stats.TotalCorrectAnswers += result.Score

	day := result.Date.Format("2006-01-02")
	if !containsString(stats.CompletedOnDates, day) {
		stats.CompletedOnDates = append(stats.CompletedOnDates, day)
	}
	for _, topic := range result.Topics {
		if !containsString(stats.TopicsPracticed, topic) {
			stats.TopicsPracticed = append(stats.TopicsPracticed, topic)
		}
	}

	if pct >= 80 {
		stats.HotStreak++
	} else {
		stats.HotStreak = 0
	}
	if pct == 100 {
		stats.PerfectScores++
	}
	if result.IsMock {
		stats.MockExamsCompleted++
		if stats.MockExamScores == nil {
			stats.MockExamScores = make(map[domain.Subject][]float64)
		}
		stats.MockExamScores[result.Subject] = append(stats.MockExamScores[result.Subject], pct)
	}

	var earned []domain.BadgeID
	for _, def := range domain.BadgeDefs {
		if badgeSatisfied(def.ID, stats, result, pct) {
			earned = append(earned, def.ID)
		}
	}
	return stats, earned
}

// badgeSatisfied evaluates one unlock condition against the post-update stats
// and the result that triggered the evaluation.
func badgeSatisfied(id domain.BadgeID, stats domain.UserStats, result domain.QuizResult, pct float64) bool {
	switch id {
	case domain.BadgeFirstQuiz:
		return stats.QuizzesCompleted >= 1
	case domain.BadgePerfectScore:
		return pct == 100 && len(result.Questions) >= 10
	case domain.BadgeHotStreak:
		return stats.HotStreak >= 3
	case domain.BadgeSubjectSovereign:
		return pct > 90 && coversAllTopics(result)
	case domain.BadgeMockMaster:
		return result.IsMock
	case domain.BadgeQuickThinker:
		return len(result.Questions) > 0 && float64(result.TimeTaken)/float64(len(result.Questions)) < 45
	case domain.BadgeStudyHabit:
		return len(stats.CompletedOnDates) >= 5
	case domain.BadgeRevalidator:
		return stats.RevalidationUsed
	case domain.BadgeTopicExplorer:
		return stats.PracticedFromSuggestion
	case domain.BadgeCenturyClub:
		return stats.TotalCorrectAnswers >= 100
	case domain.BadgeQuizArchitect:
		return !result.IsMock && len(result.Questions) >= 25
	case domain.BadgeMarathoner:
		return !result.IsMock && len(result.Questions) >= 50
	case domain.BadgeBrainiac:
		return !result.IsMock && allHOTS(result.Questions)
	case domain.BadgeTopicTitan:
		return pct == 100 && len(result.Topics) == 1
	case domain.BadgePolymath:
		return len(stats.TopicsPracticed) >= 10
	case domain.BadgeExamAce:
		return result.IsMock && pct >= 85
	case domain.BadgeVeteranExaminer:
		return result.IsMock && len(stats.MockExamScores[result.Subject]) >= 3
	case domain.BadgeComebackKid:
		return result.IsMock && mockImproved(stats.MockExamScores[result.Subject])
	default:
		return false
	}
}

// BadgeProgress reports progress toward a counter-based badge. Badges that
// unlock on a single event have no meaningful progress and report ok=false.
func BadgeProgress(stats domain.UserStats, id domain.BadgeID) (current, target int, ok bool) {
	switch id {
	case domain.BadgeHotStreak:
		return min(stats.HotStreak, 3), 3, true
	case domain.BadgeCenturyClub:
		return min(stats.TotalCorrectAnswers, 100), 100, true
	case domain.BadgeStudyHabit:
		return min(len(stats.CompletedOnDates), 5), 5, true
	case domain.BadgePolymath:
		return min(len(stats.TopicsPracticed), 10), 10, true
	default:
		return 0, 0, false
	}
}

// coversAllTopics reports whether the result spanned the full topic list of
// its subject and grade.
func coversAllTopics(result domain.QuizResult) bool {
	all := domain.TopicsFor(result.Subject, result.Grade)
	if len(all) == 0 {
		return false
	}
	covered := make(map[string]struct{}, len(result.Topics))
	for _, t := range result.Topics {
		covered[t] = struct{}{}
	}
	for _, t := range all {
		if _, ok := covered[t]; !ok {
			return false
		}
	}
	return true
}

func allHOTS(questions []domain.Question) bool {
	if len(questions) == 0 {
		return false
	}
	for _, q := range questions {
		if q.Difficulty != domain.DifficultyHOTS {
			return false
		}
	}
	return true
}

// mockImproved reports whether the latest mock score beats the previous one
// by at least 10 percent.
func mockImproved(scores []float64) bool {
	if len(scores) < 2 {
		return false
	}
	previous := scores[len(scores)-2]
	latest := scores[len(scores)-1]
	return previous > 0 && latest >= previous*1.1
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
