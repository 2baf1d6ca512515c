package app

import (
	"sort"

	"olympiad-quiz-service/internal/domain"
)

// trendBand is the percentage-point margin within which two averages count
// as the same performance level.
const trendBand = 5.0

// DeriveTrends computes per-subject and per-topic performance trends from
// stored history. History is persisted newest first; trends are computed over
// the chronological order.
func DeriveTrends(history []domain.QuizResult) []domain.SubjectTrend {
	chronological := make([]domain.QuizResult, len(history))
	for i, r := range history {
		chronological[len(history)-1-i] = r
	}

	subjectScores := make(map[domain.Subject][]float64)
	topicScores := make(map[domain.Subject]map[string][]float64)
	for _, result := range chronological {
		subjectScores[result.Subject] = append(subjectScores[result.Subject], result.Percentage())

		if topicScores[result.Subject] == nil {
			topicScores[result.Subject] = make(map[string][]float64)
		}
		for topic, score := range topicAccuracy(result) {
			topicScores[result.Subject][topic] = append(topicScores[result.Subject][topic], score)
		}
	}

	subjects := make([]domain.Subject, 0, len(subjectScores))
	for subject := range subjectScores {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	trends := make([]domain.SubjectTrend, 0, len(subjects))
	for _, subject := range subjects {
		scores := subjectScores[subject]

		topics := make([]string, 0, len(topicScores[subject]))
		for topic := range topicScores[subject] {
			topics = append(topics, topic)
		}
		sort.Strings(topics)

		topicTrends := make([]domain.TopicTrend, 0, len(topics))
		for _, topic := range topics {
			topicTrends = append(topicTrends, domain.TopicTrend{
				Topic:  topic,
				Trend:  classifyTrend(topicScores[subject][topic]),
				Scores: topicScores[subject][topic],
			})
		}
		trends = append(trends, domain.SubjectTrend{
			Subject: subject,
			Trend:   classifyTrend(scores),
			Scores:  scores,
			Topics:  topicTrends,
		})
	}
	return trends
}

// topicAccuracy computes the per-topic percentage for one result. A topic
// contributes only when the result contains at least one of its questions.
func topicAccuracy(result domain.QuizResult) map[string]float64 {
	correct := make(map[string]int)
	total := make(map[string]int)
	for i, q := range result.Questions {
		total[q.Topic]++
		if result.Correct(i) {
			correct[q.Topic]++
		}
	}
	accuracy := make(map[string]float64, len(total))
	for topic, n := range total {
		accuracy[topic] = float64(correct[topic]) / float64(n) * 100
	}
	return accuracy
}

// classifyTrend compares the average of the older half of a score sequence
// against the newer half. Fewer than two scores cannot show a direction. The
// middle element of an odd-length sequence belongs to neither half.
func classifyTrend(scores []float64) domain.Trend {
	if len(scores) < 2 {
		return domain.TrendInsufficientData
	}
	half := len(scores) / 2
	older := average(scores[:half])
	newer := average(scores[len(scores)-half:])

	switch {
	case newer > older+trendBand:
		return domain.TrendImproving
	case newer < older-trendBand:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
