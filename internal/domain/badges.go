package domain

// BadgeID identifies an achievement. The unlocked set is monotonic: once a
// badge is unlocked it is never revoked.
type BadgeID string

const (
	BadgeFirstQuiz        BadgeID = "firstQuiz"
	BadgePerfectScore     BadgeID = "perfectScore"
	BadgeHotStreak        BadgeID = "hotStreak"
	BadgeSubjectSovereign BadgeID = "subjectSovereign"
	BadgeMockMaster       BadgeID = "mockMaster"
	BadgeQuickThinker     BadgeID = "quickThinker"
	BadgeStudyHabit       BadgeID = "studyHabit"
	BadgeRevalidator      BadgeID = "revalidator"
	BadgeTopicExplorer    BadgeID = "topicExplorer"
	BadgeCenturyClub      BadgeID = "centuryClub"
	BadgeQuizArchitect    BadgeID = "quizArchitect"
	BadgeMarathoner       BadgeID = "marathoner"
	BadgeBrainiac         BadgeID = "brainiac"
	BadgeTopicTitan       BadgeID = "topicTitan"
	BadgePolymath         BadgeID = "polymath"
	BadgeExamAce          BadgeID = "examAce"
	BadgeVeteranExaminer  BadgeID = "veteranExaminer"
	BadgeComebackKid      BadgeID = "comebackKid"
)

// Badge is the static definition of an achievement. Unlock conditions and
// progress reporting live in the app layer, keyed by ID.
type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// BadgeDefs is the full badge catalog in display order.
var BadgeDefs = []Badge{
	{BadgeFirstQuiz, "First Step", "Completed your very first quiz.", "🚀"},
	{BadgePerfectScore, "Perfectionist", "Achieved a perfect score on a quiz of 10+ questions.", "🎯"},
	{BadgeHotStreak, "Hot Streak", "Completed 3 quizzes in a row with a score of 80% or higher.", "🔥"},
	{BadgeSubjectSovereign, "Subject Sovereign", "Scored over 90% on a quiz covering every topic of a subject.", "👑"},
	{BadgeMockMaster, "Mock Master", "Completed a full-length mock exam.", "🏆"},
	{BadgeQuickThinker, "Quick Thinker", "Finished a quiz with an average of less than 45 seconds per question.", "⚡"},
	{BadgeStudyHabit, "Study Habit", "Completed a quiz on 5 different days.", "🗓️"},
	{BadgeRevalidator, "Fact Checker", "Used the question revalidation feature for the first time.", "✅"},
	{BadgeTopicExplorer, "Topic Explorer", "Practiced a topic from a suggestion on the report card.", "🗺️"},
	{BadgeCenturyClub, "Century Club", "Answered 100 questions correctly.", "💯"},
	{BadgeQuizArchitect, "Quiz Architect", "Completed a practice quiz of 25 or more questions.", "🏗️"},
	{BadgeMarathoner, "Marathoner", "Completed a practice quiz of 50 or more questions.", "🏃"},
	{BadgeBrainiac, "Brainiac", "Completed a practice quiz made entirely of HOTS questions.", "🧠"},
	{BadgeTopicTitan, "Topic Titan", "Scored 100% on a quiz covering exactly one topic.", "🗿"},
	{BadgePolymath, "Polymath", "Practiced 10 different topics.", "📚"},
	{BadgeExamAce, "Exam Ace", "Scored 85% or higher on a mock exam.", "🌟"},
	{BadgeVeteranExaminer, "Veteran Examiner", "Completed 3 mock exams for the same subject.", "🎖️"},
	{BadgeComebackKid, "Comeback Kid", "Improved a subject's mock score by 10% over the previous attempt.", "📈"},
}

// BadgeByID looks a badge up in the catalog.
func BadgeByID(id BadgeID) (Badge, bool) {
	for _, b := range BadgeDefs {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
