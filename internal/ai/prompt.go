package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"olympiad-quiz-service/internal/domain"
)

// buildGenerationPrompt renders the batch-generation instructions shared by
// both providers. HOTS requests switch into a distinct higher-order-reasoning
// mode rather than just naming a harder difficulty.
func buildGenerationPrompt(req GenerationRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate %d quiz questions for a Grade %d student preparing for the %s Olympiad exam.\n",
		req.Count, req.Grade, req.Subject)
	fmt.Fprintf(&sb, "The questions should cover the following topics: %s.\n", strings.Join(req.Topics, ", "))

	if req.Difficulty == domain.DifficultyHOTS {
		sb.WriteString("Difficulty mode: HOTS (Higher-Order Thinking Skills, Achiever Section).\n")
		sb.WriteString("Every question must require multi-step reasoning: combining two or more concepts, ")
		sb.WriteString("applying principles to unfamiliar scenarios, or working backwards from a result. ")
		sb.WriteString("A question that only tests recall or a single computation is not acceptable in this mode.\n")
	} else {
		fmt.Fprintf(&sb, "The difficulty level must be: %s.\n", req.Difficulty)
	}

	sb.WriteString("Ensure all questions are unique and factually correct.\n")
	sb.WriteString("Each question must have exactly 4 options with exactly one correct answer, ")
	sb.WriteString("a 0-based correctAnswerIndex, and a step-by-step explanation.\n")
	sb.WriteString("Use proper mathematical and scientific symbols using Unicode characters that render directly in HTML ")
	sb.WriteString("(e.g. × for multiplication, ÷ for division, √ for square root, ² for exponents, ° for degrees).\n")
	sb.WriteString("If a question requires a diagram, generate a clean, simple, and accurate self-contained SVG string ")
	sb.WriteString("and include it in the 'imageSvg' field. Do not reference external image URLs.\n")

	if len(req.ExcludedIDs) > 0 {
		fmt.Fprintf(&sb, "Do not repeat questions with the following IDs: %s.\n", strings.Join(req.ExcludedIDs, ", "))
	}

	return sb.String()
}

// buildRevalidationPrompt renders the fact-check instructions for a single
// question. The provider must return the full corrected object, or the
// identical object when the question is already correct.
func buildRevalidationPrompt(q domain.Question) string {
	encoded, _ := json.Marshal(q)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert fact-checker and editor for Grade %d Olympiad quiz questions. ", q.Grade)
	sb.WriteString("Meticulously review the following JSON object representing a quiz question.\n")
	sb.WriteString("- Check the 'questionText' for any factual inaccuracies, grammatical errors, or ambiguities.\n")
	sb.WriteString("- Verify that the 'options' are plausible but that only one is correct.\n")
	sb.WriteString("- Ensure the 'correctAnswerIndex' correctly points to the right answer.\n")
	sb.WriteString("- Validate that the 'explanation' is clear, accurate, and properly justifies the correct answer.\n")
	sb.WriteString("If you find ANY error, correct it and return the entire, updated JSON object.\n")
	sb.WriteString("If the question is 100% correct, return the original JSON object unchanged.\n")
	sb.WriteString("Never change the 'id' field.\n")
	sb.WriteString("The question to validate is:\n")
	sb.Write(encoded)
	return sb.String()
}

// buildSuggestionPrompt renders the weak-area analysis request used by the
// report card.
func buildSuggestionPrompt(grade domain.Grade, topics []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A Grade %d student preparing for the Olympiad exams answered some questions incorrectly.\n", grade)
	fmt.Fprintf(&sb, "Here are the topics of the questions they got wrong: %s.\n\n", strings.Join(topics, ", "))
	sb.WriteString("Based on these topics, provide a concise analysis of their weak areas and suggest 3-4 specific, ")
	sb.WriteString("actionable areas for improvement. Format the response as a markdown string. ")
	sb.WriteString("Start with a heading \"Areas for Improvement\". Use bullet points for the suggestions.\n")
	return sb.String()
}
