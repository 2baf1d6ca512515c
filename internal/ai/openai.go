package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	openai "github.com/sashabaranov/go-openai"

	"olympiad-quiz-service/internal/domain"
)

// questionProperties is the JSON-schema shape of a single question used in
// the function-calling contracts below.
var questionProperties = map[string]interface{}{
	"id": map[string]interface{}{
		"type":        "string",
		"description": "A unique identifier for the question",
	},
	"questionText": map[string]interface{}{
		"type":        "string",
		"description": "The main text of the question, using Unicode characters for mathematical symbols",
	},
	"options": map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Array of 4 multiple choice options",
	},
	"correctAnswerIndex": map[string]interface{}{
		"type":        "integer",
		"description": "0-based index of the correct answer",
	},
	"explanation": map[string]interface{}{
		"type":        "string",
		"description": "Step-by-step explanation of why the answer is correct",
	},
	"topic":      map[string]interface{}{"type": "string"},
	"subject":    map[string]interface{}{"type": "string"},
	"difficulty": map[string]interface{}{"type": "string"},
	"grade":      map[string]interface{}{"type": "integer"},
	"imageSvg": map[string]interface{}{
		"type":        "string",
		"description": "Optional self-contained SVG diagram",
	},
}

// OpenAIProvider is the fallback generative backend.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, req GenerationRequest) ([]domain.Question, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert Olympiad quiz question generator. Generate high-quality multiple choice questions with exactly 4 options each.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(req) + "\nUse the submit_questions tool to return your questions.",
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "submit_questions",
					Description: "Submit generated quiz questions",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"questions": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type":       "object",
									"properties": questionProperties,
									"required":   []string{"id", "questionText", "options", "correctAnswerIndex", "explanation", "topic"},
								},
							},
						},
						"required": []string{"questions"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "submit_questions"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}

	args, err := toolCallArguments(resp, "submit_questions")
	if err != nil {
		return nil, err
	}

	var toolArgs struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return nil, fmt.Errorf("parse openai tool arguments: %w", err)
	}

	questions := toolArgs.Questions
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = randomQuestionID()
		}
		if questions[i].Subject == "" {
			questions[i].Subject = req.Subject
		}
		if questions[i].Difficulty == "" {
			questions[i].Difficulty = req.Difficulty
		}
		if questions[i].Grade == 0 {
			questions[i].Grade = req.Grade
		}
	}
	return questions, nil
}

func (p *OpenAIProvider) Revalidate(ctx context.Context, q domain.Question) (domain.Question, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert quiz question fact-checker. Verify questions and correct any errors you find.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildRevalidationPrompt(q) + "\nUse the submit_validated_question tool to return the question.",
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "submit_validated_question",
					Description: "Submit the validated (corrected or confirmed) quiz question",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"question": map[string]interface{}{
								"type":       "object",
								"properties": questionProperties,
								"required":   []string{"id", "questionText", "options", "correctAnswerIndex", "explanation", "topic"},
							},
						},
						"required": []string{"question"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "submit_validated_question"},
		},
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("openai revalidate: %w", err)
	}

	args, err := toolCallArguments(resp, "submit_validated_question")
	if err != nil {
		return domain.Question{}, err
	}

	var toolArgs struct {
		Question domain.Question `json:"question"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return domain.Question{}, fmt.Errorf("parse openai tool arguments: %w", err)
	}
	checked := toolArgs.Question
	if checked.Subject == "" {
		checked.Subject = q.Subject
	}
	if checked.Difficulty == "" {
		checked.Difficulty = q.Difficulty
	}
	if checked.Grade == 0 {
		checked.Grade = q.Grade
	}
	return checked, nil
}

func (p *OpenAIProvider) Suggest(ctx context.Context, grade domain.Grade, topics []string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildSuggestionPrompt(grade, topics),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai suggest: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned an empty suggestion")
	}
	return resp.Choices[0].Message.Content, nil
}

func toolCallArguments(resp openai.ChatCompletionResponse, name string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from openai")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return "", fmt.Errorf("no tool calls in openai response")
	}
	if calls[0].Function.Name != name {
		return "", fmt.Errorf("unexpected tool call: %s", calls[0].Function.Name)
	}
	return calls[0].Function.Arguments, nil
}

func randomQuestionID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
