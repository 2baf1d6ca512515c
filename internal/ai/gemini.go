package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"olympiad-quiz-service/internal/domain"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

var geminiQuestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"id": {
			Type:        genai.TypeString,
			Description: "A unique identifier for the question, can be a short hash of the question text.",
		},
		"questionText": {
			Type:        genai.TypeString,
			Description: "The main text of the question, using Unicode characters for mathematical symbols.",
		},
		"options": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "An array of 4 string options for the multiple-choice question.",
		},
		"correctAnswerIndex": {
			Type:        genai.TypeInteger,
			Description: "The 0-based index of the correct answer in the options array.",
		},
		"explanation": {
			Type:        genai.TypeString,
			Description: "A detailed step-by-step explanation for why the correct answer is right.",
		},
		"topic":      {Type: genai.TypeString},
		"subject":    {Type: genai.TypeString},
		"difficulty": {Type: genai.TypeString},
		"grade":      {Type: genai.TypeInteger},
		"imageSvg": {
			Type:        genai.TypeString,
			Description: "Optional. A valid, clean, self-contained SVG string when the question needs a diagram.",
		},
	},
	Required: []string{"id", "questionText", "options", "correctAnswerIndex", "explanation", "topic", "subject", "difficulty", "grade"},
}

var geminiQuestionListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: geminiQuestionSchema,
}

// GeminiProvider is the primary generative backend.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Close releases the underlying client.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) ([]domain.Question, error) {
	model := p.client.GenerativeModel(p.modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiQuestionListSchema

	resp, err := model.GenerateContent(ctx, genai.Text(buildGenerationPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := geminiResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	var questions []domain.Question
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	for i := range questions {
		// The model occasionally drops request-scoped fields.
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

func (p *GeminiProvider) Revalidate(ctx context.Context, q domain.Question) (domain.Question, error) {
	model := p.client.GenerativeModel(p.modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiQuestionSchema

	resp, err := model.GenerateContent(ctx, genai.Text(buildRevalidationPrompt(q)))
	if err != nil {
		return domain.Question{}, fmt.Errorf("gemini revalidate: %w", err)
	}
	text := geminiResponseText(resp)
	if text == "" {
		return domain.Question{}, fmt.Errorf("gemini returned an empty revalidation response")
	}

	var checked domain.Question
	if err := json.Unmarshal([]byte(text), &checked); err != nil {
		return domain.Question{}, fmt.Errorf("parse gemini revalidation response: %w", err)
	}
	return checked, nil
}

func (p *GeminiProvider) Suggest(ctx context.Context, grade domain.Grade, topics []string) (string, error) {
	model := p.client.GenerativeModel(p.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(buildSuggestionPrompt(grade, topics)))
	if err != nil {
		return "", fmt.Errorf("gemini suggest: %w", err)
	}
	text := geminiResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty suggestion")
	}
	return text, nil
}

func geminiResponseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
