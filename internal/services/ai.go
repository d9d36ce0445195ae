package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/models"
)

// TaskDrafter turns free text into draft tasks.
type TaskDrafter interface {
	DraftTasks(ctx context.Context, text string, now time.Time) ([]DraftTask, error)
}

// DraftTask is a suggested task. Dates are YYYY-MM-DD strings or empty.
type DraftTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartDate   string          `json:"startDate,omitempty"`
	EndDate     string          `json:"endDate,omitempty"`
	Priority    models.Priority `json:"priority"`
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

type draftEnvelope struct {
	Tasks []DraftTask `json:"tasks"`
}

// DraftTasks extracts task suggestions from text with a chat completion.
func (s *AIService) DraftTasks(ctx context.Context, text string, now time.Time) ([]DraftTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You extract actionable tasks for a team task tracker.

Today is %s (%s).

Text:
%s

Respond with a JSON object of the form:
{"tasks": [{"title": "short title", "description": "details", "startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD", "priority": "Low|Medium|High"}]}

Rules:
- Return {"tasks": []} when the text contains no tasks.
- Convert relative dates ("tomorrow", "next week") to calendar dates.
- Leave startDate or endDate empty when the text gives no hint.
- Return at most %d tasks.`,
		now.Format(dateLayout), now.Weekday(), text, constants.MaxDraftTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseDrafts(resp.Choices[0].Message.Content)
}

func parseDrafts(content string) ([]DraftTask, error) {
	var envelope draftEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return envelope.Tasks, nil
}

// NormalizeDrafts drops drafts without a title, defaults unknown priorities
// to Medium, clears dates that do not parse or are out of order, and caps the
// list length.
func NormalizeDrafts(drafts []DraftTask) []DraftTask {
	out := make([]DraftTask, 0, len(drafts))
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			continue
		}
		d.Description = strings.TrimSpace(d.Description)

		if !d.Priority.Valid() {
			d.Priority = models.PriorityMedium
		}

		start, startErr := time.Parse(dateLayout, d.StartDate)
		if startErr != nil {
			d.StartDate = ""
		}
		end, endErr := time.Parse(dateLayout, d.EndDate)
		if endErr != nil {
			d.EndDate = ""
		}
		if startErr == nil && endErr == nil && end.Before(start) {
			d.StartDate, d.EndDate = "", ""
		}

		out = append(out, d)
		if len(out) == constants.MaxDraftTasks {
			break
		}
	}
	return out
}
