package sdlc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const extractFunction = "extract_work_items"

// ErrNoToolCall is returned when the model answers without calling the extraction function
var ErrNoToolCall = errors.New("model returned no extraction call")

// Priority decodes from a JSON number or string
type Priority string

// UnmarshalJSON implements json.Unmarshaler
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		*p = Priority(s)
		return nil
	}
	var n float64
	if err := sonic.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	*p = Priority(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// ExtractedItem is a work item drafted from free text
type ExtractedItem struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria string   `json:"acceptance_criteria,omitempty"`
	Priority           Priority `json:"priority,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

// Extractor drafts work items of a type from free text
type Extractor interface {
	Extract(ctx context.Context, itemType WorkItemType, text string) ([]ExtractedItem, error)
}

// OpenAIExtractor extracts work items through OpenAI function calling
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIExtractor creates an extractor; baseURL may be empty for the public API
func NewOpenAIExtractor(apiKey, model, baseURL string, logger *zap.Logger) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Extract implements Extractor
func (e *OpenAIExtractor) Extract(ctx context.Context, itemType WorkItemType, text string) ([]ExtractedItem, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(itemType)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(itemType, text)},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        extractFunction,
				Description: fmt.Sprintf("Extract %s items from the input text", itemType),
				Parameters:  extractSchema(itemType),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: extractFunction},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, ErrNoToolCall
	}

	items, err := decodeItems(resp.Choices[0].Message.ToolCalls[0].Function.Arguments)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracted work items",
		zap.String("type", string(itemType)),
		zap.Int("count", len(items)))
	return items, nil
}

func decodeItems(arguments string) ([]ExtractedItem, error) {
	var args struct {
		Items []ExtractedItem `json:"items"`
	}
	if err := sonic.UnmarshalString(arguments, &args); err != nil {
		return nil, fmt.Errorf("decode extraction arguments: %w", err)
	}
	items := args.Items[:0]
	for _, item := range args.Items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func systemPrompt(itemType WorkItemType) string {
	return fmt.Sprintf("You are an expert in extracting %[1]s items from text. "+
		"Extract all %[1]s items from the provided text. "+
		"For each item, identify the title and description.", itemType)
}

func userPrompt(itemType WorkItemType, text string) string {
	return fmt.Sprintf("Extract all %s items from the following text. "+
		"Return them as a structured list with title and description for each item.\nText: %s", itemType, text)
}

func extractSchema(itemType WorkItemType) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": fmt.Sprintf("The title of the %s", itemType),
						},
						"description": map[string]any{
							"type":        "string",
							"description": fmt.Sprintf("The description of the %s", itemType),
						},
						"acceptance_criteria": map[string]any{
							"type":        "string",
							"description": "Acceptance criteria for the work item (if applicable)",
						},
						"priority": map[string]any{
							"type":        "string",
							"description": "Priority level of the work item (if mentioned)",
						},
						"tags": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Tags associated with the work item (if mentioned)",
						},
					},
					"required": []string{"title", "description"},
				},
			},
		},
		"required": []string{"items"},
	}
}
