package sdlc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WorkItemType is an Azure DevOps work item type
type WorkItemType string

// Work item types the writer can create
const (
	UserStory WorkItemType = "User Story"
	Bug       WorkItemType = "Bug"
	Epic      WorkItemType = "Epic"
	Task      WorkItemType = "Task"
	Feature   WorkItemType = "Feature"
	Issue     WorkItemType = "Issue"
)

const (
	createPath      = "/{organization}/{project}/_apis/wit/workitems/{type}"
	writeAPIVer     = "6.0"
	jsonPatchType   = "application/json-patch+json"
	defaultPriority = 3
)

var workItemTypes = []WorkItemType{UserStory, Bug, Epic, Task, Feature, Issue}

// WorkItemTypeNames lists the supported work item types
func WorkItemTypeNames() []string {
	names := make([]string, len(workItemTypes))
	for i, t := range workItemTypes {
		names[i] = string(t)
	}
	return names
}

// CreateRequest is the input of the Azure DevOps writer component
type CreateRequest struct {
	Organization  string       `json:"organization" validate:"required"`
	Project       string       `json:"project" validate:"required"`
	PATToken      string       `json:"pat_token" validate:"required"`
	InputText     string       `json:"input_text" validate:"required"`
	WorkItemType  WorkItemType `json:"work_item_type" validate:"omitempty,oneof='User Story' Bug Epic Task Feature Issue"`
	AreaPath      string       `json:"area_path"`
	IterationPath string       `json:"iteration_path"`
	OpenAIAPIKey  string       `json:"openai_api_key"`
	ModelName     string       `json:"model_name"`
}

// ExtractRequest is the input of extraction without creation
type ExtractRequest struct {
	InputText    string       `json:"input_text"`
	WorkItemType WorkItemType `json:"work_item_type"`
	OpenAIAPIKey string       `json:"openai_api_key"`
	ModelName    string       `json:"model_name"`
}

// CreatedItem is a work item accepted by Azure DevOps
type CreatedItem struct {
	ID    int          `json:"id"`
	URL   string       `json:"url"`
	Title string       `json:"title"`
	Type  WorkItemType `json:"type"`
}

// CreateResult is the output of the Azure DevOps writer component
type CreateResult struct {
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	CreatedItems []CreatedItem `json:"created_items"`
}

// ExtractResult is the output of extraction without creation
type ExtractResult struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	ExtractedItems []ExtractedItem `json:"extracted_items"`
}

// PatchOp is one JSON Patch operation
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// CreateWorkItems drafts work items from the request text and creates them one by one
func (s *Service) CreateWorkItems(ctx context.Context, req CreateRequest) *CreateResult {
	start := time.Now()
	result := s.createWorkItems(ctx, req)
	s.record(WriterComponentName, result.Status, start)
	return result
}

func (s *Service) createWorkItems(ctx context.Context, req CreateRequest) *CreateResult {
	fail := func(msg string) *CreateResult {
		return &CreateResult{Status: StatusError, Message: msg, CreatedItems: []CreatedItem{}}
	}
	if msg, bad := missingParameter(req); bad {
		return fail(msg)
	}
	req.OpenAIAPIKey = s.openAIKey(req.OpenAIAPIKey)
	if req.OpenAIAPIKey == "" {
		return fail("Missing required parameter: openai_api_key")
	}
	if req.WorkItemType == "" {
		req.WorkItemType = UserStory
	}

	items, err := s.newExtractor(req.OpenAIAPIKey, s.model(req.ModelName)).Extract(ctx, req.WorkItemType, req.InputText)
	if err != nil {
		s.logger.Error("work item extraction failed", zap.String("type", string(req.WorkItemType)), zap.Error(err))
		return fail("Error creating work items: " + err.Error())
	}
	if len(items) == 0 {
		return &CreateResult{
			Status:       StatusWarning,
			Message:      fmt.Sprintf("No %s items were extracted from the input text", req.WorkItemType),
			CreatedItems: []CreatedItem{},
		}
	}

	created := make([]CreatedItem, 0, len(items))
	for _, item := range items {
		c, err := s.createOne(ctx, req, item)
		if err != nil {
			s.logger.Error("failed to create work item",
				zap.String("type", string(req.WorkItemType)),
				zap.String("title", item.Title),
				zap.Error(err))
			continue
		}
		s.logger.Info("created work item",
			zap.String("type", string(req.WorkItemType)),
			zap.Int("id", c.ID))
		created = append(created, c)
	}
	if len(created) == 0 {
		return fail("Failed to create work items in Azure DevOps")
	}
	return &CreateResult{
		Status:       StatusSuccess,
		Message:      fmt.Sprintf("Successfully created %d %s items", len(created), req.WorkItemType),
		CreatedItems: created,
	}
}

// ExtractWorkItems drafts work items from the request text without creating them
func (s *Service) ExtractWorkItems(ctx context.Context, req ExtractRequest) *ExtractResult {
	start := time.Now()
	result := s.extractWorkItems(ctx, req)
	s.record(WriterComponentName, result.Status, start)
	return result
}

func (s *Service) extractWorkItems(ctx context.Context, req ExtractRequest) *ExtractResult {
	fail := func(msg string) *ExtractResult {
		return &ExtractResult{Status: StatusError, Message: msg, ExtractedItems: []ExtractedItem{}}
	}
	if strings.TrimSpace(req.InputText) == "" {
		return fail("Missing required input text")
	}
	apiKey := s.openAIKey(req.OpenAIAPIKey)
	if apiKey == "" {
		return fail("Missing required OpenAI API key")
	}
	if req.WorkItemType == "" {
		req.WorkItemType = UserStory
	}

	items, err := s.newExtractor(apiKey, s.model(req.ModelName)).Extract(ctx, req.WorkItemType, req.InputText)
	if err != nil {
		s.logger.Error("work item extraction failed", zap.String("type", string(req.WorkItemType)), zap.Error(err))
		return fail("Error extracting work items: " + err.Error())
	}
	if len(items) == 0 {
		return &ExtractResult{
			Status:         StatusWarning,
			Message:        fmt.Sprintf("No %s items were extracted from the input text", req.WorkItemType),
			ExtractedItems: []ExtractedItem{},
		}
	}
	return &ExtractResult{
		Status:         StatusSuccess,
		Message:        fmt.Sprintf("Successfully extracted %d %s items", len(items), req.WorkItemType),
		ExtractedItems: items,
	}
}

func (s *Service) createOne(ctx context.Context, req CreateRequest, item ExtractedItem) (CreatedItem, error) {
	resp, err := s.ado.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return s.adoRequest(r, req.Organization, req.Project, req.PATToken).
			SetPathParam("type", "$"+string(req.WorkItemType)).
			SetQueryParam("api-version", writeAPIVer).
			SetHeader("Content-Type", jsonPatchType).
			SetBody(PatchOps(item, req.AreaPath, req.IterationPath)).
			Post(createPath)
	})
	if err != nil {
		return CreatedItem{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return CreatedItem{}, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}

	var body struct {
		ID  int    `json:"id"`
		URL string `json:"url"`
	}
	if err := sonic.Unmarshal(resp.Body(), &body); err != nil {
		return CreatedItem{}, fmt.Errorf("decode created work item: %w", err)
	}
	return CreatedItem{ID: body.ID, URL: body.URL, Title: item.Title, Type: req.WorkItemType}, nil
}

// PatchOps builds the JSON Patch document that creates item
func PatchOps(item ExtractedItem, areaPath, iterationPath string) []PatchOp {
	ops := []PatchOp{
		{Op: "add", Path: "/fields/System.Title", Value: item.Title},
		{Op: "add", Path: "/fields/System.Description", Value: item.Description},
	}
	if areaPath != "" {
		ops = append(ops, PatchOp{Op: "add", Path: "/fields/System.AreaPath", Value: areaPath})
	}
	if iterationPath != "" {
		ops = append(ops, PatchOp{Op: "add", Path: "/fields/System.IterationPath", Value: iterationPath})
	}
	if item.AcceptanceCriteria != "" {
		ops = append(ops, PatchOp{Op: "add", Path: "/fields/Microsoft.VSTS.Common.AcceptanceCriteria", Value: item.AcceptanceCriteria})
	}
	if item.Priority != "" {
		ops = append(ops, PatchOp{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Priority", Value: ParsePriority(string(item.Priority))})
	}
	if len(item.Tags) > 0 {
		ops = append(ops, PatchOp{Op: "add", Path: "/fields/System.Tags", Value: strings.Join(item.Tags, "; ")})
	}
	return ops
}

// ParsePriority maps a number 1-4 or a priority word to an Azure DevOps priority
func ParsePriority(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 4 {
		return n
	}
	switch {
	case strings.Contains(s, "critical"), strings.Contains(s, "highest"):
		return 1
	case strings.Contains(s, "high"):
		return 2
	case strings.Contains(s, "medium"), strings.Contains(s, "normal"):
		return 3
	case strings.Contains(s, "low"):
		return 4
	}
	return defaultPriority
}
