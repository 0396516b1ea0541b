package sdlc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Jira defaults
const (
	DefaultJQL        = "project = PROJ AND status = 'In Progress'"
	DefaultJiraFields = "summary,status,assignee,priority,created,updated"
	defaultMaxResults = 50
	jiraSearchPath    = "/rest/api/3/search"
)

// JiraRequest is the input of the Jira issues component
type JiraRequest struct {
	SiteURL       string `json:"site_url" validate:"required,url"`
	Username      string `json:"username" validate:"required"`
	APIToken      string `json:"api_token" validate:"required"`
	JQLQuery      string `json:"jql_query"`
	MaxResults    int    `json:"max_results" validate:"gte=0,lte=1000"`
	IncludeFields *bool  `json:"include_fields"`
	Fields        string `json:"fields"`
}

// Pagination describes the position of a Jira result page
type Pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// JiraResult is the output of the Jira issues component
type JiraResult struct {
	Status      string           `json:"status"`
	Message     string           `json:"message,omitempty"`
	Details     string           `json:"details,omitempty"`
	Total       int              `json:"total"`
	IssuesCount int              `json:"issues_count"`
	Issues      []map[string]any `json:"issues"`
	StartAt     *int             `json:"start_at,omitempty"`
	MaxResults  *int             `json:"max_results,omitempty"`
	Pagination  *Pagination      `json:"pagination,omitempty"`
}

type jiraSearchBody struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

type jiraSearchResponse struct {
	Total      *int             `json:"total"`
	StartAt    *int             `json:"startAt"`
	MaxResults *int             `json:"maxResults"`
	Issues     []map[string]any `json:"issues"`
}

func jiraError(message, details string) *JiraResult {
	return &JiraResult{Status: StatusError, Message: message, Details: details, Issues: []map[string]any{}}
}

// SearchJira runs a JQL search against the site of req
func (s *Service) SearchJira(ctx context.Context, req JiraRequest) *JiraResult {
	start := time.Now()
	result := s.searchJira(ctx, req)
	s.record(JiraComponentName, result.Status, start)
	return result
}

func (s *Service) searchJira(ctx context.Context, req JiraRequest) *JiraResult {
	if msg, bad := missingParameter(req); bad {
		return jiraError(msg, "")
	}
	if req.JQLQuery == "" {
		req.JQLQuery = DefaultJQL
	}
	if req.MaxResults == 0 {
		req.MaxResults = defaultMaxResults
	}

	body := jiraSearchBody{JQL: req.JQLQuery, MaxResults: req.MaxResults}
	if req.IncludeFields == nil || *req.IncludeFields {
		body.Fields = splitFields(req.Fields)
	}

	endpoint := strings.TrimRight(req.SiteURL, "/") + jiraSearchPath
	resp, err := s.jira.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetBasicAuth(req.Username, req.APIToken).
			SetHeader("Accept", "application/json").
			SetBody(body).
			Post(endpoint)
	})
	if err != nil {
		s.logger.Warn("jira search failed", zap.String("site", req.SiteURL), zap.Error(err))
		return jiraError("Error fetching Jira issues: "+err.Error(), "")
	}
	if resp.StatusCode() != http.StatusOK {
		s.logger.Warn("jira search rejected",
			zap.String("site", req.SiteURL),
			zap.Int("status", resp.StatusCode()))
		return jiraError(fmt.Sprintf("API request failed with status %d", resp.StatusCode()), resp.String())
	}

	var payload jiraSearchResponse
	if err := sonic.Unmarshal(resp.Body(), &payload); err != nil {
		return jiraError("Error fetching Jira issues: "+err.Error(), "")
	}

	result := &JiraResult{
		Status:      StatusSuccess,
		IssuesCount: len(payload.Issues),
		Issues:      payload.Issues,
		StartAt:     payload.StartAt,
		MaxResults:  payload.MaxResults,
	}
	if result.Issues == nil {
		result.Issues = []map[string]any{}
	}
	if payload.Total != nil {
		result.Total = *payload.Total
	}
	if payload.Total != nil && payload.StartAt != nil && payload.MaxResults != nil {
		result.Pagination = paginate(*payload.StartAt, *payload.MaxResults, *payload.Total)
	}
	return result
}

func paginate(startAt, maxResults, total int) *Pagination {
	if maxResults <= 0 {
		return &Pagination{Page: 1, TotalPages: 1, HasMore: false}
	}
	return &Pagination{
		Page:       startAt/maxResults + 1,
		TotalPages: (total + maxResults - 1) / maxResults,
		HasMore:    startAt+maxResults < total,
	}
}

func splitFields(fields string) []string {
	if strings.TrimSpace(fields) == "" {
		fields = DefaultJiraFields
	}
	var out []string
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
