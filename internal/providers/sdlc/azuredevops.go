package sdlc

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	wiqlPath      = "/{organization}/{project}/_apis/wit/wiql"
	workItemsPath = "/{organization}/{project}/_apis/wit/workitems"
	readAPIVer    = "5.1"
	detailsChunk  = 200
	detailsFanout = 4
)

// WorkItemsRequest is the input of the Azure DevOps reader component
type WorkItemsRequest struct {
	Organization         string `json:"organization" validate:"required"`
	Project              string `json:"project" validate:"required"`
	PATToken             string `json:"pat_token" validate:"required"`
	UseNaturalLanguage   bool   `json:"use_natural_language"`
	NaturalLanguageQuery string `json:"natural_language_query"`
	WIQLQuery            string `json:"wiql_query"`
	QueryType            string `json:"query_type" validate:"omitempty,oneof=flat oneHop tree"`
}

// WorkItem is the flattened view of an Azure DevOps work item
type WorkItem struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	State         string `json:"state"`
	Type          string `json:"type"`
	AssignedTo    string `json:"assigned_to"`
	Description   string `json:"description"`
	CreatedDate   string `json:"created_date"`
	CreatedBy     string `json:"created_by"`
	ChangedDate   string `json:"changed_date"`
	Tags          string `json:"tags"`
	IterationPath string `json:"iteration_path"`
	AreaPath      string `json:"area_path"`
}

// WorkItemsResult is the output of the Azure DevOps reader component
type WorkItemsResult struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
	Query     string     `json:"generated_wiql_query,omitempty"`
	WorkItems []WorkItem `json:"work_items"`
}

// WIQLResult is the output of the WIQL builder
type WIQLResult struct {
	Status  string `json:"status"`
	Query   string `json:"query,omitempty"`
	Message string `json:"message,omitempty"`
}

type wiqlBody struct {
	Query     string `json:"query"`
	QueryType string `json:"queryType"`
}

type wiqlRef struct {
	ID int `json:"id"`
}

type wiqlResponse struct {
	WorkItems         []wiqlRef `json:"workItems"`
	WorkItemRelations []struct {
		Source *wiqlRef `json:"source"`
		Target *wiqlRef `json:"target"`
	} `json:"workItemRelations"`
}

type detailsResponse struct {
	Value []struct {
		ID     int            `json:"id"`
		URL    string         `json:"url"`
		Fields map[string]any `json:"fields"`
	} `json:"value"`
}

var descriptionPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

func workItemsError(message string) *WorkItemsResult {
	return &WorkItemsResult{Status: StatusError, Message: message, WorkItems: []WorkItem{}}
}

// QueryWorkItems runs a WIQL or natural-language query and returns the matching work items
func (s *Service) QueryWorkItems(ctx context.Context, req WorkItemsRequest) *WorkItemsResult {
	start := time.Now()
	result := s.queryWorkItems(ctx, req)
	s.record(ReaderComponentName, result.Status, start)
	return result
}

func (s *Service) queryWorkItems(ctx context.Context, req WorkItemsRequest) *WorkItemsResult {
	if msg, bad := missingParameter(req); bad {
		return workItemsError(msg)
	}

	query := req.WIQLQuery
	if req.UseNaturalLanguage {
		if strings.TrimSpace(req.NaturalLanguageQuery) == "" {
			return workItemsError("Natural language query is required when 'Use Natural Language' is enabled")
		}
		query = NaturalLanguageWIQL(req.Project, req.NaturalLanguageQuery)
		s.logger.Debug("generated wiql query", zap.String("query", query))
	} else if strings.TrimSpace(query) == "" {
		return workItemsError("WIQL query is required when not using natural language")
	}
	queryType := req.QueryType
	if queryType == "" {
		queryType = QueryTypeFlat
	}

	resp, err := s.ado.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return s.adoRequest(r, req.Organization, req.Project, req.PATToken).
			SetQueryParam("api-version", readAPIVer).
			SetBody(wiqlBody{Query: query, QueryType: queryType}).
			Post(wiqlPath)
	})
	if err != nil {
		s.logger.Warn("wiql query failed", zap.String("organization", req.Organization), zap.Error(err))
		result := workItemsError("Error fetching work items: " + err.Error())
		result.Query = query
		return result
	}
	if resp.StatusCode() != http.StatusOK {
		result := workItemsError(fmt.Sprintf("API request failed with status %d", resp.StatusCode()))
		result.Error = resp.String()
		result.Query = query
		return result
	}

	var payload wiqlResponse
	if err := sonic.Unmarshal(resp.Body(), &payload); err != nil {
		result := workItemsError("Error fetching work items: " + err.Error())
		result.Query = query
		return result
	}

	ids := payload.ids()
	if len(ids) == 0 {
		return &WorkItemsResult{Status: StatusSuccess, Message: "No work items found", Query: query, WorkItems: []WorkItem{}}
	}

	items := s.fetchDetails(ctx, req, ids)
	return &WorkItemsResult{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Found %d work items", len(items)),
		Query:     query,
		WorkItems: items,
	}
}

// PreviewWIQL renders params as WIQL; nil params yield the default query
func (s *Service) PreviewWIQL(params *QueryParams) *WIQLResult {
	if params == nil {
		return &WIQLResult{Status: StatusSuccess, Query: DefaultPreviewWIQL}
	}
	query, err := BuildWIQL(*params)
	if err != nil {
		return &WIQLResult{Status: StatusError, Message: "Failed to build WIQL query: " + err.Error()}
	}
	return &WIQLResult{Status: StatusSuccess, Query: query}
}

func (s *Service) adoRequest(r *resty.Request, organization, project, pat string) *resty.Request {
	return r.
		SetBasicAuth("", pat).
		SetHeader("Accept", "application/json").
		SetPathParam("organization", organization).
		SetPathParam("project", project)
}

// fetchDetails loads ids in chunks; chunks that fail are logged and left out
func (s *Service) fetchDetails(ctx context.Context, req WorkItemsRequest, ids []int) []WorkItem {
	chunks := make([][]WorkItem, (len(ids)+detailsChunk-1)/detailsChunk)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailsFanout)
	for i := range chunks {
		lo := i * detailsChunk
		hi := min(lo+detailsChunk, len(ids))
		g.Go(func() error {
			items, err := s.fetchChunk(gctx, req, ids[lo:hi])
			if err != nil {
				s.logger.Error("failed to fetch work item details",
					zap.Int("chunk", i),
					zap.Int("ids", hi-lo),
					zap.Error(err))
				return nil
			}
			chunks[i] = items
			return nil
		})
	}
	_ = g.Wait()

	items := make([]WorkItem, 0, len(ids))
	for _, chunk := range chunks {
		items = append(items, chunk...)
	}
	return items
}

func (s *Service) fetchChunk(ctx context.Context, req WorkItemsRequest, ids []int) ([]WorkItem, error) {
	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = strconv.Itoa(id)
	}

	resp, err := s.ado.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return s.adoRequest(r, req.Organization, req.Project, req.PATToken).
			SetQueryParam("ids", strings.Join(joined, ",")).
			SetQueryParam("api-version", readAPIVer).
			SetQueryParam("$expand", "all").
			Get(workItemsPath)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}

	var payload detailsResponse
	if err := sonic.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(payload.Value))
	for _, v := range payload.Value {
		items = append(items, flatten(v.ID, v.URL, v.Fields))
	}
	return items, nil
}

func (w wiqlResponse) ids() []int {
	seen := make(map[int]struct{})
	var ids []int
	add := func(ref *wiqlRef) {
		if ref == nil {
			return
		}
		if _, ok := seen[ref.ID]; ok {
			return
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	for i := range w.WorkItems {
		add(&w.WorkItems[i])
	}
	for _, rel := range w.WorkItemRelations {
		add(rel.Target)
	}
	return ids
}

func flatten(id int, url string, fields map[string]any) WorkItem {
	return WorkItem{
		ID:            strconv.Itoa(id),
		URL:           url,
		Title:         text(fields["System.Title"]),
		State:         text(fields["System.State"]),
		Type:          text(fields["System.WorkItemType"]),
		AssignedTo:    identity(fields["System.AssignedTo"]),
		Description:   plainText(text(fields["System.Description"])),
		CreatedDate:   text(fields["System.CreatedDate"]),
		CreatedBy:     identity(fields["System.CreatedBy"]),
		ChangedDate:   text(fields["System.ChangedDate"]),
		Tags:          text(fields["System.Tags"]),
		IterationPath: text(fields["System.IterationPath"]),
		AreaPath:      text(fields["System.AreaPath"]),
	}
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// identity reads the display name of an identity field, which older API versions send as a plain string
func identity(v any) string {
	if m, ok := v.(map[string]any); ok {
		return text(m["displayName"])
	}
	return text(v)
}

func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(descriptionPolicy.Sanitize(s))), " ")
}
