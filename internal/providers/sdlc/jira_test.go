package sdlc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) RecordComponentCall(component, status string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, component+":"+status)
}

func jiraRequest(site string) JiraRequest {
	return JiraRequest{SiteURL: site, Username: "ada@example.com", APIToken: "token"}
}

func TestSearchJira(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/3/search", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ada@example.com", user)
		assert.Equal(t, "token", pass)

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"startAt": 50, "maxResults": 50, "total": 120,
			"issues": [{"key": "PROJ-1"}, {"key": "PROJ-2"}]
		}`))
	}))
	defer srv.Close()

	rec := &callLog{}
	svc := NewService(Config{}, WithRecorder(rec))
	result := svc.SearchJira(context.Background(), jiraRequest(srv.URL+"/"))

	require.Equal(t, StatusSuccess, result.Status, result.Message)
	assert.Equal(t, 120, result.Total)
	assert.Equal(t, 2, result.IssuesCount)
	assert.Equal(t, "PROJ-1", result.Issues[0]["key"])
	require.NotNil(t, result.Pagination)
	assert.Equal(t, Pagination{Page: 2, TotalPages: 3, HasMore: true}, *result.Pagination)

	assert.Equal(t, DefaultJQL, body["jql"])
	assert.EqualValues(t, 50, body["maxResults"])
	assert.Equal(t, []any{"summary", "status", "assignee", "priority", "created", "updated"}, body["fields"])
	assert.Equal(t, []string{"JiraComponent:success"}, rec.calls)
}

func TestSearchJiraWithoutFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, sonic.Unmarshal(raw, &body))
		assert.NotContains(t, body, "fields")
		assert.Equal(t, "project = WEB", body["jql"])
		_, _ = w.Write([]byte(`{"issues": []}`))
	}))
	defer srv.Close()

	off := false
	req := jiraRequest(srv.URL)
	req.IncludeFields = &off
	req.JQLQuery = "project = WEB"

	result := NewService(Config{}).SearchJira(context.Background(), req)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Nil(t, result.Pagination)
	assert.Empty(t, result.Issues)
}

func TestSearchJiraErrors(t *testing.T) {
	t.Run("missing parameter", func(t *testing.T) {
		req := jiraRequest("https://example.atlassian.net")
		req.APIToken = ""
		result := NewService(Config{}).SearchJira(context.Background(), req)
		assert.Equal(t, StatusError, result.Status)
		assert.Equal(t, "Missing required parameter: api_token", result.Message)
	})

	t.Run("rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errorMessages":["bad jql"]}`))
		}))
		defer srv.Close()

		result := NewService(Config{}).SearchJira(context.Background(), jiraRequest(srv.URL))
		assert.Equal(t, StatusError, result.Status)
		assert.Equal(t, "API request failed with status 400", result.Message)
		assert.Contains(t, result.Details, "bad jql")
		assert.NotNil(t, result.Issues)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		result := NewService(Config{Timeout: time.Second}).SearchJira(context.Background(), jiraRequest(url))
		assert.Equal(t, StatusError, result.Status)
		assert.Contains(t, result.Message, "Error fetching Jira issues: ")
	})
}

func TestPaginate(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 1, TotalPages: 1, HasMore: false}, paginate(0, 50, 10))
	assert.Equal(t, &Pagination{Page: 1, TotalPages: 2, HasMore: true}, paginate(0, 50, 51))
	assert.Equal(t, &Pagination{Page: 1, TotalPages: 1, HasMore: false}, paginate(0, 0, 51))
}
