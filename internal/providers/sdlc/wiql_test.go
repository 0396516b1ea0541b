package sdlc

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWIQL(t *testing.T) {
	tests := []struct {
		name   string
		params QueryParams
		want   string
	}{
		{
			name:   "defaults",
			params: QueryParams{Project: "web"},
			want: "SELECT [System.Id], [System.Title], [System.State], [System.WorkItemType], [System.AssignedTo], [System.Tags], [System.Description] " +
				"FROM WorkItems WHERE [System.TeamProject] = 'web' ORDER BY [System.ChangedDate] DESC",
		},
		{
			name: "top with single type and state",
			params: QueryParams{
				Project:       "web",
				Fields:        []string{"System.Id"},
				MaxItems:      10,
				WorkItemTypes: StringList{"Bug"},
				States:        StringList{"Active"},
			},
			want: "SELECT TOP 10 [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' AND [System.WorkItemType] = 'Bug' " +
				"AND [System.State] = 'Active' ORDER BY [System.ChangedDate] DESC",
		},
		{
			name: "lists use IN",
			params: QueryParams{
				Project:       "web",
				Fields:        []string{"System.Id"},
				WorkItemTypes: StringList{"Bug", "Task"},
				States:        StringList{"New", "Active"},
			},
			want: "SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' AND [System.WorkItemType] IN ('Bug', 'Task') " +
				"AND [System.State] IN ('New', 'Active') ORDER BY [System.ChangedDate] DESC",
		},
		{
			name: "paths and assignee",
			params: QueryParams{
				Project:       "web",
				Fields:        []string{"System.Id"},
				AssignedTo:    "Ada Lovelace",
				AreaPath:      `web\frontend*`,
				IterationPath: "@CurrentIteration",
			},
			want: `SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' AND [System.AssignedTo] = 'Ada Lovelace' ` +
				`AND [System.AreaPath] UNDER 'web\frontend' AND [System.IterationPath] = @CurrentIteration ORDER BY [System.ChangedDate] DESC`,
		},
		{
			name: "exact iteration path",
			params: QueryParams{
				Project:       "web",
				Fields:        []string{"System.Id"},
				IterationPath: `web\Sprint 4`,
			},
			want: `SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' AND [System.IterationPath] = 'web\Sprint 4' ` +
				`ORDER BY [System.ChangedDate] DESC`,
		},
		{
			name: "tags and search terms",
			params: QueryParams{
				Project:     "web",
				Fields:      []string{"System.Id"},
				Tags:        StringList{"ui", "p1"},
				SearchTerms: StringList{"login"},
			},
			want: "SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' AND [System.Tags] CONTAINS 'ui' AND [System.Tags] CONTAINS 'p1' " +
				"AND ([System.Title] CONTAINS 'login' OR [System.Description] CONTAINS 'login') ORDER BY [System.ChangedDate] DESC",
		},
		{
			name: "custom order",
			params: QueryParams{
				Project: "web",
				Fields:  []string{"System.Id"},
				OrderBy: OrderBy{{Field: "Microsoft.VSTS.Common.Priority"}, {Field: "System.CreatedDate", Descending: true}},
			},
			want: "SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'web' " +
				"ORDER BY [Microsoft.VSTS.Common.Priority] ASC, [System.CreatedDate] DESC",
		},
		{
			name: "quotes are doubled",
			params: QueryParams{
				Project:    "o'brien",
				Fields:     []string{"System.Id"},
				AssignedTo: "x' OR '1'='1",
			},
			want: "SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'o''brien' AND [System.AssignedTo] = 'x'' OR ''1''=''1' " +
				"ORDER BY [System.ChangedDate] DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildWIQL(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildWIQLRejectsBadFields(t *testing.T) {
	_, err := BuildWIQL(QueryParams{Fields: []string{"System.Id] FROM x --"}})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = BuildWIQL(QueryParams{OrderBy: OrderBy{{Field: "a'b"}}})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestQueryParamsDecoding(t *testing.T) {
	var p QueryParams
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"project": "web",
		"workItemTypes": "Bug",
		"states": ["New", "Active"],
		"tags": "",
		"orderBy": {"field": "System.Id", "descending": true}
	}`), &p))

	assert.Equal(t, StringList{"Bug"}, p.WorkItemTypes)
	assert.Equal(t, StringList{"New", "Active"}, p.States)
	assert.Empty(t, p.Tags)
	assert.Equal(t, OrderBy{{Field: "System.Id", Descending: true}}, p.OrderBy)

	require.NoError(t, sonic.Unmarshal([]byte(`{"orderBy": [{"field": "A"}, {"field": "B"}]}`), &p))
	assert.Len(t, p.OrderBy, 2)
}

func TestNaturalLanguageWIQL(t *testing.T) {
	tests := []struct {
		query string
		where string
	}{
		{
			query: "show me everything",
			where: "[System.WorkItemType] IN ('Task', 'Bug', 'User Story')",
		},
		{
			query: "open bugs",
			where: "[System.WorkItemType] = 'Bug' AND [System.State] = 'Active'",
		},
		{
			query: "New user story and tasks that are done",
			where: "[System.WorkItemType] IN ('Task', 'User Story') AND [System.State] IN ('New', 'Closed')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := NaturalLanguageWIQL("web", tt.query)
			want := "SELECT [System.Id], [System.Title], [System.State], [System.WorkItemType] FROM WorkItems " +
				"WHERE [System.TeamProject] = 'web' AND " + tt.where + " ORDER BY [System.ChangedDate] DESC"
			assert.Equal(t, want, got)
		})
	}
}
