package sdlc

// Category groups the SDLC components in the editor sidebar
const Category = "sdlc"

// Component names as they appear in flow node data
const (
	JiraComponentName   = "JiraComponent"
	ReaderComponentName = "AzureDevOpsComponent"
	WriterComponentName = "AzureDevOpsWriterComponent"
)

// Component describes an SDLC component to the flow editor
type Component struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	Description   string   `json:"description"`
	Documentation string   `json:"documentation"`
	Category      string   `json:"category"`
	Icon          string   `json:"icon"`
	Inputs        []Input  `json:"inputs"`
	Outputs       []Output `json:"outputs"`
}

// Input is one configurable field of a component
type Input struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Type        string   `json:"type"`
	Info        string   `json:"info,omitempty"`
	Value       any      `json:"value,omitempty"`
	Options     []string `json:"options,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Password    bool     `json:"password,omitempty"`
	Advanced    bool     `json:"advanced,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
}

// Output is one result handle of a component
type Output struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Method      string `json:"method"`
}

// Components returns the catalog of SDLC components
func Components() []Component {
	return []Component{jiraComponent(), readerComponent(), writerComponent()}
}

// LookupComponent returns the component registered under name
func LookupComponent(name string) (Component, bool) {
	for _, c := range Components() {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

func jiraComponent() Component {
	return Component{
		Name:          JiraComponentName,
		DisplayName:   "Jira Issues",
		Description:   "Fetch issues from Jira using JQL queries",
		Documentation: "https://developer.atlassian.com/cloud/jira/platform/rest/v3/api-group-issue-search/",
		Category:      Category,
		Icon:          "GitPullRequest",
		Inputs: []Input{
			{Name: "site_url", DisplayName: "Jira Site URL", Type: "str", Info: "e.g. https://your-domain.atlassian.net", Required: true},
			{Name: "username", DisplayName: "Username", Type: "str", Info: "Jira account email", Required: true},
			{Name: "api_token", DisplayName: "API Token", Type: "str", Required: true, Password: true},
			{Name: "jql_query", DisplayName: "JQL Query", Type: "str", Value: DefaultJQL, Multiline: true},
			{Name: "max_results", DisplayName: "Max Results", Type: "int", Value: defaultMaxResults, Advanced: true},
			{Name: "include_fields", DisplayName: "Include Fields", Type: "bool", Value: true, Advanced: true},
			{Name: "fields", DisplayName: "Fields", Type: "str", Value: DefaultJiraFields, Advanced: true},
		},
		Outputs: []Output{
			{Name: "issues", DisplayName: "Issues", Method: "fetch_issues"},
		},
	}
}

func readerComponent() Component {
	return Component{
		Name:          ReaderComponentName,
		DisplayName:   "Azure DevOps Work Items",
		Description:   "Query work items from Azure DevOps with WIQL or natural language",
		Documentation: "https://learn.microsoft.com/en-us/rest/api/azure/devops/wit/wiql",
		Category:      Category,
		Icon:          "GitBranch",
		Inputs: []Input{
			{Name: "organization", DisplayName: "Organization", Type: "str", Required: true},
			{Name: "project", DisplayName: "Project", Type: "str", Required: true},
			{Name: "pat_token", DisplayName: "Personal Access Token", Type: "str", Required: true, Password: true},
			{Name: "use_natural_language", DisplayName: "Use Natural Language", Type: "bool", Value: false},
			{Name: "natural_language_query", DisplayName: "Natural Language Query", Type: "str", Multiline: true},
			{Name: "wiql_query", DisplayName: "WIQL Query", Type: "str", Value: DefaultReaderWIQL, Multiline: true},
			{Name: "query_type", DisplayName: "Query Type", Type: "str", Value: QueryTypeFlat, Options: []string{QueryTypeFlat, QueryTypeOneHop, QueryTypeTree}, Advanced: true},
		},
		Outputs: []Output{
			{Name: "work_items", DisplayName: "Work Items", Method: "fetch_work_items"},
			{Name: "generated_wiql_query", DisplayName: "Generated WIQL", Method: "generate_wiql"},
		},
	}
}

func writerComponent() Component {
	return Component{
		Name:          WriterComponentName,
		DisplayName:   "Azure DevOps Work Item Creator",
		Description:   "Extract work items from text and create them in Azure DevOps",
		Documentation: "https://learn.microsoft.com/en-us/rest/api/azure/devops/wit/",
		Category:      Category,
		Icon:          "GitBranch",
		Inputs: []Input{
			{Name: "organization", DisplayName: "Organization", Type: "str", Required: true},
			{Name: "project", DisplayName: "Project", Type: "str", Required: true},
			{Name: "pat_token", DisplayName: "Personal Access Token", Type: "str", Required: true, Password: true},
			{Name: "input_text", DisplayName: "Requirements Text", Type: "str", Required: true, Multiline: true},
			{Name: "work_item_type", DisplayName: "Work Item Type", Type: "str", Value: string(UserStory), Options: WorkItemTypeNames()},
			{Name: "area_path", DisplayName: "Area Path", Type: "str", Advanced: true},
			{Name: "iteration_path", DisplayName: "Iteration Path", Type: "str", Advanced: true},
			{Name: "openai_api_key", DisplayName: "OpenAI API Key", Type: "str", Required: true, Password: true},
			{Name: "model_name", DisplayName: "Model", Type: "str", Value: defaultModel, Advanced: true},
		},
		Outputs: []Output{
			{Name: "created_work_items", DisplayName: "Created Work Items", Method: "create_work_items"},
			{Name: "extracted_items", DisplayName: "Extracted Items", Method: "extract_items"},
		},
	}
}
