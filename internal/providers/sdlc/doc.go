// Package sdlc implements the software-development-lifecycle components used
// by flow templates.
//
// Components:
//   - JiraComponent: JQL search against a Jira Cloud site
//   - AzureDevOpsComponent: WIQL or keyword queries against Azure DevOps
//   - AzureDevOpsWriterComponent: drafts work items from free text with an
//     LLM and creates them in Azure DevOps
//
// Every call returns a result with a status of success, warning or error.
// Upstream failures are reported in the result, never as Go errors.
//
// Example Usage:
//
//	svc := sdlc.NewService(sdlc.Config{}, sdlc.WithLogger(logger))
//	result := svc.QueryWorkItems(ctx, sdlc.WorkItemsRequest{
//		Organization: "contoso",
//		Project:      "web",
//		PATToken:     pat,
//		WIQLQuery:    sdlc.DefaultReaderWIQL,
//	})
package sdlc
