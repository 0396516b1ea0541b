// Package http provides HTTP handlers and routing for the flow gallery REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Templates: /templates, /templates/:category, /templates/:category/:id
//   - Flow creation: POST /templates/:category/:id/flows
//   - Flows: /flows, /flows/:id
//   - Components: /components and the Jira and Azure DevOps component routes
//   - Editor logs: POST /logs
//   - Metrics: /metrics/json (MetricsAggregator)
//
// Path parameters are validated before use; invalid ones get a 400. Missing
// templates and flows get a 404. Component failures are reported in a 200
// body with status "error", the way the editor expects component results.
//
// Example Usage:
//
//	handlers := http.NewHandlers(gallery, registry, flowManager, sdlcService, logger, true)
//	handlers.Register(router)
package http
