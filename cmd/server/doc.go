// Package main is the entry point of the flow gallery backend.
//
// The server backs the flow editor's template gallery: it serves the bundled
// templates, refreshes the Business Analyst template from the flow store, creates
// flows from templates and exposes the Jira and Azure DevOps SDLC components.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	./server serve --dev --log-level debug
//
//	# Inspect the gallery without starting the server
//	./server templates list
//	./server templates get sdlc ba --remote
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
