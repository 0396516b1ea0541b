// Package config provides 12-factor configuration management for the flow gallery backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown grace period)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - FlowStore: Remote template store (URL, API key, template id)
//   - SDLC: Azure DevOps host and OpenAI settings for the SDLC components
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - FLOW_STORE_URL, FLOW_STORE_API_KEY, BA_TEMPLATE_ID, FLOW_STORE_TIMEOUT, FLOW_STORE_RETRIES
//   - AZURE_DEVOPS_URL, OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL, SDLC_TIMEOUT
package config
