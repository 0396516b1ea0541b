/*
Package monitoring provides Prometheus metrics for the flow gallery backend.

# Overview

Metrics are registered with an explicit prometheus.Registerer so that tests
and embedded servers do not collide on the global registry.

# Features

- HTTP request metrics labelled by route pattern (latency, throughput, size)
- Remote template fetch outcomes and durations
- Registry size and override state
- Flows created per template category
- SDLC component calls by result status
- Uptime

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// The fetcher, flows manager and SDLC service accept *Metrics as their recorder
	store := flowstore.New(cfg, flowstore.WithRecorder(metrics))
*/
package monitoring
