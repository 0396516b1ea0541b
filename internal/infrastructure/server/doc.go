// Package server wires the flow gallery components into an HTTP server.
//
// Server Lifecycle:
//  1. Initialize the logger and Prometheus registry
//  2. Seed the template registry from the embedded catalog
//  3. Create the flow store client, flow manager and gallery
//  4. Create the SDLC component service
//  5. Setup middleware and routes
//  6. Run: refresh the Business Analyst template, then serve HTTP
//  7. Close: drain HTTP, wait for refreshes, flush logs
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close()
package server
