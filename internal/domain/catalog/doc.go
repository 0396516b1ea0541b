// Package catalog ships the static template fallbacks with the binary.
//
// Templates live under templates/<category>/<id>.json (YAML is accepted with a
// .yaml or .yml extension) and are embedded with go:embed. Seed loads them
// into a registry at startup so every gallery entry resolves before any
// remote fetch has completed.
package catalog
