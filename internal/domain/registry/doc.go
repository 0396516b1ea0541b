// Package registry holds the flow templates offered by the gallery.
//
// Templates are keyed by (category, id). The registry is seeded with static
// fallbacks from the embedded catalog and may later be updated with copies
// fetched from the flow store.
//
// Components:
//   - Registry: two-level (category, id) map plus a single override slot
//   - Key: a (category, id) pair
//
// Features:
//   - Alias keys: ("sdlc", "ba") reads the override slot first and falls back
//     to the entry stored under ("sdlc", "business-analyst")
//   - Promote stores a template and fills the override slot in one critical
//     section, so readers never see the two disagree
//   - Deep copies on the way in and out
//   - Safe for concurrent use
//
// Example Usage:
//
//	reg := registry.New()
//	_ = reg.Register("sdlc", "business-analyst", staticTemplate)
//	reg.Promote(fetched)
//	tpl, ok := reg.Resolve("sdlc", "ba")
package registry
