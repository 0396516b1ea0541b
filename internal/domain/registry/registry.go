package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
)

const (
	// CategorySDLC groups software-delivery templates
	CategorySDLC = "sdlc"
	// BusinessAnalystID is the storage key of the Business Analyst template
	BusinessAnalystID = "business-analyst"
	// BusinessAnalystAlias is the key the gallery uses to open the Business Analyst template
	BusinessAnalystAlias = "ba"
)

var (
	ErrInvalidKey      = errors.New("category and id are required")
	ErrNilTemplate     = errors.New("template is nil")
	ErrInvalidTemplate = errors.New("template failed validation")
)

// Key identifies a template
type Key struct {
	Category string
	ID       string
}

// String returns "category/id"
func (k Key) String() string {
	return k.Category + "/" + k.ID
}

// Summary is the listing view of a template
type Summary struct {
	Category    string    `json:"category"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Tags        flow.Tags `json:"tags,omitempty"`
	IsComponent bool      `json:"is_component"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Overridden  bool      `json:"overridden"`
}

// Stats describes registry contents
type Stats struct {
	Categories   int       `json:"categories"`
	Templates    int       `json:"templates"`
	Overridden   bool      `json:"overridden"`
	OverriddenAt time.Time `json:"overridden_at,omitempty"`
}

// Option configures a Registry
type Option func(*Registry)

// WithAlias makes alias read the override slot, falling back to target.
// Promote stores the template under target.
func WithAlias(alias, target Key) Option {
	return func(r *Registry) {
		r.alias = alias
		r.target = target
	}
}

// WithObserver registers fn to receive stats after every write
func WithObserver(fn func(Stats)) Option {
	return func(r *Registry) {
		r.observer = fn
	}
}

// Registry maps (category, id) to templates and keeps one override slot
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]map[string]*flow.Template
	override     *flow.Template
	overrideSum  string
	overriddenAt time.Time

	alias    Key
	target   Key
	observer func(Stats)
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]map[string]*flow.Template),
		alias:   Key{Category: CategorySDLC, ID: BusinessAnalystAlias},
		target:  Key{Category: CategorySDLC, ID: BusinessAnalystID},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a copy of tpl under (category, id), replacing any previous entry
func (r *Registry) Register(category, id string, tpl *flow.Template) error {
	if category == "" || id == "" {
		return ErrInvalidKey
	}
	if tpl == nil {
		return ErrNilTemplate
	}
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, Key{category, id}, err)
	}

	cp := tpl.Clone()
	r.mu.Lock()
	r.put(category, id, cp)
	stats := r.statsLocked()
	r.mu.Unlock()

	r.notify(stats)
	return nil
}

// Resolve returns a copy of the template for (category, id).
// The alias key consults the override slot first.
func (r *Registry) Resolve(category, id string) (*flow.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := Key{Category: category, ID: id}
	if key == r.alias {
		if r.override != nil {
			return r.override.Clone(), true
		}
		key = r.target
	}

	tpl, ok := r.entries[key.Category][key.ID]
	if !ok {
		return nil, false
	}
	return tpl.Clone(), true
}

// SetOverride fills the override slot without touching the map; nil clears it
func (r *Registry) SetOverride(tpl *flow.Template) {
	cp, sum := tpl.Clone(), digest(tpl)
	r.mu.Lock()
	r.setOverrideLocked(cp, sum)
	stats := r.statsLocked()
	r.mu.Unlock()

	r.notify(stats)
}

// Override returns a copy of the override slot
func (r *Registry) Override() (*flow.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.override == nil {
		return nil, false
	}
	return r.override.Clone(), true
}

// Promote stores tpl under the alias target and fills the override slot in
// one critical section. When called concurrently, the last call wins for both.
// Promoting the template already in the slot leaves the registry as it was.
func (r *Registry) Promote(tpl *flow.Template) error {
	if tpl == nil {
		return ErrNilTemplate
	}
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, r.target, err)
	}

	stored, slot, sum := tpl.Clone(), tpl.Clone(), digest(tpl)
	r.mu.Lock()
	r.put(r.target.Category, r.target.ID, stored)
	r.setOverrideLocked(slot, sum)
	stats := r.statsLocked()
	r.mu.Unlock()

	r.notify(stats)
	return nil
}

// List returns summaries of the templates in category, sorted by id
func (r *Registry) List(category string) []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[category]
	out := make([]Summary, 0, len(entries))
	for id, tpl := range entries {
		overridden := r.override != nil && (Key{category, id}) == r.target
		out = append(out, summarize(category, id, tpl, overridden))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Categories returns the category names, sorted
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for category := range r.entries {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked()
}

func (r *Registry) put(category, id string, tpl *flow.Template) {
	bucket, ok := r.entries[category]
	if !ok {
		bucket = make(map[string]*flow.Template)
		r.entries[category] = bucket
	}
	bucket[id] = tpl
}

func (r *Registry) setOverrideLocked(tpl *flow.Template, sum string) {
	unchanged := tpl != nil && r.override != nil && sum != "" && sum == r.overrideSum
	r.override = tpl
	r.overrideSum = sum
	switch {
	case tpl == nil:
		r.overriddenAt = time.Time{}
	case !unchanged:
		r.overriddenAt = time.Now()
	}
}

// digest identifies template content; empty when it cannot be computed
func digest(tpl *flow.Template) string {
	if tpl == nil {
		return ""
	}
	sum, err := utils.DigestJSON(tpl)
	if err != nil {
		return ""
	}
	return sum
}

func (r *Registry) statsLocked() Stats {
	stats := Stats{
		Categories:   len(r.entries),
		Overridden:   r.override != nil,
		OverriddenAt: r.overriddenAt,
	}
	for _, bucket := range r.entries {
		stats.Templates += len(bucket)
	}
	return stats
}

func (r *Registry) notify(stats Stats) {
	if r.observer != nil {
		r.observer(stats)
	}
}

func summarize(category, id string, tpl *flow.Template, overridden bool) Summary {
	return Summary{
		Category:    category,
		ID:          id,
		Name:        tpl.Name,
		Description: tpl.Description,
		Icon:        tpl.Icon,
		Tags:        append(flow.Tags(nil), tpl.Tags...),
		IsComponent: tpl.IsComponent,
		Nodes:       len(tpl.Data.Nodes),
		Edges:       len(tpl.Data.Edges),
		Overridden:  overridden,
	}
}
