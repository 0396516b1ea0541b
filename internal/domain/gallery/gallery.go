package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/GriffinCanCode/flowgallery/internal/shared/id"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
	"go.uber.org/zap"
)

// ErrTemplateNotFound is returned when a (category, id) pair has no template
var ErrTemplateNotFound = errors.New("template not found")

const defaultFetchTimeout = 30 * time.Second

var categoryTitles = map[string]string{
	registry.CategorySDLC: "Software Development Lifecycle",
}

// Fetcher loads a template from a remote store, reporting absence as false
type Fetcher interface {
	FetchTemplate(ctx context.Context, id string) (*flow.Template, bool)
}

// Category is a gallery tab
type Category struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Templates []registry.Summary `json:"templates"`
}

// Option configures a Gallery
type Option func(*Gallery)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gallery) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTemplateID sets the flow store id of the Business Analyst template
func WithTemplateID(templateID string) Option {
	return func(g *Gallery) {
		if templateID != "" {
			g.templateID = templateID
		}
	}
}

// WithFetchTimeout bounds background refreshes
func WithFetchTimeout(d time.Duration) Option {
	return func(g *Gallery) {
		if d > 0 {
			g.fetchTimeout = d
		}
	}
}

// Gallery serves templates and creates flows from them
type Gallery struct {
	registry     *registry.Registry
	fetcher      Fetcher
	flows        *flows.Manager
	logger       *zap.Logger
	templateID   string
	fetchTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	// pending asks the running refresh for one more pass
	pending bool
}

// New creates a gallery
func New(reg *registry.Registry, fetcher Fetcher, manager *flows.Manager, opts ...Option) *Gallery {
	g := &Gallery{
		registry:     reg,
		fetcher:      fetcher,
		flows:        manager,
		logger:       zap.NewNop(),
		templateID:   registry.BusinessAnalystID,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("gallery")
	return g
}

// Initialize fetches the Business Analyst template and promotes it on success.
// Failures leave the registry untouched.
func (g *Gallery) Initialize(ctx context.Context) {
	log := g.logger.With(
		zap.String("refresh_id", id.NewRefreshID().String()),
		zap.String("template_id", g.templateID))

	tpl, ok := g.fetcher.FetchTemplate(ctx, g.templateID)
	if !ok {
		log.Debug("remote template unavailable, keeping current copy")
		return
	}

	changed := g.differs(tpl)
	if err := g.registry.Promote(tpl); err != nil {
		log.Warn("rejected remote template", zap.Error(err))
		return
	}
	log.Info("business analyst template refreshed",
		zap.String("name", tpl.Name),
		zap.Int("nodes", len(tpl.Data.Nodes)),
		zap.Int("edges", len(tpl.Data.Edges)),
		zap.Bool("changed", changed))
}

// Start triggers the startup refresh
func (g *Gallery) Start() {
	g.Refresh()
}

// Refresh runs Initialize in the background. A call made while a refresh is
// running queues one more fetch after it, and calls made during the same run
// share that fetch. It reports whether a new background run was started.
func (g *Gallery) Refresh() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		g.pending = true
		return false
	}
	g.running = true
	g.wg.Add(1)
	go g.refreshLoop()
	return true
}

func (g *Gallery) refreshLoop() {
	defer g.wg.Done()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), g.fetchTimeout)
		g.Initialize(ctx)
		cancel()

		g.mu.Lock()
		if !g.pending {
			g.running = false
			g.mu.Unlock()
			return
		}
		g.pending = false
		g.mu.Unlock()
	}
}

// Wait blocks until background refreshes have finished
func (g *Gallery) Wait() {
	g.wg.Wait()
}

// Template resolves a template by category and id
func (g *Gallery) Template(category, templateID string) (*flow.Template, bool) {
	return g.registry.Resolve(category, templateID)
}

// Browse lists the templates of a category. Browsing sdlc also refreshes the
// Business Analyst template in the background.
func (g *Gallery) Browse(category string) ([]registry.Summary, bool) {
	if category == registry.CategorySDLC {
		g.Refresh()
	}
	list := g.registry.List(category)
	if len(list) == 0 {
		return nil, false
	}
	return list, true
}

// Categories returns every category with its template summaries
func (g *Gallery) Categories() []Category {
	names := g.registry.Categories()
	out := make([]Category, 0, len(names))
	for _, name := range names {
		out = append(out, Category{
			ID:        name,
			Title:     title(name),
			Templates: g.registry.List(name),
		})
	}
	return out
}

// CreateFlow instantiates the template at (category, id)
func (g *Gallery) CreateFlow(ctx context.Context, category, templateID string, opts flows.CreateOptions) (*flows.Flow, error) {
	tpl, ok := g.registry.Resolve(category, templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, category, templateID)
	}
	opts.Source = flows.Source{Category: category, TemplateID: templateID}

	f, err := g.flows.Create(ctx, tpl, opts)
	if err != nil {
		return nil, err
	}
	g.logger.Info("flow created from template",
		zap.String("flow_id", f.ID),
		zap.String("category", category),
		zap.String("template_id", templateID),
		zap.String("name", f.Name))
	return f, nil
}

// differs reports whether tpl differs from the Business Analyst copy currently served
func (g *Gallery) differs(tpl *flow.Template) bool {
	current, ok := g.registry.Resolve(registry.CategorySDLC, registry.BusinessAnalystAlias)
	if !ok {
		return true
	}
	a, errA := utils.DigestJSON(current)
	b, errB := utils.DigestJSON(tpl)
	return errA != nil || errB != nil || a != b
}

func title(category string) string {
	if t, ok := categoryTitles[category]; ok {
		return t
	}
	return category
}
