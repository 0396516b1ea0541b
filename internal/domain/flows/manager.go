package flows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/shared/id"
	"github.com/GriffinCanCode/flowgallery/internal/shared/utils"
)

var (
	ErrNilTemplate = errors.New("template is nil")
	ErrNotFound    = errors.New("flow not found")
)

// Source records which gallery entry a flow was created from
type Source struct {
	Category   string `json:"category,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
}

// Flow is an editable instance of a template
type Flow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon,omitempty"`
	IsComponent bool       `json:"is_component"`
	Tags        flow.Tags  `json:"tags,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	FolderID    *string    `json:"folder_id,omitempty"`
	Data        flow.Graph `json:"data"`
	Source      Source     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateOptions customizes a new flow
type CreateOptions struct {
	// Name overrides the template name
	Name     string
	UserID   string
	FolderID *string
	Source   Source
}

// Stats describes the flows held by a Manager
type Stats struct {
	Total      int            `json:"total"`
	ByTemplate map[string]int `json:"by_template"`
}

// Recorder receives flow lifecycle events
type Recorder interface {
	RecordFlowCreated(category string)
	SetFlowsActive(n int)
}

// Manager creates and stores flows
type Manager struct {
	flows sync.Map
	// mu serializes writers so name de-duplication sees a stable set
	mu       sync.Mutex
	count    int
	recorder Recorder
	now      func() time.Time
}

// NewManager creates a flow manager
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// WithMetrics sets the metrics recorder
func (m *Manager) WithMetrics(rec Recorder) *Manager {
	m.recorder = rec
	return m
}

// Path is the navigation target of a flow in the editor
func Path(flowID string) string {
	return "/flow/" + flowID
}

// Create instantiates tpl as a new flow
func (m *Manager) Create(ctx context.Context, tpl *flow.Template, opts CreateOptions) (*Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrNilTemplate
	}

	base := tpl.Name
	if opts.Name != "" {
		base = opts.Name
	}
	if err := utils.ValidateName(base, "name", true); err != nil {
		return nil, err
	}

	src := tpl.Clone()
	now := m.now().UTC()
	f := &Flow{
		ID:          id.NewFlowID().String(),
		Description: src.Description,
		Icon:        src.Icon,
		IsComponent: src.IsComponent,
		Tags:        src.Tags,
		UserID:      opts.UserID,
		FolderID:    copyString(opts.FolderID),
		Data:        src.Data,
		Source:      opts.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	f.Name = m.uniqueName(base, f.FolderID)
	m.flows.Store(f.ID, f)
	m.count++
	active := m.count
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordFlowCreated(opts.Source.Category)
		m.recorder.SetFlowsActive(active)
	}
	return cloneFlow(f), nil
}

// Get returns a copy of the flow with the given id
func (m *Manager) Get(flowID string) (*Flow, bool) {
	val, ok := m.flows.Load(flowID)
	if !ok {
		return nil, false
	}
	return cloneFlow(val.(*Flow)), true
}

// List returns flows ordered by creation time, optionally limited to a folder.
// An empty folder id selects flows without a folder.
func (m *Manager) List(folderID *string) []*Flow {
	var out []*Flow
	m.flows.Range(func(_, value any) bool {
		f := value.(*Flow)
		if folderID == nil || sameFolder(f.FolderID, folderID) {
			out = append(out, cloneFlow(f))
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes a flow
func (m *Manager) Delete(flowID string) error {
	m.mu.Lock()
	_, ok := m.flows.LoadAndDelete(flowID)
	if ok {
		m.count--
	}
	active := m.count
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, flowID)
	}
	if m.recorder != nil {
		m.recorder.SetFlowsActive(active)
	}
	return nil
}

// Stats returns flow counts
func (m *Manager) Stats() Stats {
	stats := Stats{ByTemplate: make(map[string]int)}
	m.flows.Range(func(_, value any) bool {
		f := value.(*Flow)
		stats.Total++
		if f.Source.TemplateID != "" {
			stats.ByTemplate[f.Source.Category+"/"+f.Source.TemplateID]++
		}
		return true
	})
	return stats
}

// uniqueName must be called with mu held
func (m *Manager) uniqueName(base string, folderID *string) string {
	taken := make(map[string]struct{})
	m.flows.Range(func(_, value any) bool {
		f := value.(*Flow)
		if sameFolder(f.FolderID, folderID) {
			taken[f.Name] = struct{}{}
		}
		return true
	})

	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)", base, n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

func sameFolder(a, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFlow(f *Flow) *Flow {
	cp := *f
	cp.FolderID = copyString(f.FolderID)
	cp.Tags = append(flow.Tags(nil), f.Tags...)
	graph := (&flow.Template{Data: f.Data}).Clone()
	cp.Data = graph.Data
	return &cp
}
