package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Template is a reusable flow definition shown in the gallery
type Template struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name" validate:"required,max=256"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon,omitempty"`
	IsComponent  bool       `json:"is_component"`
	Tags         Tags       `json:"tags,omitempty"`
	UserID       string     `json:"user_id,omitempty"`
	FolderID     *string    `json:"folder_id,omitempty"`
	EndpointName *string    `json:"endpoint_name,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
	Data         Graph      `json:"data"`
	Extra        Extra      `json:"-"`
}

// Graph is the node and edge payload of a flow
type Graph struct {
	Nodes    []Node   `json:"nodes" validate:"dive"`
	Edges    []Edge   `json:"edges" validate:"dive"`
	Viewport Viewport `json:"viewport"`
	Extra    Extra    `json:"-"`
}

// Viewport is the canvas position the editor opens at
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom" validate:"gte=0"`
}

// Position is a node's canvas coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one component instance on the canvas
type Node struct {
	ID       string   `json:"id" validate:"required"`
	Type     string   `json:"type" validate:"required"`
	Position Position `json:"position"`
	Width    float64  `json:"width,omitempty" validate:"gte=0"`
	Height   float64  `json:"height,omitempty" validate:"gte=0"`
	Data     NodeData `json:"data"`
	Extra    Extra    `json:"-"`
}

// NodeData names the component a node runs and carries its configuration
type NodeData struct {
	ID    string     `json:"id"`
	Type  string     `json:"type" validate:"required"`
	Node  NodeConfig `json:"node"`
	Extra Extra      `json:"-"`
}

// NodeConfig is the component configuration block
type NodeConfig struct {
	DisplayName   string           `json:"display_name"`
	Description   string           `json:"description,omitempty"`
	Documentation string           `json:"documentation,omitempty"`
	Icon          string           `json:"icon,omitempty"`
	BaseClasses   []string         `json:"base_classes,omitempty"`
	Template      map[string]Field `json:"template,omitempty"`
	Outputs       []Output         `json:"outputs,omitempty"`
	Extra         Extra            `json:"-"`
}

// Field is one configurable input of a component
type Field struct {
	Type        string   `json:"type,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Info        string   `json:"info,omitempty"`
	Value       any      `json:"value,omitempty"`
	Options     []any    `json:"options,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Advanced    bool     `json:"advanced,omitempty"`
	Password    bool     `json:"password,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
	InputTypes  []string `json:"input_types,omitempty"`
	Extra       Extra    `json:"-"`
}

// Output is a named output handle of a component
type Output struct {
	Name        string   `json:"name" validate:"required"`
	DisplayName string   `json:"display_name,omitempty"`
	Method      string   `json:"method,omitempty"`
	Types       []string `json:"types,omitempty"`
	Extra       Extra    `json:"-"`
}

// Edge connects an output handle of one node to an input handle of another
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
	Extra        Extra  `json:"-"`
}

// Tags is a set of labels kept sorted and free of duplicates
type Tags []string

// Normalize trims, lowercases, de-duplicates and sorts the tags
func (t Tags) Normalize() Tags {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(t))
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Has reports whether tag is in the set
func (t Tags) Has(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Decode parses and validates a template
func Decode(data []byte) (*Template, error) {
	var tpl Template
	if err := sonic.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	tpl.Tags = tpl.Tags.Normalize()
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Encode serializes a template
func Encode(tpl *Template) ([]byte, error) {
	return sonic.Marshal(tpl)
}

// Clone returns a deep copy. Nested values decoded from JSON (field values,
// options) are copied through a serialization round trip.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	data, err := sonic.Marshal(t)
	if err == nil {
		var out Template
		if err = sonic.Unmarshal(data, &out); err == nil {
			return &out
		}
	}
	return t.shallowClone()
}

func (t *Template) shallowClone() *Template {
	out := *t
	out.Tags = append(Tags(nil), t.Tags...)
	out.Data.Nodes = append([]Node(nil), t.Data.Nodes...)
	out.Data.Edges = append([]Edge(nil), t.Data.Edges...)
	return &out
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}
