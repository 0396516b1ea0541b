package flow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid template")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and graph consistency
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalid)
	}
	if err := structValidator().Struct(t); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(fieldErrs))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := t.Data.validateLinks(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (g *Graph) validateLinks() error {
	nodes := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		nodes[n.ID] = n
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID != "" {
			if _, dup := edgeIDs[e.ID]; dup {
				return fmt.Errorf("duplicate edge id %q", e.ID)
			}
			edgeIDs[e.ID] = struct{}{}
		}

		src, ok := nodes[e.Source]
		if !ok {
			return fmt.Errorf("edge %q: unknown source node %q", e.ID, e.Source)
		}
		dst, ok := nodes[e.Target]
		if !ok {
			return fmt.Errorf("edge %q: unknown target node %q", e.ID, e.Target)
		}
		if e.Source == e.Target {
			return fmt.Errorf("edge %q: node %q connects to itself", e.ID, e.Source)
		}
		out, err := outputName(e.SourceHandle)
		if err != nil {
			return fmt.Errorf("edge %q: source %w", e.ID, err)
		}
		if out != "" && len(src.Data.Node.Outputs) > 0 && !src.hasOutput(out) {
			return fmt.Errorf("edge %q: node %q has no output %q", e.ID, e.Source, out)
		}
		in, err := inputName(e.TargetHandle)
		if err != nil {
			return fmt.Errorf("edge %q: target %w", e.ID, err)
		}
		if in != "" && len(dst.Data.Node.Template) > 0 {
			if _, ok := dst.Data.Node.Template[in]; !ok {
				return fmt.Errorf("edge %q: node %q has no input %q", e.ID, e.Target, in)
			}
		}
	}
	return nil
}

func (n *Node) hasOutput(name string) bool {
	for _, o := range n.Data.Node.Outputs {
		if o.Name == name {
			return true
		}
	}
	return false
}

func describe(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.TrimPrefix(fe.Namespace(), "Template.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
