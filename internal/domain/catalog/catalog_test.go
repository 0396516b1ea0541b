package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triageYAML = `
name: Jira Triage
description: Summarise new Jira issues
tags: [jira, sdlc]
data:
  nodes:
    - id: jira
      type: genericNode
      data:
        type: JiraComponent
        node:
          display_name: Jira Issues
          outputs:
            - name: issues
    - id: out
      type: genericNode
      data:
        type: ChatOutput
        node:
          display_name: Chat Output
  edges:
    - id: e1
      source: jira
      target: out
      sourceHandle: issues
  viewport: {x: 0, y: 0, zoom: 1}
`

func TestEmbeddedCatalog(t *testing.T) {
	entries, errs := Load(FS())
	require.Empty(t, errs)
	require.Len(t, entries, 1)

	ba := entries[0]
	assert.Equal(t, registry.CategorySDLC, ba.Category)
	assert.Equal(t, registry.BusinessAnalystID, ba.ID)
	assert.Equal(t, "Business Analyst", ba.Template.Name)
	assert.Len(t, ba.Template.Data.Nodes, 4)
	assert.Len(t, ba.Template.Data.Edges, 3)
	assert.True(t, ba.Template.Tags.Has("sdlc"))
}

func TestSeedEmbedded(t *testing.T) {
	reg := registry.New()
	result := Seed(reg, FS(), nil)

	assert.Equal(t, Result{Loaded: 1}, result)
	assert.Equal(t, []string{registry.CategorySDLC}, reg.Categories())

	tpl, ok := reg.Resolve(registry.CategorySDLC, registry.BusinessAnalystID)
	require.True(t, ok)
	assert.Equal(t, "Business Analyst", tpl.Name)

	viaAlias, ok := reg.Resolve(registry.CategorySDLC, registry.BusinessAnalystAlias)
	require.True(t, ok)
	assert.Equal(t, tpl, viaAlias)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"sdlc/jira-triage.yaml": {Data: []byte(triageYAML)},
		"sdlc/broken.json":      {Data: []byte(`{"name":`)},
		"sdlc/README.md":        {Data: []byte("ignored")},
		"top-level.json":        {Data: []byte(`{}`)},
		"a/b/nested.json":       {Data: []byte(`{}`)},
	}

	entries, errs := Load(fsys)
	require.Len(t, entries, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "sdlc/broken.json")

	e := entries[0]
	assert.Equal(t, "sdlc", e.Category)
	assert.Equal(t, "jira-triage", e.ID)
	assert.Equal(t, "Jira Triage", e.Template.Name)
	assert.Equal(t, flow.Tags{"jira", "sdlc"}, e.Template.Tags)
	assert.Len(t, e.Template.Data.Edges, 1)
}

type failingRegistrar struct{}

func (failingRegistrar) Register(string, string, *flow.Template) error {
	return errors.New("rejected")
}

func TestSeedCountsFailures(t *testing.T) {
	fsys := fstest.MapFS{
		"sdlc/jira-triage.yml": {Data: []byte(triageYAML)},
		"sdlc/broken.json":     {Data: []byte(`{"name": ""}`)},
	}

	assert.Equal(t, Result{Loaded: 1, Failed: 1}, Seed(registry.New(), fsys, nil))
	assert.Equal(t, Result{Loaded: 0, Failed: 2}, Seed(failingRegistrar{}, fsys, nil))
}
