package flowstore

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/GriffinCanCode/flowgallery/internal/domain/catalog"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/gallery"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// editorFlow is a flow as the editor saves it: encoded edge handles and
// component keys the template model does not name
func editorFlow(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../domain/flow/testdata/editor_flow.json")
	require.NoError(t, err)
	return data
}

func serveEditorFlow(t *testing.T, raw []byte) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FLOWS/7f1c", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})
}

func TestGetEditorDocument(t *testing.T) {
	t.Parallel()
	raw := editorFlow(t)
	c := serveEditorFlow(t, raw)

	tpl, err := c.Get(context.Background(), "7f1c")
	require.NoError(t, err)
	require.Len(t, tpl.Data.Edges, 1)
	assert.True(t, flow.IsEncodedHandle(tpl.Data.Edges[0].SourceHandle))

	out, err := flow.Encode(tpl)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))

	got, ok := c.FetchTemplate(context.Background(), "7f1c")
	require.True(t, ok)
	assert.Equal(t, tpl, got)
}

func TestEditorDocumentPromotedThroughGallery(t *testing.T) {
	t.Parallel()
	raw := editorFlow(t)
	c := serveEditorFlow(t, raw)

	reg := registry.New()
	require.Equal(t, 1, catalog.Seed(reg, catalog.FS(), nil).Loaded)
	g := gallery.New(reg, c, flows.NewManager(), gallery.WithTemplateID("7f1c"))
	g.Initialize(context.Background())

	for _, id := range []string{registry.BusinessAnalystAlias, registry.BusinessAnalystID} {
		tpl, ok := g.Template(registry.CategorySDLC, id)
		require.True(t, ok, id)
		out, err := flow.Encode(tpl)
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(out), id)
	}

	f, err := g.CreateFlow(context.Background(), registry.CategorySDLC, registry.BusinessAnalystAlias, flows.CreateOptions{})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &doc))
	want, err := sonic.Marshal(doc["data"])
	require.NoError(t, err)
	got, err := sonic.Marshal(f.Data)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}
