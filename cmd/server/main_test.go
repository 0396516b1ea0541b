package main

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FLOW_STORE_URL", "")
	t.Setenv("FLOW_STORE_API_KEY", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplatesGet(t *testing.T) {
	out, err := run(t, "templates", "get", "sdlc", "ba")
	require.NoError(t, err)

	var tpl map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &tpl))
	assert.Equal(t, "Business Analyst", tpl["name"])
}

func TestTemplatesList(t *testing.T) {
	out, err := run(t, "templates", "list")
	require.NoError(t, err)

	var categories []map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "sdlc", categories[0]["id"])

	out, err = run(t, "templates", "list", "sdlc")
	require.NoError(t, err)
	var summaries []map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &summaries))
	assert.NotEmpty(t, summaries)
}

func TestTemplatesErrors(t *testing.T) {
	_, err := run(t, "templates", "get", "sdlc", "missing")
	assert.ErrorContains(t, err, "template sdlc/missing not found")

	_, err = run(t, "templates", "list", "marketing")
	assert.ErrorContains(t, err, `category "marketing" not found`)

	_, err = run(t, "templates", "get", "sdlc", "ba", "--remote")
	assert.ErrorContains(t, err, "--remote needs")

	_, err = run(t, "templates", "get", "sdlc")
	assert.Error(t, err)
}
