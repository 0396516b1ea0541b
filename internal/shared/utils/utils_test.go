package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  string
	}{
		{name: "simple", id: "business-analyst"},
		{name: "underscore and digits", id: "ba_2"},
		{name: "optional empty", id: ""},
		{name: "required empty", id: "", required: true, wantErr: "is required"},
		{name: "slash", id: "a/b", wantErr: "invalid characters"},
		{name: "dot", id: "a.b", wantErr: "invalid characters"},
		{name: "space", id: "a b", wantErr: "invalid characters"},
		{name: "too long", id: strings.Repeat("a", MaxIDLength+1), wantErr: "must not exceed"},
		{name: "max length", id: strings.Repeat("a", MaxIDLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id", tt.required)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Business Analyst (2)", "name", true))
	assert.Error(t, ValidateName("", "name", true))
	assert.Error(t, ValidateName("bad\x00name", "name", true))
	assert.Error(t, ValidateName(strings.Repeat("n", MaxNameLength+1), "name", false))
}

func TestDigest(t *testing.T) {
	type doc struct {
		A string `json:"a"`
		B int    `json:"b"`
	}

	d1, err := DigestJSON(doc{A: "x", B: 1})
	require.NoError(t, err)
	d2, err := DigestJSON(doc{A: "x", B: 1})
	require.NoError(t, err)
	d3, err := DigestJSON(doc{A: "x", B: 2})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 64)

	tag, err := ETag(doc{A: "x", B: 1})
	require.NoError(t, err)
	assert.Equal(t, `"`+d1[:32]+`"`, tag)
}
