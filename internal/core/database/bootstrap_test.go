package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBootstrapSQL(t *testing.T) {
	script, err := renderBootstrapSQL(768)
	require.NoError(t, err)

	assert.Contains(t, script, "vector(768)")
	assert.NotContains(t, script, "{{EMBED_DIM}}")
}

func TestRenderBootstrapSQLDefaultsDimension(t *testing.T) {
	script, err := renderBootstrapSQL(0)
	require.NoError(t, err)

	assert.Contains(t, script, "vector(1536)")
	assert.NotContains(t, script, "{{EMBED_DIM}}")
}
