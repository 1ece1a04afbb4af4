package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_NoMarkers(t *testing.T) {
	out, err := RenderTemplate("plain prompt", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "plain prompt", out)
}

func TestRenderTemplate_Interpolation(t *testing.T) {
	out, err := RenderTemplate("Answer in {{.language}} for {{upper .audience}}.", map[string]string{
		"language": "German",
		"audience": "engineers",
	})
	require.NoError(t, err)
	assert.Equal(t, "Answer in German for ENGINEERS.", out)
}

func TestRenderTemplate_MissingKey(t *testing.T) {
	out, err := RenderTemplate("Tone: {{.tone}}.", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tone: .", out)
}

func TestRenderTemplate_Default(t *testing.T) {
	out, err := RenderTemplate(`Tone: {{default "neutral" .tone}}.`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Tone: neutral.", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("broken {{.", nil)
	assert.Error(t, err)
}
