// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fic-tools/rentafic-bot/internal/app"
)

// writeConfig drops a YAML config into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_Success(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, `
download:
  url: https://reports.example.com/rentabilidades.pdf
paths:
  json_status_file: `+filepath.Join(dir, "processed.json")+`
  debug_file: `+filepath.Join(dir, "first_page.md")+`
  raw_pdf_base: `+filepath.Join(dir, "raw")+`
llama_parse:
  provider: local
logging:
  format: console
`)

	a, err := app.New(context.Background(), cfgPath)
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close()

	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Runner())
	assert.Equal(t, "https://reports.example.com/rentabilidades.pdf", a.Config().Download.URL)

	led, err := a.Ledger()
	require.NoError(t, err)
	assert.Zero(t, led.Len())
}

func TestNew_MissingURLFails(t *testing.T) {
	cfgPath := writeConfig(t, `
llama_parse:
  provider: local
`)

	_, err := app.New(context.Background(), cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download.url")
}

func TestNew_LlamaProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("LLAMA_CLOUD_API_KEY", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, `
download:
  url: https://reports.example.com/rentabilidades.pdf
paths:
  json_status_file: `+filepath.Join(dir, "processed.json")+`
  debug_file: `+filepath.Join(dir, "first_page.md")+`
  raw_pdf_base: `+filepath.Join(dir, "raw")+`
`)

	_, err := app.New(context.Background(), cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llamaparse")
}
