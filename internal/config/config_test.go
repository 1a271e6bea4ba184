package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tagprint.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Printer.Address)
	assert.Equal(t, 1, cfg.Printer.Channel)
	assert.Equal(t, 115200, cfg.Printer.BaudRate)
	assert.Equal(t, "zpl", cfg.Printer.Language)
	assert.Equal(t, "ezpl.print_width", cfg.Printer.PrintWidthSetting)
	assert.Equal(t, "text", cfg.Print.Mode)
	assert.Equal(t, 20, cfg.Print.Padding)
	assert.Equal(t, 100, cfg.Print.YOffset)
	assert.Equal(t, 1024, cfg.Render.Width)
	assert.Equal(t, 15*time.Second, cfg.Render.Timeout)
	assert.Equal(t, ":8765", cfg.Tags.ListenAddr)
	assert.True(t, cfg.Tags.MDNS)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[printer]
address = "AC:3F:A4:11:22:33"
language = "TSPL"

[print]
mode = "image"
padding = 10

[render]
timeout = "3s"
base_url = "http://static.example.com/"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "AC:3F:A4:11:22:33", cfg.Printer.Address)
	assert.Equal(t, "tspl", cfg.Printer.Language)
	assert.Equal(t, "image", cfg.Print.Mode)
	assert.Equal(t, 10, cfg.Print.Padding)
	assert.Equal(t, 3*time.Second, cfg.Render.Timeout)
	assert.Equal(t, "http://static.example.com/", cfg.Render.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[printer]
address = "AC:3F:A4:11:22:33"
`)
	t.Setenv("TAGPRINT_PRINTER_ADDRESS", "tcp://10.0.0.5:9100")
	t.Setenv("TAGPRINT_TAGS_MDNS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.5:9100", cfg.Printer.Address)
	assert.False(t, cfg.Tags.MDNS)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"bad language", "[printer]\nlanguage = \"escpos\"\n", ErrInvalidLanguage},
		{"bad mode", "[print]\nmode = \"pdf\"\n", ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("zero timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[render]\ntimeout = \"0s\"\n"))
		assert.Error(t, err)
	})
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
