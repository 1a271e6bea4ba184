package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	out := Template("<p>##MESSAGE##</p><i>##MESSAGE##</i>", `Route 7 <late> & "held"`)
	assert.Equal(t, "<p>Route 7 &lt;late&gt; &amp; &#34;held&#34;</p><i>Route 7 &lt;late&gt; &amp; &#34;held&#34;</i>", out)
}

func TestDefaultTemplate(t *testing.T) {
	assert.Contains(t, DefaultTemplate, MessagePlaceholder)
	assert.NotContains(t, Template(DefaultTemplate, "hi"), MessagePlaceholder)
}

func TestLoadTemplate(t *testing.T) {
	tpl, err := LoadTemplate("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, tpl)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.html")
	require.NoError(t, os.WriteFile(good, []byte("<b>##MESSAGE##</b>"), 0o644))
	tpl, err = LoadTemplate(good)
	require.NoError(t, err)
	assert.Equal(t, "<b>##MESSAGE##</b>", tpl)

	bad := filepath.Join(dir, "bad.html")
	require.NoError(t, os.WriteFile(bad, []byte("<b>static</b>"), 0o644))
	_, err = LoadTemplate(bad)
	assert.Error(t, err)

	_, err = LoadTemplate(filepath.Join(dir, "missing.html"))
	assert.Error(t, err)
}

func TestWithBase(t *testing.T) {
	assert.Equal(t, "<html>", withBase("<html>", ""))

	out := withBase("<html><HEAD lang=en><title>x</title></HEAD></html>", "http://static.example.com/")
	assert.True(t, strings.HasPrefix(out, `<html><HEAD lang=en><base href="http://static.example.com/">`))

	assert.Equal(t, `<base href="http://a/"><p>x</p>`, withBase("<p>x</p>", "http://a/"))
}
