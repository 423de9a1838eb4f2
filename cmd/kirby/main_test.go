package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirby/internal/config"
	"kirby/internal/perception"
)

// testEnv is one isolated kirby state directory.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"KIRBY_HISTORY_BACKEND", "AI_CLIENT", "OPENAI_API_KEY", "GEMINI_API_KEY", "KIRBY_MODEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("KIRBY_SESSION_DIR", filepath.Join(dir, "sessions"))
	return &testEnv{dir: dir, configPath: filepath.Join(dir, "config.yaml")}
}

// run executes one kirby invocation and returns its combined output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	_, err := e.runTo(t, &buf, &buf, args...)
	return buf.String(), err
}

// runTo executes one kirby invocation the way main does, writing to stdout
// and stderr, and returns the application context after shutdown.
func (e *testEnv) runTo(t *testing.T, stdout, stderr io.Writer, args ...string) (*app, error) {
	t.Helper()
	root, a := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	a.shutdown()
	return a, err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "kirby %s: %s", strings.Join(args, " "), out)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestPromptLifecycle(t *testing.T) {
	env := newTestEnv(t)

	assert.Contains(t, env.mustRun(t, "prompt", "add", "  Hello world  "), "✅ Added prompt: Hello world")
	assert.Contains(t, env.mustRun(t, "prompt", "add", "Hello", "world"), "⚠️  Prompt already present: Hello world")
	assert.Contains(t, env.mustRun(t, "prompt", "add", "   "), "Empty prompt: nothing added.")

	out := env.mustRun(t, "prompt", "list", "--depth")
	assert.Contains(t, out, "📜 Prompts:\n- Hello world")
	assert.Contains(t, out, "History depth: 2")

	assert.Contains(t, env.mustRun(t, "prompt", "undo"), "Reverted last prompt change.")
	assert.Contains(t, env.mustRun(t, "prompt", "list"), "📜 Prompts:\n(none)")
	assert.Contains(t, env.mustRun(t, "prompt", "undo"), "Nothing to undo.")
}

func TestPromptRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "prompt", "add", "one")
	env.mustRun(t, "prompt", "add", "two")
	assert.Contains(t, env.mustRun(t, "prompt", "remove", "ONE"), "Prompt not tracked: ONE")
	assert.Contains(t, env.mustRun(t, "prompt", "remove", "one"), "Removed prompt: one")
	assert.Contains(t, env.mustRun(t, "prompt", "clear"), "✅ Prompts cleared.")

	out := env.mustRun(t, "prompt", "list", "--depth")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "History depth: 1")
}

func TestFileAddExpandsDirectories(t *testing.T) {
	env := newTestEnv(t)
	project := filepath.Join(env.dir, "project")
	writeFile(t, filepath.Join(project, "a.go"), "package a")
	writeFile(t, filepath.Join(project, "sub", "b.go"), "package b")
	writeFile(t, filepath.Join(project, ".git", "config"), "[core]")

	out := env.mustRun(t, "file", "add", project)
	assert.Contains(t, out, "Added shared file: "+filepath.Join(project, "a.go"))
	assert.Contains(t, out, "Added shared file: "+filepath.Join(project, "sub", "b.go"))
	assert.NotContains(t, out, ".git")

	out = env.mustRun(t, "file", "list", "--depth")
	assert.Contains(t, out, "📁 Shared files:")
	assert.Contains(t, out, "History depth: 3")
}

func TestFileRemoveMissingPath(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "gone.txt")
	writeFile(t, path, "soon gone")

	env.mustRun(t, "process", "add", path)
	require.NoError(t, os.Remove(path))

	assert.Contains(t, env.mustRun(t, "process", "remove", path), "Removed processing file: "+path)
	assert.Contains(t, env.mustRun(t, "process", "add", path), "No files found under "+path)
}

func TestBlankPathIsRejected(t *testing.T) {
	env := newTestEnv(t)
	work := filepath.Join(env.dir, "work")
	writeFile(t, filepath.Join(work, "other.txt"), "other")
	writeFile(t, filepath.Join(work, "secret.txt"), "secret")
	t.Chdir(work)

	out := env.mustRun(t, "file", "add", "   ")
	assert.Contains(t, out, "⚠️  Empty shared file: nothing added.")
	assert.NotContains(t, out, "Added shared file")

	out = env.mustRun(t, "file", "list", "--depth")
	assert.Contains(t, out, "📁 Shared files:\n(none)")
	assert.Contains(t, out, "History depth: 1")

	env.mustRun(t, "process", "add", filepath.Join(work, "other.txt"))
	out = env.mustRun(t, "process", "remove", "")
	assert.Contains(t, out, "⚠️  Empty processing file: nothing removed.")
	assert.Contains(t, env.mustRun(t, "process", "list"), "- "+filepath.Join(work, "other.txt"))
}

func TestPersistenceFailureFailsCommand(t *testing.T) {
	env := newTestEnv(t)
	// A directory where the history file belongs cannot be read or replaced.
	require.NoError(t, os.MkdirAll(filepath.Join(env.dir, "sessions", "prompt_history.json"), 0755))

	var buf bytes.Buffer
	a, err := env.runTo(t, &buf, &buf, "prompt", "add", "never stored")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errReported))
	assert.Contains(t, err.Error(), "failed to open prompt")
	assert.NotContains(t, buf.String(), "Added prompt")
	assert.Nil(t, a.registry, "session must be closed after a failed command")

	// Other collections are unaffected.
	assert.Contains(t, env.mustRun(t, "url", "add", "https://example.com"), "Added URL: https://example.com")
}

func TestBootLogCarriesRunID(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.Session.Dir = filepath.Join(env.dir, "sessions")
	cfg.Logging.DebugMode = true
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(env.configPath))

	env.mustRun(t, "prompt", "list")

	matches, err := filepath.Glob(filepath.Join(env.dir, "logs", "*_boot.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[req:")
	assert.Contains(t, content, "cmd:kirby prompt list")
	assert.Contains(t, content, "Logs written to "+filepath.Join(env.dir, "logs"))
	assert.Contains(t, content, "kirby finished")
}

func TestShowAndClearAll(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "prompt", "add", "p1")
	env.mustRun(t, "url", "add", "https://example.com")

	out := env.mustRun(t, "show")
	for _, want := range []string{"📜 Prompts:\n- p1", "📁 Shared files:", "Processing files:", "🔗 URLs:\n- https://example.com"} {
		assert.Contains(t, out, want)
	}

	out = env.mustRun(t, "clear")
	for _, want := range []string{"Prompts cleared.", "Shared files cleared.", "Processing files cleared.", "URLs cleared."} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, env.mustRun(t, "url", "list"), "🔗 URLs:\n(none)")
}

func TestSQLiteBackend(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("KIRBY_HISTORY_BACKEND", "sqlite")

	env.mustRun(t, "prompt", "add", "stored in sqlite")
	assert.Contains(t, env.mustRun(t, "prompt", "list"), "- stored in sqlite")
	assert.FileExists(t, filepath.Join(env.dir, "sessions", "history.db"))
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("KIRBY_HISTORY_BACKEND", "redis")

	_, err := env.run(t, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestURLParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html><body><p>Example Domain</p></body></html>")
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.mustRun(t, "url", "add", srv.URL+"/page")

	out := env.mustRun(t, "url", "parse")
	assert.Contains(t, out, "🔗 "+srv.URL+"/page\nExample Domain")

	env.mustRun(t, "url", "add", srv.URL+"/missing")
	out, err := env.run(t, "url", "parse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, out, "❌ Failed to parse "+srv.URL+"/missing")
	assert.Contains(t, out, "Example Domain")
}

func TestPasteAndCopy(t *testing.T) {
	origRead, origWrite, origUnsupported := clipboardReadAll, clipboardWriteAll, clipboardUnsupported
	t.Cleanup(func() {
		clipboardReadAll, clipboardWriteAll, clipboardUnsupported = origRead, origWrite, origUnsupported
	})

	var copied string
	clipboardUnsupported = func() bool { return false }
	clipboardReadAll = func() (string, error) { return "  from the clipboard\n", nil }
	clipboardWriteAll = func(text string) error {
		copied = text
		return nil
	}

	env := newTestEnv(t)
	assert.Contains(t, env.mustRun(t, "paste"), "Added prompt: from the clipboard")

	src := filepath.Join(env.dir, "main.go")
	writeFile(t, src, "package main")
	env.mustRun(t, "file", "add", src)

	assert.Contains(t, env.mustRun(t, "copy"), "Copied context to clipboard")
	assert.Equal(t, "from the clipboard\n\n📁 Shared files:\n\nFile: "+src+"\n```\npackage main\n```", copied)
}

func TestPasteUnavailable(t *testing.T) {
	origUnsupported := clipboardUnsupported
	t.Cleanup(func() { clipboardUnsupported = origUnsupported })
	clipboardUnsupported = func() bool { return true }

	env := newTestEnv(t)
	for _, name := range []string{"paste", "copy"} {
		var stdout, stderr bytes.Buffer
		_, err := env.runTo(t, &stdout, &stderr, name)
		require.ErrorIs(t, err, errReported, name)
		assert.Contains(t, stdout.String(), "Clipboard not available on this system", name)
		assert.Empty(t, stderr.String(), name)
	}
}

func TestAskRaw(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"**42**"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.Session.Dir = filepath.Join(env.dir, "sessions")
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = srv.URL + "/v1"
	require.NoError(t, cfg.Save(env.configPath))

	env.mustRun(t, "prompt", "add", "What is the answer?")
	out := env.mustRun(t, "ask", "--raw", "Be", "brief")
	assert.Equal(t, "**42**\n", out)
	assert.Contains(t, body, "What is the answer?")
	assert.Contains(t, body, "Be brief")
}

func TestAskWithoutProvider(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "ask", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, perception.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "AI_CLIENT")
}
