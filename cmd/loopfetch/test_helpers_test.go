package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"loopfetch/internal/config"
	"loopfetch/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// feedEnv is an in-process feed origin plus a config file pointing at it.
type feedEnv struct {
	srv        *httptest.Server
	cfg        *config.Config
	configPath string

	mu   sync.Mutex
	hits int
}

func (e *feedEnv) hitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits
}

// newFeedEnv serves a garageband catalog with one 2016 sub-feed containing
// one mandatory and one optional package.
func newFeedEnv(t *testing.T) *feedEnv {
	t.Helper()

	env := &feedEnv{}
	payload := bytes.Repeat([]byte("a"), 16_384)

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/catalog.plist", func(w http.ResponseWriter, r *http.Request) {
		w.Write(testsupport.CatalogPlist(t,
			map[string]map[string][]string{
				"garageband": {"2016": {"garageband1012.plist"}},
			},
			[]string{"2016"},
		))
	})
	mux.HandleFunc("/lp10_ms3_content_2016/garageband1012.plist", func(w http.ResponseWriter, r *http.Request) {
		w.Write(testsupport.SubFeedPlist(t,
			testsupport.SubFeedEntry{ID: "1", Name: "gbcore.pkg", Mandatory: true, Size: len(payload)},
			testsupport.SubFeedEntry{ID: "2", Name: "gbextra.pkg", Size: len(payload)},
		))
	})
	packages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(payload)
	})
	mux.Handle("/lp10_ms3_content_2016/gbcore.pkg", packages)
	mux.Handle("/lp10_ms3_content_2016/gbextra.pkg", packages)

	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.hits++
		env.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(env.srv.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithFeedBases(
			env.srv.URL+"/feeds/catalog.plist",
			env.srv.URL+"/lp10_ms3_content_",
			env.srv.URL+"/lp10_ms3_content_",
		))
	env.cfg = cfg
	env.configPath = writeTestConfig(t, cfg)
	return env
}
