package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/daemon"
	"partscope/internal/imagestore"
	"partscope/internal/insight"
	"partscope/internal/logging"
	"partscope/internal/testsupport"
	"partscope/internal/workflow"
)

// shadeClassifier scores images by payload size.
type shadeClassifier struct{}

func (shadeClassifier) Classify(_ context.Context, data []byte) (classifier.Result, error) {
	return classifier.Result{Score: float64(len(data)%100) / 100}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	server     *httptest.Server
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, mutate ...func(*config.Config)) *cliTestEnv {
	t.Helper()
	t.Setenv("PARTSCOPE_API_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	cfg := testsupport.NewConfig(t, testsupport.WithStatusUpdates(false))
	for _, fn := range mutate {
		fn(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	images, err := imagestore.New(cfg.Paths.ImagesDir)
	if err != nil {
		t.Fatalf("imagestore.New: %v", err)
	}
	cls := shadeClassifier{}
	engine := workflow.NewEngine(store, images, cls, insight.Heuristic{}, logging.NewNop(), workflow.OptionsFromConfig(cfg))
	d, err := daemon.New(cfg, daemon.Deps{Store: store, Engine: engine, Classifier: cls}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "partscope.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{cfg: cfg, server: srv, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, args, e.server.URL, e.configPath)
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("partscope %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// writeImages writes n distinct PNG files and returns their paths.
func (e *cliTestEnv) writeImages(t *testing.T, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(e.baseDir, "part-"+string(rune('a'+i))+".png")
		if err := os.WriteFile(paths[i], testsupport.PNG(t, 4+i, 4+i, uint8(i*40)), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	return paths
}

func runCLI(t *testing.T, args []string, server, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	flags := []string{}
	if server != "" {
		flags = append(flags, "--server", server)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
