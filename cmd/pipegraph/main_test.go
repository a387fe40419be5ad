package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/pipegraph/bootstrap"
	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/logger"
)

const pipelineFile = `id: p1
stages:
  - id: dev
  - id: prod
edges:
  - id: e1
    from: {id: dev}
    to: {id: prod}
    gates:
      - {id: g1, type: APPROVAL, state: OPEN}
      - {id: j1, type: JOB, state: PENDING}
`

const meshFile = `{"edges": [
  {"id": "m1", "from": {"id": "a", "name": "api", "namespace": "shop"}, "to": {"id": "b", "name": "db", "namespace": "shop"}},
  {"id": "m2", "from": {"id": "a", "name": "api", "namespace": "shop"}, "to": {"id": "x", "name": "internet"}}
]}`

func testApp(t *testing.T) *bootstrap.App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Layout.FrameDelay = time.Millisecond
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	return app
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runLayoutFor(t *testing.T, flags layoutFlags, path string) controller.Snapshot {
	t.Helper()
	layoutOpts, sizesFile, layoutLimit = flags, "", 5*time.Second
	var out bytes.Buffer
	if err := runLayout(context.Background(), testApp(t), path, &out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	var snap struct {
		Version     uint64 `json:"version"`
		Provisional bool   `json:"provisional"`
		Graph       struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"graph"`
	}
	if err := json.Unmarshal(out.Bytes(), &snap); err != nil {
		t.Fatalf("decode %s: %v", out.String(), err)
	}
	if snap.Provisional {
		t.Error("expected the refined snapshot")
	}
	ids := make([]string, 0, len(snap.Graph.Nodes))
	for _, n := range snap.Graph.Nodes {
		ids = append(ids, n.ID)
	}
	t.Logf("nodes: %v", ids)
	return controller.Snapshot{Version: snap.Version, Provisional: snap.Provisional}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"pipeline", "TREE", "Mesh", "stack"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("dag"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRunLayoutPipeline(t *testing.T) {
	snap := runLayoutFor(t, layoutFlags{kind: "pipeline"}, write(t, "p.yaml", pipelineFile))
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
}

func TestRunLayoutMesh(t *testing.T) {
	runLayoutFor(t, layoutFlags{kind: "mesh", namespace: "shop"}, write(t, "m.json", meshFile))
}

func TestRunLayoutWithSizes(t *testing.T) {
	path := write(t, "p.yaml", pipelineFile)
	sizes := write(t, "sizes.json", `{"dev": {"width": 120, "height": 60}}`)

	layoutOpts, sizesFile, layoutLimit = layoutFlags{kind: "pipeline"}, sizes, 5*time.Second
	defer func() { sizesFile = "" }()
	var out bytes.Buffer
	if err := runLayout(context.Background(), testApp(t), path, &out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"width": 120`)) {
		t.Errorf("expected measured size in output, got %s", out.String())
	}
}

func TestRunLayoutErrors(t *testing.T) {
	layoutOpts, sizesFile, layoutLimit = layoutFlags{kind: "pipeline"}, "", time.Second
	if err := runLayout(context.Background(), testApp(t), filepath.Join(t.TempDir(), "missing.yaml"), &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
	layoutOpts.kind = "dag"
	if err := runLayout(context.Background(), testApp(t), write(t, "p.yaml", pipelineFile), &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSetupServeRegistersComponents(t *testing.T) {
	app := testApp(t)
	app.Cfg.Server.Addr = "127.0.0.1:0"
	app.Cfg.Watch.Enabled = true
	serveOpts = layoutFlags{kind: "pipeline"}

	if err := setupServe(context.Background(), app, write(t, "p.yaml", pipelineFile)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	for _, name := range []string{"sse", "view:pipeline", "watcher", "http-server"} {
		if app.Components.Get(name) == nil {
			t.Errorf("expected component %q", name)
		}
	}
}
