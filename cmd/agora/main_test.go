package main

import (
	"bytes"
	"strings"
	"testing"
)

// run executes the root command against an isolated state directory.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AGORA_HOME", home)
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestInitCreatesConfigAndDatabase(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "wrote") || !strings.Contains(out, "database ready") {
		t.Errorf("unexpected init output:\n%s", out)
	}

	out, err = run(t, home, "init")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "use --force") {
		t.Errorf("second init should refuse to overwrite, got:\n%s", out)
	}
}

func TestPostAndMessages(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, err := run(t, home, "post", "planning", "phase 1 kickoff", "--sender", "architect-1")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.Contains(out, "posted to planning (seq 1)") {
		t.Errorf("unexpected post output:\n%s", out)
	}

	out, err = run(t, home, "messages", "planning")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if !strings.Contains(out, "architect-1") || !strings.Contains(out, "phase 1 kickoff") {
		t.Errorf("unexpected messages output:\n%s", out)
	}
}

func TestRegisterHeartbeatAgents(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, err := run(t, home, "register", "coder-1", "--cap", "coding", "--cap", "testing", "--role", "implementer")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out, "registered coder-1 with 2 capabilities") {
		t.Errorf("unexpected register output:\n%s", out)
	}

	if _, err := run(t, home, "heartbeat", "coder-1"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	out, err = run(t, home, "agents")
	if err != nil {
		t.Fatalf("agents: %v", err)
	}
	if !strings.Contains(out, "coder-1") || !strings.Contains(out, "active") {
		t.Errorf("unexpected agents output:\n%s", out)
	}

	out, err = run(t, home, "agents", "--stop", "coder-1")
	if err != nil {
		t.Fatalf("agents --stop: %v", err)
	}
	if !strings.Contains(out, "marked coder-1 stopped") {
		t.Errorf("unexpected stop output:\n%s", out)
	}
}

func TestRegisterWarnsOnMissingDependencies(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, err := run(t, home, "register", "coder-1", "--cap", "coding", "--depends-on", "ghost-9")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out, "unregistered agents") || !strings.Contains(out, "ghost-9") {
		t.Errorf("expected missing-dependency warning, got:\n%s", out)
	}
}

func TestDepsLifecycle(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, home, "register", "coder-1", "--cap", "coding"); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := run(t, home, "deps", "add", "coder-1", "task-complete", "task-42")
	if err != nil {
		t.Fatalf("deps add: %v", err)
	}
	if !strings.Contains(out, "dependency 1: pending") {
		t.Errorf("unexpected deps add output:\n%s", out)
	}

	out, err = run(t, home, "deps", "list", "coder-1")
	if err != nil {
		t.Fatalf("deps list: %v", err)
	}
	if !strings.Contains(out, "task-complete") || !strings.Contains(out, "task-42") {
		t.Errorf("unexpected deps list output:\n%s", out)
	}

	// A completion event in any room satisfies the waiter.
	if _, err := run(t, home, "post", "coordination", "task-42 complete", "--sender", "tester-1", "--kind", "task-complete", "--task", "task-42"); err != nil {
		t.Fatalf("post completion: %v", err)
	}

	out, err = run(t, home, "deps", "check", "1")
	if err != nil {
		t.Fatalf("deps check: %v", err)
	}
	if !strings.Contains(out, "satisfied") {
		t.Errorf("dependency should be satisfied, got:\n%s", out)
	}
}

func TestDepsCycle(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, id := range []string{"alpha", "beta"} {
		if _, err := run(t, home, "register", id, "--cap", "coding"); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	if _, err := run(t, home, "deps", "add", "alpha", "task-complete", "beta"); err != nil {
		t.Fatalf("deps add alpha: %v", err)
	}
	if _, err := run(t, home, "deps", "add", "beta", "task-complete", "alpha"); err != nil {
		t.Fatalf("deps add beta: %v", err)
	}

	out, err := run(t, home, "deps", "cycle", "alpha")
	if err != nil {
		t.Fatalf("deps cycle: %v", err)
	}
	if !strings.Contains(out, "circular wait:") {
		t.Errorf("expected a circular wait report, got:\n%s", out)
	}
}

func TestStatusSummarizesBus(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, home, "register", "coder-1", "--cap", "coding"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := run(t, home, "post", "planning", "hello", "--sender", "coder-1"); err != nil {
		t.Fatalf("post: %v", err)
	}

	out, err := run(t, home, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"rooms:", "planning", "1 active"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, t.TempDir(), "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("version output empty")
	}
}
