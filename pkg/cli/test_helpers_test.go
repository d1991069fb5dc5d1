package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"duoctl/internal/admintwin"
)

const (
	testIKey = "DIPARENTXXXXXXXXXXXX"
	testSKey = "parent-secret-key-0123456789"
)

// isolateEnv points HOME at a temp dir and clears DUOCTL_* variables so the
// developer's profile never leaks into a test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"DUOCTL_HOST", "DUOCTL_IKEY", "DUOCTL_SKEY", "DUOCTL_OUTPUT", "DUOCTL_LOG_LEVEL", "DUOCTL_JOURNAL"} {
		t.Setenv(k, "")
	}
	return home
}

// startTwin serves a fresh admin twin for the test.
func startTwin(t *testing.T) (*admintwin.Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := admintwin.New(admintwin.Config{IKey: testIKey, SKey: testSKey}, nil)
	hs := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(hs.Close)
	return srv, hs.URL
}

// runCLI executes the root command with empty stdin and returns stdout,
// stderr, and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}

func runCLIWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// twinArgs prefixes args with credentials for the twin at url.
func twinArgs(url string, args ...string) []string {
	return append([]string{"--host", url, "--ikey", testIKey, "--skey", testSKey}, args...)
}

func mutationOps(srv *admintwin.Server) []string {
	var ops []string
	for _, c := range srv.Store().Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}
