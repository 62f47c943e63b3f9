package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	want := []string{"serve", "ask", "ingest", "status", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion := AppVersion
	AppVersion = "1.2.3-test"
	defer func() { AppVersion = origVersion }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "GeoChain 1.2.3-test") {
		t.Errorf("version output = %q, want it to contain %q", buf.String(), "GeoChain 1.2.3-test")
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ask"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Error("Execute() with no question should fail argument validation")
	}
}

func TestIngestRequiresExactlyOneFile(t *testing.T) {
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ingest", "a.jsonl", "b.jsonl"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Error("Execute() with two files should fail argument validation")
	}
}

func TestRenderMarkdownKeepsContent(t *testing.T) {
	out := renderMarkdown("The assembly approved the reform [1].")
	if !strings.Contains(out, "assembly") || !strings.Contains(out, "[1]") {
		t.Errorf("renderMarkdown() = %q, want content preserved", out)
	}
}
