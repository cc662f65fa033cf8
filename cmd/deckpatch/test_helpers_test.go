package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/testsupport"
)

type cliTestEnv struct {
	baseDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	return &cliTestEnv{baseDir: base}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeDeckFixture composes the standard two-slide deck under dir.
func writeDeckFixture(t *testing.T, dir, name string) string {
	t.Helper()
	return testsupport.TwoSlideDeck(t, dir, name)
}

func bodyTextOf(t *testing.T, deckPath string, slideIndex int) string {
	t.Helper()
	doc, err := ooxml.Open(deckPath)
	if err != nil {
		t.Fatalf("open %s: %v", deckPath, err)
	}
	defer doc.Close()
	slides := doc.Slides()
	if slideIndex < 1 || slideIndex > len(slides) {
		t.Fatalf("slide %d out of range (%d slides)", slideIndex, len(slides))
	}
	for _, shape := range slides[slideIndex-1].Shapes() {
		if shape.IsPlaceholder() && shape.Placeholder().IsBody() {
			var lines []string
			for _, paragraph := range shape.Paragraphs() {
				lines = append(lines, strings.Repeat("\t", paragraph.Level)+paragraph.Text)
			}
			return strings.Join(lines, "\n")
		}
	}
	t.Fatalf("slide %d has no body placeholder", slideIndex)
	return ""
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
