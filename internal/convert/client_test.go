package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckpatch/internal/convert"
	"deckpatch/internal/testsupport"
)

type stubExecutor struct {
	err   error
	calls int
	args  [][]string
	// run, when set, is invoked with the parsed --outdir value so tests
	// can simulate soffice writing its output file.
	run func(outDir string) error
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	if s.run != nil {
		if err := s.run(outDirArg(args)); err != nil {
			return err
		}
	}
	return s.err
}

func outDirArg(args []string) string {
	for i, arg := range args {
		if arg == "--outdir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("odp-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertProducesOutput(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp, "talk.odp")
	exec := &stubExecutor{
		run: func(outDir string) error {
			return os.WriteFile(filepath.Join(outDir, "talk.pptx"), []byte("pptx-bytes"), 0o644)
		},
	}
	cfg := testsupport.NewConfig(t, testsupport.WithSofficeBinary("soffice"))
	client, err := convert.New(cfg.Soffice.Binary, cfg.Paths.StagingDir, cfg.Soffice.ConvertTimeout, convert.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	destDir := filepath.Join(tmp, "out")
	path, err := client.Convert(context.Background(), input, "pptx", destDir)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if filepath.Base(path) != "talk.pptx" {
		t.Fatalf("expected talk.pptx, got %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if exec.calls != 1 {
		t.Fatalf("expected one soffice invocation, got %d", exec.calls)
	}
	joined := strings.Join(exec.args[0], " ")
	for _, want := range []string{"--headless", "--norestore", "--convert-to pptx", input} {
		if !strings.Contains(joined, want) {
			t.Errorf("soffice args missing %q: %s", want, joined)
		}
	}
}

func TestConvertHonorsTargetFormat(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp, "talk.pptx")
	exec := &stubExecutor{
		run: func(outDir string) error {
			return os.WriteFile(filepath.Join(outDir, "talk.odp"), []byte("odp-bytes"), 0o644)
		},
	}
	client, err := convert.New("soffice", tmp, 5, convert.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	path, err := client.Convert(context.Background(), input, "odp", tmp)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if filepath.Base(path) != "talk.odp" {
		t.Fatalf("expected talk.odp, got %q", filepath.Base(path))
	}
	if !strings.Contains(strings.Join(exec.args[0], " "), "--convert-to odp") {
		t.Errorf("soffice args missing --convert-to odp: %v", exec.args[0])
	}
}

func TestConvertCleansStaging(t *testing.T) {
	tmp := t.TempDir()
	staging := filepath.Join(tmp, "staging")
	input := writeInput(t, tmp, "talk.odp")
	exec := &stubExecutor{
		run: func(outDir string) error {
			if !strings.HasPrefix(outDir, staging) {
				t.Errorf("conversion must stage under %s, got %s", staging, outDir)
			}
			return os.WriteFile(filepath.Join(outDir, "talk.pptx"), []byte("pptx"), 0o644)
		},
	}
	client, err := convert.New("soffice", staging, 5, convert.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Convert(context.Background(), input, "pptx", tmp); err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staging directory must be cleaned up, found %d entries", len(entries))
	}
}

func TestConvertErrorsWhenNoOutputProduced(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp, "talk.odp")
	client, err := convert.New("soffice", tmp, 5, convert.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Convert(context.Background(), input, "pptx", tmp)
	if err == nil {
		t.Fatal("expected error when soffice produces no output")
	}
	if !strings.Contains(err.Error(), "no output") {
		t.Fatalf("expected 'no output' error, got: %v", err)
	}
}

func TestConvertReturnsExecutorError(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp, "talk.odp")
	client, err := convert.New("soffice", tmp, 5, convert.WithExecutor(&stubExecutor{err: errors.New("boom")}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Convert(context.Background(), input, "pptx", tmp); err == nil {
		t.Fatal("expected error from executor")
	}
}

func TestConvertRejectsMissingInput(t *testing.T) {
	client, err := convert.New("soffice", t.TempDir(), 5, convert.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Convert(context.Background(), filepath.Join(t.TempDir(), "absent.odp"), "pptx", ""); err == nil {
		t.Fatal("expected error for missing input")
	}
}
