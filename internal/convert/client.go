// Package convert shells out to LibreOffice to turn ODP decks (and other
// Impress-readable formats) into PPTX files the pipeline can open.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Converter defines the behaviour required by commands that accept
// non-PPTX inputs or produce non-PPTX outputs.
type Converter interface {
	Convert(ctx context.Context, inputPath, targetFormat, destDir string) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithOutputHook forwards soffice output lines, one call per line.
func WithOutputHook(hook func(string)) Option {
	return func(c *Client) {
		c.onOutput = hook
	}
}

// Client wraps headless LibreOffice CLI interactions.
type Client struct {
	binary     string
	stagingDir string
	timeout    time.Duration
	exec       Executor
	onOutput   func(string)
}

// New constructs a conversion client. An empty binary falls back to
// discovery via well-known install paths and PATH.
func New(binary, stagingDir string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		found, err := DiscoverBinary()
		if err != nil {
			return nil, err
		}
		binary = found
	}
	client := &Client{
		binary:     binary,
		stagingDir: stagingDir,
		timeout:    time.Duration(timeoutSeconds) * time.Second,
		exec:       commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// sofficeCandidates are checked before falling back to PATH lookup.
var sofficeCandidates = []string{
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/soffice",
	"/usr/local/bin/soffice",
	"/opt/homebrew/bin/soffice",
}

// DiscoverBinary locates a LibreOffice soffice binary.
func DiscoverBinary() (string, error) {
	for _, candidate := range sofficeCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("soffice"); err == nil {
		return path, nil
	}
	return "", errors.New("soffice binary not found; install LibreOffice or set soffice.binary in the config")
}

// Convert runs soffice headless against inputPath and moves the produced
// file into destDir, returning its path. Conversion runs in a fresh
// staging directory so concurrent conversions cannot collide on
// LibreOffice's fixed output naming.
func (c *Client) Convert(ctx context.Context, inputPath, targetFormat, destDir string) (string, error) {
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	targetFormat = strings.TrimPrefix(strings.TrimSpace(targetFormat), ".")
	if targetFormat == "" {
		targetFormat = "pptx"
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("conversion input: %w", err)
	}
	if destDir == "" {
		destDir = filepath.Dir(inputPath)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create conversion destination: %w", err)
	}

	staging := filepath.Join(c.stagingRoot(), "convert-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("create conversion staging: %w", err)
	}
	defer os.RemoveAll(staging)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"--headless",
		"--norestore",
		"--safe-mode",
		"--convert-to", targetFormat,
		"--outdir", staging,
		inputPath,
	}
	if err := c.exec.Run(runCtx, c.binary, args, c.onOutput); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("soffice conversion timed out after %s: %w", c.timeout, err)
		}
		return "", fmt.Errorf("soffice conversion: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	produced := filepath.Join(staging, base+"."+targetFormat)
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("soffice produced no output for %s; check the input file", inputPath)
	}

	destPath := filepath.Join(destDir, base+"."+targetFormat)
	if err := moveFile(produced, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

func (c *Client) stagingRoot() string {
	if c.stagingDir != "" {
		return c.stagingDir
	}
	return os.TempDir()
}

// moveFile renames across a filesystem boundary by falling back to copy.
func moveFile(src, dest string) error {
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing conversion target: %w", err)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open conversion output: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create conversion target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy conversion output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("finish conversion target: %w", err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
