package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"deckpatch/internal/config"
	"deckpatch/internal/convert"
	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerFor returns a component logger. Construction failures fall back
// to a no-op logger rather than blocking the command.
func (c *commandContext) loggerFor(component string) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return logging.NewComponentLogger(c.logger, component)
}

func (c *commandContext) converter() (convert.Converter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return convert.New(cfg.Soffice.Binary, cfg.Paths.StagingDir, cfg.Soffice.ConvertTimeout)
}

// convertibleExtensions are Impress-readable inputs converted to PPTX
// before opening.
var convertibleExtensions = map[string]bool{
	".odp": true,
	".ppt": true,
	".pps": true,
}

// openDeck opens a deck input, converting non-PPTX formats through
// LibreOffice first. The returned source name is the original input's
// base name, so rows and locators reference what the user provided.
func (c *commandContext) openDeck(ctx context.Context, inputPath string) (deck.Document, string, error) {
	expanded, err := config.ExpandPath(inputPath)
	if err != nil {
		return nil, "", err
	}
	sourceName := filepath.Base(inputPath)

	openPath := expanded
	if convertibleExtensions[strings.ToLower(filepath.Ext(expanded))] {
		converter, err := c.converter()
		if err != nil {
			return nil, "", err
		}
		cfg := c.configValue()
		converted, err := converter.Convert(ctx, expanded, "pptx", cfg.Paths.StagingDir)
		if err != nil {
			return nil, "", fmt.Errorf("convert %s: %w", inputPath, err)
		}
		openPath = converted
	}

	doc, err := ooxml.Open(openPath)
	if err != nil {
		return nil, "", err
	}
	return doc, sourceName, nil
}

// writeDeckOutput saves a deck to outputPath via save. When the output
// extension asks for ODP, the deck is saved as PPTX in staging and
// converted back out through LibreOffice.
func (c *commandContext) writeDeckOutput(ctx context.Context, save func(path string) error, outputPath string) error {
	if strings.ToLower(filepath.Ext(outputPath)) != ".odp" {
		return save(outputPath)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	staging, err := os.MkdirTemp(cfg.Paths.StagingDir, "save-")
	if err != nil {
		return fmt.Errorf("create save staging: %w", err)
	}
	defer os.RemoveAll(staging)

	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	intermediate := filepath.Join(staging, base+".pptx")
	if err := save(intermediate); err != nil {
		return err
	}

	converter, err := c.converter()
	if err != nil {
		return err
	}
	produced, err := converter.Convert(ctx, intermediate, "odp", filepath.Dir(outputPath))
	if err != nil {
		return fmt.Errorf("convert output to odp: %w", err)
	}
	if produced != outputPath {
		if err := os.Rename(produced, outputPath); err != nil {
			return fmt.Errorf("move converted output: %w", err)
		}
	}
	return nil
}
