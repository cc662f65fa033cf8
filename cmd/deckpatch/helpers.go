package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolvePair folds an enable/disable flag pair over a configured default.
// The disable flag wins when both are set.
func resolvePair(enabled, disabled bool, def bool) bool {
	if disabled {
		return false
	}
	if enabled {
		return true
	}
	return def
}

// expandInputGlobs resolves each argument as a glob pattern, keeping plain
// paths as-is when they match nothing as a pattern.
func expandInputGlobs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// replaceExtension swaps a path's extension, appending when there is none.
func replaceExtension(path, newExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + newExt
}

// derivedOutputPath appends a suffix before the extension, e.g.
// deck.pptx -> deck_edited.pptx.
func derivedOutputPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
