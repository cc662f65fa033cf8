// Package boxes enumerates the addressable text regions of a slide and
// assigns each a stable, human-meaningful identifier.
//
// The primary pass covers placeholder shapes only: the title becomes
// "title", the subtitle "subtitle" (when requested), body-like placeholders
// "body_1", "body_2", ... in shape order, and the footer "footer" (when
// requested). When a slide has no placeholder text at all, a fallback pass
// covers free text boxes using a normalized shape name or, failing that, a
// "box_<n>_<guard>" id whose guard hashes the shape's internal id (or its
// ordinal when the shape carries no id). The guard is stable across
// re-opens of the same bytes but not across external id renumbering, which
// is why the fallback flag is surfaced to callers.
package boxes

import (
	"fmt"
	"strconv"
	"strings"

	"deckpatch/internal/deck"
	"deckpatch/internal/textnorm"
)

// NotesBoxID is the sentinel box id addressing the speaker notes.
const NotesBoxID = "notes"

// Meta describes one addressable box on a slide.
type Meta struct {
	ID string
	// Shape is the backing shape. Nil for the notes sentinel, which callers
	// append themselves.
	Shape deck.Shape
	// ShapeName is kept for diagnostics only; ids never depend on it in the
	// placeholder pass.
	ShapeName string
	// Placeholder is the readable placeholder label, empty for fallback
	// boxes.
	Placeholder string
}

// Collect returns the slide's addressable boxes and whether the fallback
// pass was used. Boxes are returned in shape order.
func Collect(slide deck.Slide, includeSubtitle, includeFooter bool) ([]Meta, bool) {
	used := make(map[string]struct{})
	var metas []Meta
	bodyCount := 0
	for _, shape := range slide.Shapes() {
		if !shape.HasTextFrame() || !shape.IsPlaceholder() {
			continue
		}
		pt := shape.Placeholder()
		id := ""
		switch {
		case pt.IsTitle():
			id = "title"
		case pt == deck.PlaceholderSubtitle:
			if includeSubtitle {
				id = "subtitle"
			}
		case pt.IsBody():
			bodyCount++
			id = "body_" + strconv.Itoa(bodyCount)
		case pt == deck.PlaceholderFooter:
			if includeFooter {
				id = "footer"
			}
		}
		if id == "" {
			continue
		}
		metas = append(metas, Meta{
			ID:          EnsureUnique(id, used),
			Shape:       shape,
			ShapeName:   shape.Name(),
			Placeholder: pt.String(),
		})
	}
	if len(metas) > 0 {
		return metas, false
	}

	var fallback []Meta
	fallbackIndex := 0
	for _, shape := range slide.Shapes() {
		if !shape.HasTextFrame() || shape.IsPlaceholder() {
			continue
		}
		id := textnorm.NormalizeSimpleName(shape.Name())
		if id == "" {
			fallbackIndex++
			// Guard on the shape id; shapes without one fall back to their
			// ordinal so id-less boxes still get distinct guards.
			guardSource := shape.ID()
			if guardSource == 0 {
				guardSource = int64(fallbackIndex)
			}
			guard := textnorm.HashBytes([]byte(strconv.FormatInt(guardSource, 10)))[:8]
			id = fmt.Sprintf("box_%d_%s", fallbackIndex, guard)
		}
		fallback = append(fallback, Meta{
			ID:        EnsureUnique(id, used),
			Shape:     shape,
			ShapeName: shape.Name(),
		})
	}
	return fallback, len(fallback) > 0
}

// EnsureUnique reserves id in used, appending _2, _3, ... on collision in
// discovery order.
func EnsureUnique(id string, used map[string]struct{}) string {
	if _, taken := used[id]; !taken {
		used[id] = struct{}{}
		return id
	}
	for counter := 2; ; counter++ {
		candidate := id + "_" + strconv.Itoa(counter)
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}

// TextBlock renders a shape's text frame as tab-indented lines joined by
// newlines, the flat form exported to and applied from patch files.
func TextBlock(shape deck.Shape) string {
	if shape == nil || !shape.HasTextFrame() {
		return ""
	}
	var lines []string
	for _, p := range shape.Paragraphs() {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		lines = append(lines, strings.Repeat("\t", p.Level)+text)
	}
	return strings.Join(lines, "\n")
}
