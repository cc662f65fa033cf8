package patch

import (
	"fmt"

	"deckpatch/internal/boxes"
	"deckpatch/internal/deck"
	"deckpatch/internal/signature"
	"deckpatch/internal/textnorm"
)

// Outcome is the closed result set for one box of one slide patch.
// Mismatches are outcomes, never errors: the caller must handle every
// bucket explicitly.
type Outcome int

const (
	Applied Outcome = iota
	SkippedLocked
	MissingTarget
	TextMismatch
	SlideMismatch
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case SkippedLocked:
		return "skipped_locked"
	case MissingTarget:
		return "missing_target"
	case TextMismatch:
		return "text_mismatch"
	case SlideMismatch:
		return "slide_mismatch"
	}
	return "unknown"
}

// Counters aggregates apply outcomes. The five buckets are independent by
// design; there is no single "failed" total because each bucket implies a
// different remediation.
type Counters struct {
	Updated       int
	SkippedLocked int
	MissingTarget int
	TextMismatch  int
	SlideMismatch int
}

func (c *Counters) record(outcome Outcome) {
	switch outcome {
	case Applied:
		c.Updated++
	case SkippedLocked:
		c.SkippedLocked++
	case MissingTarget:
		c.MissingTarget++
	case TextMismatch:
		c.TextMismatch++
	case SlideMismatch:
		c.SlideMismatch++
	}
}

// Clean reports whether the run applied without any mismatch or missing
// target. Only a clean run counts as fully applied.
func (c Counters) Clean() bool {
	return c.MissingTarget == 0 && c.TextMismatch == 0 && c.SlideMismatch == 0
}

// BoxResult records the outcome for one box of one slide patch.
type BoxResult struct {
	SlideIndex int
	BoxID      string
	Outcome    Outcome
}

// ApplyOptions controls precondition enforcement and box matching.
type ApplyOptions struct {
	// Force applies edits even when slide or box hashes disagree. It never
	// bypasses locks or structural limits.
	Force           bool
	IncludeSubtitle bool
	IncludeFooter   bool
}

// Apply writes a patch file's box texts into doc under the two-level
// optimistic-concurrency precondition: the slide signature must match
// first, then each box's current text hash. Boxes are re-resolved fresh
// from the live document, never from export-time state. Rewriting a box
// with text identical to its current content still counts as updated.
func Apply(doc deck.Document, file *File, opts ApplyOptions) (Counters, []BoxResult, error) {
	if err := file.Validate(); err != nil {
		return Counters{}, nil, err
	}
	slides := doc.Slides()
	var counters Counters
	var results []BoxResult
	record := func(index int, boxID string, outcome Outcome) {
		counters.record(outcome)
		results = append(results, BoxResult{SlideIndex: index, BoxID: boxID, Outcome: outcome})
	}

	for _, slidePatch := range file.Patches {
		index := slidePatch.SourceSlideIndex
		if index < 1 || index > len(slides) {
			for _, box := range slidePatch.Boxes {
				record(index, box.BoxID, MissingTarget)
			}
			continue
		}
		slide := slides[index-1]

		currentHash, err := signature.Build(slide)
		if err != nil {
			return counters, results, fmt.Errorf("slide %d: %w", index, err)
		}
		if currentHash != slidePatch.SlideHash && !opts.Force {
			for _, box := range slidePatch.Boxes {
				record(index, box.BoxID, SlideMismatch)
			}
			continue
		}

		metas, _ := boxes.Collect(slide, opts.IncludeSubtitle, opts.IncludeFooter)
		byID := make(map[string]boxes.Meta, len(metas))
		for _, meta := range metas {
			byID[meta.ID] = meta
		}

		for _, box := range slidePatch.Boxes {
			if box.Skip() {
				record(index, box.BoxID, SkippedLocked)
				continue
			}
			if box.BoxID == boxes.NotesBoxID {
				outcome, err := applyNotes(slide, box, opts.Force)
				if err != nil {
					return counters, results, fmt.Errorf("slide %d notes: %w", index, err)
				}
				record(index, box.BoxID, outcome)
				continue
			}
			meta, found := byID[box.BoxID]
			if !found {
				record(index, box.BoxID, MissingTarget)
				continue
			}
			outcome, err := applyBox(meta.Shape, box, opts.Force)
			if err != nil {
				return counters, results, fmt.Errorf("slide %d box %s: %w", index, box.BoxID, err)
			}
			record(index, box.BoxID, outcome)
		}
	}
	return counters, results, nil
}

func applyBox(shape deck.Shape, box BoxPatch, force bool) (Outcome, error) {
	if !force {
		current := boxes.TextBlock(shape)
		if textnorm.Hash(current) != box.TextHashBefore {
			return TextMismatch, nil
		}
	}
	text, err := box.ResolveText()
	if err != nil {
		return MissingTarget, err
	}
	var paragraphs []deck.Paragraph
	for _, line := range textnorm.ParseTabIndented(text, false) {
		paragraphs = append(paragraphs, deck.Paragraph{Level: line.Level, Text: line.Text})
	}
	if err := shape.SetParagraphs(paragraphs); err != nil {
		return MissingTarget, err
	}
	return Applied, nil
}

func applyNotes(slide deck.Slide, box BoxPatch, force bool) (Outcome, error) {
	if !force {
		if textnorm.Hash(slide.NotesText()) != box.TextHashBefore {
			return TextMismatch, nil
		}
	}
	text, err := box.ResolveText()
	if err != nil {
		return MissingTarget, err
	}
	if err := slide.SetNotesText(text); err != nil {
		return MissingTarget, err
	}
	return Applied, nil
}
