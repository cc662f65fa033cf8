package patch

import (
	"fmt"

	"deckpatch/internal/boxes"
	"deckpatch/internal/deck"
	"deckpatch/internal/signature"
	"deckpatch/internal/textnorm"
)

// ExportOptions selects which boxes the export covers.
type ExportOptions struct {
	IncludeNotes    bool
	IncludeSubtitle bool
	IncludeFooter   bool
}

// ExportResult carries the built patch file plus reporting detail.
type ExportResult struct {
	File *File
	// SlideCount is the number of slides that contributed at least one box.
	SlideCount int
	// BoxCount is the total number of exported boxes.
	BoxCount int
	// FallbackSlides lists 1-based indices of slides that needed the
	// fallback box-id scheme; callers warn about them because fallback ids
	// only survive as long as the document's shape ids do.
	FallbackSlides []int
}

// Export computes a patch record for every slide: the slide signature as
// the slide-level precondition and one box record per addressable box with
// its current text and text hash. Slides with no addressable boxes are
// omitted.
func Export(doc deck.Document, sourceName string, opts ExportOptions) (*ExportResult, error) {
	result := &ExportResult{File: &File{Version: Version, SourcePPTX: sourceName}}
	for i, slide := range doc.Slides() {
		index := i + 1
		slideHash, err := signature.Build(slide)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", index, err)
		}
		metas, usedFallback := boxes.Collect(slide, opts.IncludeSubtitle, opts.IncludeFooter)
		if usedFallback {
			result.FallbackSlides = append(result.FallbackSlides, index)
		}
		var records []BoxPatch
		for _, meta := range metas {
			text := boxes.TextBlock(meta.Shape)
			records = append(records, BoxPatch{
				BoxID:           meta.ID,
				Text:            text,
				TextHashBefore:  textnorm.Hash(text),
				ShapeName:       meta.ShapeName,
				PlaceholderType: meta.Placeholder,
			})
		}
		if opts.IncludeNotes {
			notes := slide.NotesText()
			records = append(records, BoxPatch{
				BoxID:           boxes.NotesBoxID,
				Text:            notes,
				TextHashBefore:  textnorm.Hash(notes),
				PlaceholderType: boxes.NotesBoxID,
			})
		}
		if len(records) == 0 {
			continue
		}
		result.SlideCount++
		result.BoxCount += len(records)
		result.File.Patches = append(result.File.Patches, SlidePatch{
			SourceSlideIndex: index,
			SlideHash:        slideHash,
			Boxes:            records,
		})
	}
	return result, nil
}
