package rowstore

import (
	"fmt"

	"deckpatch/internal/deck"
	"deckpatch/internal/textnorm"
)

// SourceCache opens each source document at most once per run.
type SourceCache struct {
	Open func(path string) (deck.Document, error)

	docs map[string]deck.Document
}

// NewSourceCache returns a cache backed by the given opener.
func NewSourceCache(open func(path string) (deck.Document, error)) *SourceCache {
	return &SourceCache{Open: open, docs: make(map[string]deck.Document)}
}

// Document returns the opened document for path, opening it on first use.
func (c *SourceCache) Document(path string) (deck.Document, error) {
	if doc, found := c.docs[path]; found {
		return doc, nil
	}
	doc, err := c.Open(path)
	if err != nil {
		return nil, err
	}
	if c.docs == nil {
		c.docs = make(map[string]deck.Document)
	}
	c.docs[path] = doc
	return doc, nil
}

// Close closes every opened document, keeping the first error.
func (c *SourceCache) Close() error {
	var firstErr error
	for path, doc := range c.docs {
		if err := doc.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", path, err)
		}
	}
	c.docs = nil
	return firstErr
}

// RebuildImage is one image selected for a rebuilt slide.
type RebuildImage struct {
	Blob []byte
	Hash string
}

// SlideContent is the material for one rebuilt slide, handed to the
// deck composer in row order.
type SlideContent struct {
	Row    Row
	Images []RebuildImage
}

// RebuildOptions controls source resolution during a rebuild.
type RebuildOptions struct {
	// CSVDir is the directory containing the CSV, used as a source-path
	// fallback.
	CSVDir string
	// Sources supplies opened source documents.
	Sources *SourceCache
}

// Rebuild resolves every row's images from its source document and hands
// the assembled slide content to emit, one call per row in row order. A
// row whose source cannot be opened, whose slide index is out of range,
// or whose image cannot be found is an error.
func Rebuild(rows []Row, opts RebuildOptions, emit func(SlideContent) error) error {
	for i, row := range rows {
		images, err := resolveImages(row, opts)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := emit(SlideContent{Row: row, Images: images}); err != nil {
			return err
		}
	}
	return nil
}

// resolveImages finds each recorded image in the source slide, matching by
// locator shape id first and recorded content hash second. The hash
// fallback covers locators whose shape ids were renumbered by a copy tool.
func resolveImages(row Row, opts RebuildOptions) ([]RebuildImage, error) {
	if len(row.ImageRefs) == 0 && len(row.ImageHashes) == 0 {
		return nil, nil
	}
	if len(row.ImageRefs) != len(row.ImageHashes) {
		return nil, fmt.Errorf("%d image_refs but %d image_hashes", len(row.ImageRefs), len(row.ImageHashes))
	}
	path, found := ResolveSourcePath(row.SourcePPTX, opts.CSVDir)
	if !found {
		return nil, fmt.Errorf("source file not found: %s", row.SourcePPTX)
	}
	doc, err := opts.Sources.Document(path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}
	slides := doc.Slides()
	if row.SourceSlideIndex < 1 || row.SourceSlideIndex > len(slides) {
		return nil, fmt.Errorf("slide index %d out of range for %s (%d slides)", row.SourceSlideIndex, path, len(slides))
	}
	available, err := CollectImages(slides[row.SourceSlideIndex-1], row.SourcePPTX, row.SourceSlideIndex)
	if err != nil {
		return nil, err
	}
	used := make([]bool, len(available))
	images := make([]RebuildImage, 0, len(row.ImageRefs))
	for i, ref := range row.ImageRefs {
		locator, err := ParseLocator(ref)
		if err != nil {
			return nil, err
		}
		idx := findImage(available, used, locator.ShapeID, row.ImageHashes[i])
		if idx < 0 {
			return nil, fmt.Errorf("image %s (hash %s) not found in %s slide %d", ref, row.ImageHashes[i], path, row.SourceSlideIndex)
		}
		used[idx] = true
		images = append(images, RebuildImage{
			Blob: available[idx].Blob,
			Hash: textnorm.DigestBytes(available[idx].Blob),
		})
	}
	return images, nil
}

func findImage(available []SlideImage, used []bool, shapeID int64, hash string) int {
	for i, image := range available {
		if !used[i] && image.ShapeID == shapeID {
			return i
		}
	}
	for i, image := range available {
		if !used[i] && image.Hash == hash {
			return i
		}
	}
	return -1
}
