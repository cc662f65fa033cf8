package testsupport

import (
	"path/filepath"
	"testing"

	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
)

// PNGStub is a minimal payload that sniffs as a PNG.
var PNGStub = []byte("\x89PNG\r\n\x1a\nstub-image-bytes")

// WriteDeck composes a presentation from the given slides and writes it to
// dir/name, returning the full path.
func WriteDeck(t testing.TB, dir, name string, slides ...ooxml.SlideSpec) string {
	t.Helper()

	writer := ooxml.NewWriter()
	for _, slide := range slides {
		writer.AddSlide(slide)
	}
	path := filepath.Join(dir, name)
	if err := writer.Save(path); err != nil {
		t.Fatalf("write deck %s: %v", path, err)
	}
	return path
}

// TwoSlideDeck writes the standard two-slide fixture: a titled slide with
// nested bullets, notes, and one image, followed by a plain appendix slide.
func TwoSlideDeck(t testing.TB, dir, name string) string {
	t.Helper()

	return WriteDeck(t, dir, name,
		ooxml.SlideSpec{
			Title: "Quarterly Plan",
			Body: []deck.Paragraph{
				{Text: "Goals"},
				{Level: 1, Text: "Ship v2"},
			},
			Notes:  "presenter reminder",
			Images: [][]byte{PNGStub},
		},
		ooxml.SlideSpec{
			Title: "Appendix",
			Body:  []deck.Paragraph{{Text: "References"}},
		},
	)
}
