package patch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckpatch/internal/boxes"
	"deckpatch/internal/deck"
	"deckpatch/internal/deck/memdeck"
	"deckpatch/internal/patch"
)

func geom() deck.Geometry {
	return deck.Geometry{Left: 0, Top: 0, Width: 100, Height: 100}
}

// oneSlideDeck builds the §export scenario deck: title "Hi", body A/B.
func oneSlideDeck() *memdeck.Deck {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddPlaceholder(deck.PlaceholderTitle, "Title 1", geom(), deck.Paragraph{Text: "Hi"})
	s.AddPlaceholder(deck.PlaceholderBody, "Content 2", geom(),
		deck.Paragraph{Text: "A"}, deck.Paragraph{Text: "B"})
	return d
}

func TestExportOneSlide(t *testing.T) {
	doc := oneSlideDeck()
	result, err := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	file := result.File
	if file.Version != patch.Version || file.SourcePPTX != "deck.pptx" {
		t.Fatalf("header = %+v", file)
	}
	if len(file.Patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(file.Patches))
	}
	slide := file.Patches[0]
	if slide.SourceSlideIndex != 1 || len(slide.SlideHash) != 16 {
		t.Fatalf("slide patch = %+v", slide)
	}
	if len(slide.Boxes) != 2 || slide.Boxes[0].BoxID != "title" || slide.Boxes[1].BoxID != "body_1" {
		t.Fatalf("boxes = %+v", slide.Boxes)
	}
	if slide.Boxes[1].Text != "A\nB" {
		t.Fatalf("body text = %q", slide.Boxes[1].Text)
	}
	if result.SlideCount != 1 || result.BoxCount != 2 || len(result.FallbackSlides) != 0 {
		t.Fatalf("result counts = %+v", result)
	}
}

func TestExportNotesAndFallbackReporting(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddTextBox("Free Box", geom(), deck.Paragraph{Text: "floating"})
	s.SetNotes("remember this")

	result, err := patch.Export(d, "deck.pptx", patch.ExportOptions{IncludeNotes: true})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(result.FallbackSlides) != 1 || result.FallbackSlides[0] != 1 {
		t.Fatalf("fallback slides = %v", result.FallbackSlides)
	}
	boxList := result.File.Patches[0].Boxes
	if boxList[len(boxList)-1].BoxID != boxes.NotesBoxID {
		t.Fatalf("expected trailing notes box, got %+v", boxList)
	}
	if boxList[len(boxList)-1].Text != "remember this" {
		t.Fatalf("notes text = %q", boxList[len(boxList)-1].Text)
	}
}

func TestApplyEditedBody(t *testing.T) {
	doc := oneSlideDeck()
	exported, err := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	file := exported.File
	// Edit body_1 to bullets A, C in the "YAML".
	file.Patches[0].Boxes[1].Text = ""
	file.Patches[0].Boxes[1].Bullets = []string{"A", "C"}

	counters, _, err := patch.Apply(doc, file, patch.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Rewriting the unchanged title still counts as updated.
	if counters.Updated != 2 || !counters.Clean() {
		t.Fatalf("counters = %+v", counters)
	}
	body := doc.Slides()[0].Shapes()[1]
	if got := boxes.TextBlock(body); got != "A\nC" {
		t.Fatalf("body after apply = %q, want A\\nC", got)
	}
}

func TestApplySlideHashMismatchSkipsWholeSlide(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})

	// External mutation after export: title text changed.
	title := doc.Slides()[0].Shapes()[0]
	if err := title.SetParagraphs([]deck.Paragraph{{Text: "Hello"}}); err != nil {
		t.Fatalf("SetParagraphs: %v", err)
	}

	counters, results, err := patch.Apply(doc, exported.File, patch.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if counters.SlideMismatch != 2 || counters.Updated != 0 {
		t.Fatalf("counters = %+v", counters)
	}
	for _, result := range results {
		if result.Outcome != patch.SlideMismatch {
			t.Fatalf("result = %+v", result)
		}
	}
	// Zero box mutations on the mismatched slide.
	body := doc.Slides()[0].Shapes()[1]
	if got := boxes.TextBlock(body); got != "A\nB" {
		t.Fatalf("body mutated despite mismatch: %q", got)
	}
}

func TestApplyForceIsIdempotent(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	file := exported.File
	file.Patches[0].Boxes[0].Text = "New Title"

	// Invalidate both precondition levels, then force twice.
	title := doc.Slides()[0].Shapes()[0]
	if err := title.SetParagraphs([]deck.Paragraph{{Text: "Drifted"}}); err != nil {
		t.Fatalf("SetParagraphs: %v", err)
	}
	for run := 0; run < 2; run++ {
		counters, _, err := patch.Apply(doc, file, patch.ApplyOptions{Force: true})
		if err != nil {
			t.Fatalf("Apply run %d: %v", run, err)
		}
		if counters.Updated != 2 {
			t.Fatalf("run %d counters = %+v", run, counters)
		}
		if got := boxes.TextBlock(doc.Slides()[0].Shapes()[0]); got != "New Title" {
			t.Fatalf("run %d title = %q", run, got)
		}
	}
}

func TestApplyTextMismatchIsPerBox(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	file := exported.File
	// Stale box hash for body only; slide hash forced to current so the
	// box-level check is what trips.
	file.Patches[0].Boxes[1].TextHashBefore = strings.Repeat("0", 16)

	counters, _, err := patch.Apply(doc, file, patch.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if counters.Updated != 1 || counters.TextMismatch != 1 {
		t.Fatalf("counters = %+v", counters)
	}
	if got := boxes.TextBlock(doc.Slides()[0].Shapes()[1]); got != "A\nB" {
		t.Fatalf("mismatched box mutated: %q", got)
	}
}

func TestApplyMissingTargets(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	file := exported.File
	file.Patches[0].Boxes[0].BoxID = "body_9"
	file.Patches = append(file.Patches, patch.SlidePatch{
		SourceSlideIndex: 7,
		SlideHash:        strings.Repeat("a", 16),
		Boxes:            []patch.BoxPatch{{BoxID: "title", TextHashBefore: strings.Repeat("a", 16)}},
	})

	counters, _, err := patch.Apply(doc, file, patch.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if counters.MissingTarget != 2 {
		t.Fatalf("counters = %+v", counters)
	}
}

func TestApplyLockedBoxesUntouched(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	file := exported.File
	file.Patches[0].Boxes[0].Locked = true
	file.Patches[0].Boxes[0].Text = "Should Not Land"
	file.Patches[0].Boxes[1].EditStatus = "frozen"
	file.Patches[0].Boxes[1].Text = "Should Not Land Either"

	counters, _, err := patch.Apply(doc, file, patch.ApplyOptions{Force: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if counters.SkippedLocked != 2 || counters.Updated != 0 {
		t.Fatalf("counters = %+v", counters)
	}
	if got := boxes.TextBlock(doc.Slides()[0].Shapes()[0]); got != "Hi" {
		t.Fatalf("locked box mutated: %q", got)
	}
}

func TestApplyNotesBox(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddPlaceholder(deck.PlaceholderTitle, "Title 1", geom(), deck.Paragraph{Text: "T"})
	s.SetNotes("old notes")

	exported, _ := patch.Export(d, "deck.pptx", patch.ExportOptions{IncludeNotes: true})
	file := exported.File
	file.Patches[0].Boxes[1].Text = "new notes"

	counters, _, err := patch.Apply(d, file, patch.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if counters.Updated != 2 {
		t.Fatalf("counters = %+v", counters)
	}
	if got := d.Slides()[0].(*memdeck.Slide).NotesText(); got != "new notes" {
		t.Fatalf("notes = %q", got)
	}
}

func TestApplyRejectsDeepNesting(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	file := exported.File
	file.Patches[0].Boxes[1].Bullets = []string{"ok", "\t\t\t\ttoo deep"}

	if _, _, err := patch.Apply(doc, file, patch.ApplyOptions{Force: true}); err == nil {
		t.Fatal("expected hard error for nesting depth > 4")
	}
}

func TestLoadRejectsBadSchema(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := writeFile(path, content); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	badVersion := write("v2.yaml", "version: 2\nsource_pptx: deck.pptx\npatches: []\n")
	if _, err := patch.Load(badVersion); err == nil {
		t.Fatal("expected version error")
	}

	badHash := write("hash.yaml", `version: 1
source_pptx: deck.pptx
patches:
  - source_slide_index: 1
    slide_hash: nothex
    boxes: []
`)
	if _, err := patch.Load(badHash); err == nil {
		t.Fatal("expected slide_hash error")
	}

	badStatus := write("status.yaml", `version: 1
source_pptx: deck.pptx
patches:
  - source_slide_index: 1
    slide_hash: aaaaaaaaaaaaaaaa
    boxes:
      - box_id: title
        text_hash_before: aaaaaaaaaaaaaaaa
        edit_status: paused
`)
	if _, err := patch.Load(badStatus); err == nil {
		t.Fatal("expected edit_status error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := oneSlideDeck()
	exported, _ := patch.Export(doc, "deck.pptx", patch.ExportOptions{})
	path := filepath.Join(t.TempDir(), "patch.yaml")
	if err := exported.File.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := patch.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SourcePPTX != "deck.pptx" || len(loaded.Patches) != 1 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.Patches[0].SlideHash != exported.File.Patches[0].SlideHash {
		t.Fatal("slide hash did not survive the round trip")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
