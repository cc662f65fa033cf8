package ooxml_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/signature"
)

var pngStub = []byte("\x89PNG\r\n\x1a\nstub-image-bytes")

func writeFixture(t *testing.T) string {
	t.Helper()
	writer := ooxml.NewWriter()
	writer.AddSlide(ooxml.SlideSpec{
		Title: "Quarterly Plan",
		Body: []deck.Paragraph{
			{Text: "Goals & <targets>"},
			{Level: 1, Text: "Ship v2"},
		},
		Notes:  "presenter reminder",
		Images: [][]byte{pngStub},
	})
	writer.AddSlide(ooxml.SlideSpec{
		Title: "Appendix",
		Body:  []deck.Paragraph{{Text: "References"}},
	})
	path := filepath.Join(t.TempDir(), "fixture.pptx")
	if err := writer.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return path
}

func openFixture(t *testing.T, path string) *ooxml.Document {
	t.Helper()
	doc, err := ooxml.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func findShape(t *testing.T, slide deck.Slide, want deck.PlaceholderType) deck.Shape {
	t.Helper()
	for _, shape := range slide.Shapes() {
		if shape.IsPlaceholder() && shape.Placeholder() == want {
			return shape
		}
	}
	t.Fatalf("no placeholder %v on slide", want)
	return nil
}

func TestOpenParsesComposedDeck(t *testing.T) {
	doc := openFixture(t, writeFixture(t))
	slides := doc.Slides()
	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}

	first := slides[0]
	title := findShape(t, first, deck.PlaceholderTitle)
	if got := title.Paragraphs()[0].Text; got != "Quarterly Plan" {
		t.Errorf("title = %q", got)
	}
	body := findShape(t, first, deck.PlaceholderBody)
	paragraphs := body.Paragraphs()
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 body paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Text != "Goals & <targets>" {
		t.Errorf("escaped text must round trip, got %q", paragraphs[0].Text)
	}
	if paragraphs[1].Level != 1 || paragraphs[1].Text != "Ship v2" {
		t.Errorf("indented paragraph = %+v", paragraphs[1])
	}
	if first.NotesText() != "presenter reminder" {
		t.Errorf("notes = %q", first.NotesText())
	}
	if first.LayoutName() != "Title and Content" {
		t.Errorf("layout name = %q", first.LayoutName())
	}

	var picture deck.Shape
	for _, shape := range first.Shapes() {
		if shape.IsPicture() {
			picture = shape
		}
	}
	if picture == nil {
		t.Fatal("expected a picture shape")
	}
	blob, err := picture.ImageBytes()
	if err != nil {
		t.Fatalf("ImageBytes failed: %v", err)
	}
	if !bytes.Equal(blob, pngStub) {
		t.Error("image bytes must round trip")
	}

	if slides[1].NotesText() != "" {
		t.Errorf("slide 2 notes = %q", slides[1].NotesText())
	}
}

func TestWriterHonorsLayoutHint(t *testing.T) {
	writer := ooxml.NewWriter()
	writer.AddSlide(ooxml.SlideSpec{Title: "Part Two", Layout: "section_header"})
	writer.AddSlide(ooxml.SlideSpec{Title: "Detail", Body: []deck.Paragraph{{Text: "Content"}}})
	path := filepath.Join(t.TempDir(), "layouts.pptx")
	if err := writer.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc := openFixture(t, path)
	if got := doc.Slides()[0].LayoutName(); got != "Section Header" {
		t.Errorf("slide 1 layout = %q", got)
	}
	if got := doc.Slides()[1].LayoutName(); got != "Title and Content" {
		t.Errorf("slide 2 layout = %q", got)
	}
}

func TestEditTextSurvivesSaveReopen(t *testing.T) {
	path := writeFixture(t)
	doc := openFixture(t, path)
	body := findShape(t, doc.Slides()[0], deck.PlaceholderBody)
	if err := body.SetParagraphs([]deck.Paragraph{
		{Text: "Rewritten"},
		{Level: 2, Text: "Deep point"},
	}); err != nil {
		t.Fatalf("SetParagraphs failed: %v", err)
	}

	edited := filepath.Join(t.TempDir(), "edited.pptx")
	if err := doc.SaveAs(edited); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}

	reopened := openFixture(t, edited)
	body = findShape(t, reopened.Slides()[0], deck.PlaceholderBody)
	paragraphs := body.Paragraphs()
	if len(paragraphs) != 2 || paragraphs[0].Text != "Rewritten" {
		t.Fatalf("edited body = %+v", paragraphs)
	}
	if paragraphs[1].Level != 2 || paragraphs[1].Text != "Deep point" {
		t.Errorf("edited level lost: %+v", paragraphs[1])
	}

	// Untouched content survives the splice.
	title := findShape(t, reopened.Slides()[0], deck.PlaceholderTitle)
	if title.Paragraphs()[0].Text != "Quarterly Plan" {
		t.Error("title must be untouched")
	}
	if reopened.Slides()[0].NotesText() != "presenter reminder" {
		t.Error("notes must be untouched")
	}
}

func TestUntouchedSlideKeepsSignature(t *testing.T) {
	path := writeFixture(t)
	doc := openFixture(t, path)
	before, err := signature.Build(doc.Slides()[1])
	if err != nil {
		t.Fatal(err)
	}

	body := findShape(t, doc.Slides()[0], deck.PlaceholderBody)
	if err := body.SetParagraphs([]deck.Paragraph{{Text: "changed"}}); err != nil {
		t.Fatal(err)
	}
	edited := filepath.Join(t.TempDir(), "edited.pptx")
	if err := doc.SaveAs(edited); err != nil {
		t.Fatal(err)
	}

	reopened := openFixture(t, edited)
	after, err := signature.Build(reopened.Slides()[1])
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("editing slide 1 must not change slide 2's signature")
	}

	changed, err := signature.Build(reopened.Slides()[0])
	if err != nil {
		t.Fatal(err)
	}
	if changed == before {
		t.Error("distinct slides must not collide")
	}
}

func TestSetNotesTextRewritesExistingNotes(t *testing.T) {
	path := writeFixture(t)
	doc := openFixture(t, path)
	if err := doc.Slides()[0].SetNotesText("updated note\n\tdetail"); err != nil {
		t.Fatal(err)
	}
	edited := filepath.Join(t.TempDir(), "edited.pptx")
	if err := doc.SaveAs(edited); err != nil {
		t.Fatal(err)
	}
	reopened := openFixture(t, edited)
	if got := reopened.Slides()[0].NotesText(); got != "updated note\n\tdetail" {
		t.Errorf("notes = %q", got)
	}
}

func TestSetNotesTextCreatesMissingNotesPart(t *testing.T) {
	path := writeFixture(t)
	doc := openFixture(t, path)
	if doc.Slides()[1].NotesText() != "" {
		t.Fatal("fixture slide 2 must start without notes")
	}
	if err := doc.Slides()[1].SetNotesText("fresh notes"); err != nil {
		t.Fatal(err)
	}
	edited := filepath.Join(t.TempDir(), "edited.pptx")
	if err := doc.SaveAs(edited); err != nil {
		t.Fatal(err)
	}
	reopened := openFixture(t, edited)
	if got := reopened.Slides()[1].NotesText(); got != "fresh notes" {
		t.Errorf("created notes = %q", got)
	}
	if got := reopened.Slides()[0].NotesText(); got != "presenter reminder" {
		t.Errorf("slide 1 notes disturbed: %q", got)
	}
}

func TestRelationshipsExposeImagePayload(t *testing.T) {
	doc := openFixture(t, writeFixture(t))
	rels := doc.Slides()[0].Relationships()
	if len(rels) == 0 {
		t.Fatal("expected slide relationships")
	}
	foundImage := false
	for _, rel := range rels {
		if rel.External() {
			continue
		}
		payload, err := rel.Payload()
		if err != nil {
			t.Fatalf("Payload failed for %s: %v", rel.ID(), err)
		}
		if bytes.Equal(payload, pngStub) {
			foundImage = true
		}
	}
	if !foundImage {
		t.Error("image payload must be reachable through relationships")
	}
}

func TestOpenRejectsNonPresentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.pptx")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	entry, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write([]byte("not a deck")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := ooxml.Open(path); err == nil {
		t.Fatal("expected error for zip without presentation part")
	}
}

// rewriteWithCorruptPart copies a pptx, mangling one part's bytes.
func rewriteWithCorruptPart(t *testing.T, src, partName string) string {
	t.Helper()
	reader, err := zip.OpenReader(src)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	dst := filepath.Join(t.TempDir(), "corrupt.pptx")
	out, err := os.Create(dst)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if file.Name == partName {
			data = bytes.Replace(data, []byte("</a:t>"), []byte("</a:t"), 1)
		}
		entry, err := zw.Create(file.Name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	return dst
}

func TestOpenRejectsMalformedSlidePart(t *testing.T) {
	corrupted := rewriteWithCorruptPart(t, writeFixture(t), "ppt/slides/slide1.xml")

	_, err := ooxml.Open(corrupted)
	if err == nil {
		t.Fatal("expected error opening deck with malformed slide XML")
	}
	if !strings.Contains(err.Error(), "ppt/slides/slide1.xml") {
		t.Fatalf("error must name the corrupt part, got: %v", err)
	}
}
