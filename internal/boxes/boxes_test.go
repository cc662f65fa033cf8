package boxes_test

import (
	"strings"
	"testing"

	"deckpatch/internal/boxes"
	"deckpatch/internal/deck"
	"deckpatch/internal/deck/memdeck"
)

func geom() deck.Geometry {
	return deck.Geometry{Left: 0, Top: 0, Width: 100, Height: 100}
}

func ids(metas []boxes.Meta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = m.ID
	}
	return out
}

func TestCollectPlaceholderIDs(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddPlaceholder(deck.PlaceholderTitle, "Title 1", geom(), deck.Paragraph{Text: "T"})
	s.AddPlaceholder(deck.PlaceholderSubtitle, "Subtitle 2", geom(), deck.Paragraph{Text: "S"})
	s.AddPlaceholder(deck.PlaceholderBody, "Content 3", geom(), deck.Paragraph{Text: "B1"})
	s.AddPlaceholder(deck.PlaceholderObject, "Content 4", geom(), deck.Paragraph{Text: "B2"})
	s.AddPlaceholder(deck.PlaceholderFooter, "Footer 5", geom(), deck.Paragraph{Text: "F"})

	metas, fallback := boxes.Collect(s, false, false)
	if fallback {
		t.Fatal("placeholder slide must not use fallback")
	}
	if got := strings.Join(ids(metas), ","); got != "title,body_1,body_2" {
		t.Fatalf("ids = %s, want title,body_1,body_2", got)
	}

	metas, _ = boxes.Collect(s, true, true)
	if got := strings.Join(ids(metas), ","); got != "title,subtitle,body_1,body_2,footer" {
		t.Fatalf("ids with subtitle+footer = %s", got)
	}
}

func TestCollectFallbackIDs(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddTextBox("Fancy Label", geom(), deck.Paragraph{Text: "x"})
	unnamed := s.AddTextBox("", geom(), deck.Paragraph{Text: "y"})
	s.AddPicture("Picture 1", geom(), []byte("img"))

	metas, fallback := boxes.Collect(s, false, false)
	if !fallback {
		t.Fatal("expected fallback pass")
	}
	if len(metas) != 2 {
		t.Fatalf("got %d boxes, want 2", len(metas))
	}
	if metas[0].ID != "fancy_label" {
		t.Fatalf("named fallback id = %q", metas[0].ID)
	}
	if !strings.HasPrefix(metas[1].ID, "box_1_") || len(metas[1].ID) != len("box_1_")+8 {
		t.Fatalf("guard fallback id = %q", metas[1].ID)
	}

	// Same document, re-collected: ids are stable.
	again, _ := boxes.Collect(s, false, false)
	if again[1].ID != metas[1].ID {
		t.Fatalf("guard id changed across re-collection: %q vs %q", again[1].ID, metas[1].ID)
	}

	// Renumbering the shape's internal id moves the guard.
	unnamed.SetID(999)
	moved, _ := boxes.Collect(s, false, false)
	if moved[1].ID == metas[1].ID {
		t.Fatal("expected guard id to depend on the shape's internal id")
	}
}

func TestCollectFallbackGuardsWithoutShapeIDs(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	first := s.AddTextBox("", geom(), deck.Paragraph{Text: "a"})
	second := s.AddTextBox("", geom(), deck.Paragraph{Text: "b"})
	first.SetID(0)
	second.SetID(0)

	metas, fallback := boxes.Collect(s, false, false)
	if !fallback || len(metas) != 2 {
		t.Fatalf("metas=%d fallback=%v, want 2 fallback boxes", len(metas), fallback)
	}
	firstGuard := strings.TrimPrefix(metas[0].ID, "box_1_")
	secondGuard := strings.TrimPrefix(metas[1].ID, "box_2_")
	if firstGuard == metas[0].ID || secondGuard == metas[1].ID {
		t.Fatalf("ids = %q, %q, want box_1_/box_2_ prefixes", metas[0].ID, metas[1].ID)
	}
	// Without shape ids the guards come from the ordinals, so they must
	// not collapse onto a single value.
	if firstGuard == secondGuard {
		t.Fatalf("id-less boxes share guard %q", firstGuard)
	}
}

func TestCollectDuplicateNamesGetSuffixes(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddTextBox("Label", geom(), deck.Paragraph{Text: "a"})
	s.AddTextBox("Label", geom(), deck.Paragraph{Text: "b"})
	s.AddTextBox("Label", geom(), deck.Paragraph{Text: "c"})

	metas, _ := boxes.Collect(s, false, false)
	if got := strings.Join(ids(metas), ","); got != "label,label_2,label_3" {
		t.Fatalf("ids = %s, want label,label_2,label_3", got)
	}
}

func TestCollectSkipsTextlessPlaceholders(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	s.AddPicture("Picture 1", geom(), []byte("img"))
	metas, fallback := boxes.Collect(s, false, false)
	if len(metas) != 0 || fallback {
		t.Fatalf("picture-only slide: metas=%d fallback=%v", len(metas), fallback)
	}
}

func TestEnsureUnique(t *testing.T) {
	used := make(map[string]struct{})
	if got := boxes.EnsureUnique("body_1", used); got != "body_1" {
		t.Fatalf("first = %q", got)
	}
	if got := boxes.EnsureUnique("body_1", used); got != "body_1_2" {
		t.Fatalf("second = %q", got)
	}
	if got := boxes.EnsureUnique("body_1", used); got != "body_1_3" {
		t.Fatalf("third = %q", got)
	}
}

func TestTextBlock(t *testing.T) {
	d := memdeck.New()
	s := d.AddSlide()
	shape := s.AddTextBox("Box", geom(),
		deck.Paragraph{Text: "Top"},
		deck.Paragraph{Level: 1, Text: "  Nested  "},
		deck.Paragraph{Text: "   "},
		deck.Paragraph{Level: 2, Text: "Deep"},
	)
	want := "Top\n\tNested\n\t\tDeep"
	if got := boxes.TextBlock(shape); got != want {
		t.Fatalf("TextBlock = %q, want %q", got, want)
	}
}
