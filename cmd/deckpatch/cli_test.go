package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/patch"
	"deckpatch/internal/rowstore"
)

func TestExportApplyRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	deckPath := writeDeckFixture(t, env.baseDir, "deck.pptx")
	patchPath := filepath.Join(env.baseDir, "deck.patch.yaml")

	out, _, err := runCLI(t, "export", "-i", deckPath, "-o", patchPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 2 slides")

	file, err := patch.Load(patchPath)
	if err != nil {
		t.Fatalf("load patch: %v", err)
	}
	edited := false
	for i := range file.Patches {
		for j := range file.Patches[i].Boxes {
			box := &file.Patches[i].Boxes[j]
			if strings.HasPrefix(box.Text, "Goals") {
				box.Text = "Revised goals\n\tShip v3"
				edited = true
			}
		}
	}
	if !edited {
		t.Fatal("exported patch has no body box to edit")
	}
	if err := file.Save(patchPath); err != nil {
		t.Fatalf("save patch: %v", err)
	}

	outputPath := filepath.Join(env.baseDir, "deck_out.pptx")
	out, _, err = runCLI(t, "apply", "-i", patchPath, deckPath, "-o", outputPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "updated")
	requireContains(t, out, outputPath)

	if got := bodyTextOf(t, outputPath, 1); got != "Revised goals\n\tShip v3" {
		t.Errorf("applied body = %q", got)
	}
	if got := bodyTextOf(t, outputPath, 2); got != "References" {
		t.Errorf("untouched slide body = %q", got)
	}
}

func TestApplyReportsSlideDrift(t *testing.T) {
	env := setupCLITestEnv(t)
	deckPath := writeDeckFixture(t, env.baseDir, "deck.pptx")
	patchPath := filepath.Join(env.baseDir, "deck.patch.yaml")

	if _, _, err := runCLI(t, "export", "-i", deckPath, "-o", patchPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	// Concurrent edit after export: slide 1's body changes out from under
	// the patch, so its signature no longer matches.
	doc, err := ooxml.Open(deckPath)
	if err != nil {
		t.Fatalf("open deck: %v", err)
	}
	for _, shape := range doc.Slides()[0].Shapes() {
		if shape.IsPlaceholder() && shape.Placeholder().IsBody() {
			if err := shape.SetParagraphs([]deck.Paragraph{{Text: "Rewritten elsewhere"}}); err != nil {
				t.Fatalf("set paragraphs: %v", err)
			}
		}
	}
	if err := doc.SaveAs(deckPath); err != nil {
		t.Fatalf("save deck: %v", err)
	}
	doc.Close()

	outputPath := filepath.Join(env.baseDir, "deck_out.pptx")
	out, stderr, err := runCLI(t, "apply", "-i", patchPath, deckPath, "-o", outputPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "slide_mismatch")
	requireContains(t, stderr, "slide_mismatch")

	// The drifted slide keeps its concurrent edit.
	if got := bodyTextOf(t, outputPath, 1); got != "Rewritten elsewhere" {
		t.Errorf("drifted body = %q", got)
	}
}

func TestIndexAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	deckPath := writeDeckFixture(t, env.baseDir, "deck.pptx")

	out, _, err := runCLI(t, "index", "-i", deckPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "Indexed 2 slides")

	csvPath := deckPath + ".csv"
	rows, err := rowstore.Read(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	out, _, err = runCLI(t, "validate", csvPath, "--strict")
	if err != nil {
		t.Fatalf("strict validate: %v", err)
	}
	requireContains(t, out, "2 rows valid")
}

func TestValidateFailsOnTamperedRow(t *testing.T) {
	env := setupCLITestEnv(t)
	deckPath := writeDeckFixture(t, env.baseDir, "deck.pptx")
	if _, _, err := runCLI(t, "index", "-i", deckPath); err != nil {
		t.Fatalf("index: %v", err)
	}

	csvPath := deckPath + ".csv"
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	tampered := strings.Replace(string(data), "Quarterly Plan", "Tampered Title", 1)
	if err := os.WriteFile(csvPath, []byte(tampered), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	_, stderr, err := runCLI(t, "validate", csvPath)
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	requireContains(t, stderr, "text_hash")
	requireContains(t, err.Error(), "validation errors")
}

func TestMergeAndRebuild(t *testing.T) {
	env := setupCLITestEnv(t)
	first := writeDeckFixture(t, env.baseDir, "alpha.pptx")
	second := writeDeckFixture(t, env.baseDir, "beta.pptx")
	for _, deckPath := range []string{first, second} {
		if _, _, err := runCLI(t, "index", "-i", deckPath); err != nil {
			t.Fatalf("index %s: %v", deckPath, err)
		}
	}

	mergedPath := filepath.Join(env.baseDir, "merged.csv")
	out, _, err := runCLI(t, "merge",
		filepath.Join(env.baseDir, "*.pptx.csv"),
		"-o", mergedPath,
		"--sort-by", "source_slide_index",
		"--dedupe")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "4 rows")

	rows, err := rowstore.Read(mergedPath)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 merged rows, got %d", len(rows))
	}
	// Numeric sort groups both decks' slide 1 rows first.
	if rows[0].SourceSlideIndex != 1 || rows[1].SourceSlideIndex != 1 {
		t.Errorf("sort-by source_slide_index not applied: %d, %d",
			rows[0].SourceSlideIndex, rows[1].SourceSlideIndex)
	}

	rebuiltPath := filepath.Join(env.baseDir, "rebuilt.pptx")
	out, _, err = runCLI(t, "rebuild", mergedPath, "-o", rebuiltPath)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	requireContains(t, out, "Rebuilt 4 slides")

	doc, err := ooxml.Open(rebuiltPath)
	if err != nil {
		t.Fatalf("open rebuilt: %v", err)
	}
	defer doc.Close()
	if got := len(doc.Slides()); got != 4 {
		t.Errorf("rebuilt slide count = %d", got)
	}
}

func TestConfigInitShowValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	configPath := filepath.Join(env.baseDir, "config.toml")

	out, _, err := runCLI(t, "config", "init", "--config", configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample config")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, "config", "init", "--config", configPath); err == nil {
		t.Fatal("expected second init without --force to fail")
	}

	out, _, err = runCLI(t, "config", "show", "--config", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "logging.level")

	out, _, err = runCLI(t, "config", "validate", "--config", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")
}
