package rowstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateOptions controls the validation passes.
type ValidateOptions struct {
	// CheckSources verifies that each row's source document exists,
	// resolving bare names against CSVDir.
	CheckSources bool
	// Strict re-opens source documents and requires recorded hashes to
	// match recomputed values. Implies CheckSources for rows it reaches.
	Strict bool
	// CSVDir is the directory containing the CSV, used as a source-path
	// fallback.
	CSVDir string
	// Sources supplies opened source documents in strict mode.
	Sources *SourceCache
}

// Report lists validation findings. Errors fail the run; warnings do not.
type Report struct {
	RowCount int
	Errors   []string
	Warnings []string
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks structural invariants of every row and, in strict mode,
// cross-checks recorded identities against the source decks.
func Validate(rows []Row, opts ValidateOptions) Report {
	report := Report{RowCount: len(rows)}
	uids := make(map[string]int)
	for i, row := range rows {
		line := i + 2 // 1-based plus header
		if row.SourcePPTX == "" {
			report.errorf("row %d: empty source_pptx", line)
		}
		if row.SourceSlideIndex < 1 {
			report.errorf("row %d: source_slide_index %d is not positive", line, row.SourceSlideIndex)
		}
		validateIdentities(&report, line, row)
		validateLocators(&report, line, row)
		if row.SlideUID != "" {
			if prev, dup := uids[row.SlideUID]; dup {
				report.warnf("row %d: slide_uid duplicates row %d", line, prev)
			} else {
				uids[row.SlideUID] = line
			}
		}
		if opts.CheckSources || opts.Strict {
			validateSource(&report, line, row, opts)
		}
	}
	return report
}

func validateIdentities(report *Report, line int, row Row) {
	wantText := TextHash(row.TitleText, row.BodyText, row.NotesText)
	if row.TextHash != wantText {
		report.errorf("row %d: text_hash %s does not match recomputed %s", line, row.TextHash, wantText)
	}
	wantFingerprint := Fingerprint(wantText, row.ImageHashes)
	if row.SlideFingerprint != wantFingerprint {
		report.errorf("row %d: slide_fingerprint %s does not match recomputed %s", line, row.SlideFingerprint, wantFingerprint)
	}
	wantUID := UID(row.SourcePPTX, row.SourceSlideIndex, wantText, row.ImageHashes)
	if row.SlideUID != wantUID {
		report.errorf("row %d: slide_uid %s does not match recomputed %s", line, row.SlideUID, wantUID)
	}
}

func validateLocators(report *Report, line int, row Row) {
	if len(row.ImageRefs) != len(row.ImageHashes) {
		report.errorf("row %d: %d image_refs but %d image_hashes", line, len(row.ImageRefs), len(row.ImageHashes))
	}
	for _, ref := range row.ImageRefs {
		locator, err := ParseLocator(ref)
		if err != nil {
			report.errorf("row %d: %v", line, err)
			continue
		}
		if !sourcesMatch(locator.Source, row.SourcePPTX) {
			report.warnf("row %d: locator source %s does not match row source %s", line, locator.Source, row.SourcePPTX)
		}
		if locator.SlideIndex != row.SourceSlideIndex {
			report.warnf("row %d: locator slide %d does not match row slide %d", line, locator.SlideIndex, row.SourceSlideIndex)
		}
	}
}

func validateSource(report *Report, line int, row Row, opts ValidateOptions) {
	path, found := ResolveSourcePath(row.SourcePPTX, opts.CSVDir)
	if !found {
		report.errorf("row %d: source file not found: %s", line, row.SourcePPTX)
		return
	}
	if !opts.Strict || opts.Sources == nil {
		return
	}
	doc, err := opts.Sources.Document(path)
	if err != nil {
		report.errorf("row %d: open source %s: %v", line, path, err)
		return
	}
	slides := doc.Slides()
	if row.SourceSlideIndex > len(slides) {
		report.errorf("row %d: slide index %d exceeds %d slides in %s", line, row.SourceSlideIndex, len(slides), path)
		return
	}
	slide := slides[row.SourceSlideIndex-1]
	recomputed, err := IndexSlide(slide, row.SourcePPTX, row.SourceSlideIndex)
	if err != nil {
		report.errorf("row %d: reindex %s slide %d: %v", line, path, row.SourceSlideIndex, err)
		return
	}
	if recomputed.TextHash != row.TextHash {
		report.errorf("row %d: strict text_hash mismatch against %s slide %d", line, path, row.SourceSlideIndex)
	}
	if JoinList(recomputed.ImageHashes) != JoinList(row.ImageHashes) {
		report.errorf("row %d: strict image hashes mismatch against %s slide %d", line, path, row.SourceSlideIndex)
	}
}

// ResolveSourcePath finds a row's source document, trying the value as
// given and then relative to the CSV directory.
func ResolveSourcePath(source, csvDir string) (string, bool) {
	if source == "" {
		return "", false
	}
	if _, err := os.Stat(source); err == nil {
		return source, true
	}
	if csvDir != "" {
		candidate := filepath.Join(csvDir, source)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return source, false
}

func sourcesMatch(locatorSource, rowSource string) bool {
	if locatorSource == rowSource {
		return true
	}
	return filepath.Base(locatorSource) == filepath.Base(rowSource)
}
