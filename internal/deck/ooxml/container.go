package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"deckpatch/internal/deck"
)

const (
	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeNotesSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeChart       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
)

// Document is an opened PPTX container. Parts stay in memory; SaveAs
// writes them back with any edited slide or notes parts replaced.
type Document struct {
	path   string
	parts  map[string][]byte
	order  []string // part names, preserving archive order
	slides []*Slide
}

// Open reads a PPTX file into memory and resolves its slide order.
func Open(filePath string) (*Document, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", filePath, err)
	}
	defer reader.Close()

	doc := &Document{
		path:  filePath,
		parts: make(map[string][]byte, len(reader.File)),
	}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", file.Name, err)
		}
		doc.parts[file.Name] = data
		doc.order = append(doc.order, file.Name)
	}

	if err := doc.resolveSlides(); err != nil {
		return nil, err
	}
	return doc, nil
}

// relationship is one entry of a .rels part.
type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

func (r relationship) external() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

func parseRels(data []byte) ([]relationship, error) {
	var payload struct {
		Relationships []relationship `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	return payload.Relationships, nil
}

// relsFor returns the relationships of a part, keyed by rel id.
func (d *Document) relsFor(partName string) (map[string]relationship, error) {
	relsName := path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
	data, found := d.parts[relsName]
	if !found {
		return map[string]relationship{}, nil
	}
	rels, err := parseRels(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relsName, err)
	}
	byID := make(map[string]relationship, len(rels))
	for _, rel := range rels {
		byID[rel.ID] = rel
	}
	return byID, nil
}

// resolveTarget turns a relationship target into a part name, relative to
// the directory of the part that owns the relationship.
func resolveTarget(ownerPart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(ownerPart), target))
}

func (d *Document) resolveSlides() error {
	const presentationPart = "ppt/presentation.xml"
	data, found := d.parts[presentationPart]
	if !found {
		return fmt.Errorf("%s: not a presentation: missing %s", d.path, presentationPart)
	}

	var presentation struct {
		SlideIDList struct {
			Entries []struct {
				RID string `xml:"id,attr"`
			} `xml:"sldId"`
		} `xml:"sldIdLst"`
	}
	if err := xml.Unmarshal(data, &presentation); err != nil {
		return fmt.Errorf("parse %s: %w", presentationPart, err)
	}

	rels, err := d.relsFor(presentationPart)
	if err != nil {
		return err
	}

	for i, entry := range presentation.SlideIDList.Entries {
		rel, found := rels[entry.RID]
		if !found || rel.Type != relTypeSlide {
			return fmt.Errorf("%s: slide %d references unknown relationship %s", d.path, i+1, entry.RID)
		}
		partName := resolveTarget(presentationPart, rel.Target)
		if _, found := d.parts[partName]; !found {
			return fmt.Errorf("%s: missing slide part %s", d.path, partName)
		}
		slide := &Slide{doc: d, partName: partName, index: i + 1}
		// Parse the shape tree now so a corrupt slide part fails Open
		// instead of surfacing later as an empty slide.
		if err := slide.ensureParsed(); err != nil {
			return fmt.Errorf("%s: %w", d.path, err)
		}
		d.slides = append(d.slides, slide)
	}
	return nil
}

// Slides implements deck.Document.
func (d *Document) Slides() []deck.Slide {
	out := make([]deck.Slide, len(d.slides))
	for i, s := range d.slides {
		out[i] = s
	}
	return out
}

// SaveAs implements deck.Document. Edited slide and notes parts are
// serialized; every other part is written back unchanged.
func (d *Document) SaveAs(filePath string) error {
	for _, slide := range d.slides {
		if err := slide.flush(); err != nil {
			return err
		}
	}

	out, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create pptx %s: %w", filePath, err)
	}
	writer := zip.NewWriter(out)

	names := d.partNames()
	for _, name := range names {
		entry, err := writer.Create(name)
		if err != nil {
			out.Close()
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := entry.Write(d.parts[name]); err != nil {
			out.Close()
			return fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finish pptx %s: %w", filePath, err)
	}
	return out.Close()
}

// partNames returns the archive order plus any parts added after opening.
func (d *Document) partNames() []string {
	names := append([]string(nil), d.order...)
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	var added []string
	for name := range d.parts {
		if _, found := seen[name]; !found {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return append(names, added...)
}

// Close implements deck.Document.
func (d *Document) Close() error {
	d.parts = nil
	d.slides = nil
	return nil
}
