package ooxml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"deckpatch/internal/deck"
)

// Slide is one slide part of an opened document. The shape tree is
// parsed during Open; flushing an edit drops the cache, and the part is
// re-parsed from the slide's own serialized bytes on the next read.
type Slide struct {
	doc      *Document
	partName string
	index    int

	parsed bool
	shapes []*Shape
	rels   map[string]relationship

	notesResolved bool
	notesPart     string
	notesPending  *string
}

func (s *Slide) ensureParsed() error {
	if s.parsed {
		return nil
	}
	data, found := s.doc.parts[s.partName]
	if !found {
		return fmt.Errorf("missing slide part %s", s.partName)
	}
	tree, err := parseShapeTree(data)
	if err != nil {
		return fmt.Errorf("%s: %w", s.partName, err)
	}
	rels, err := s.doc.relsFor(s.partName)
	if err != nil {
		return err
	}
	s.rels = rels
	s.shapes = wrapShapes(s, tree)
	s.parsed = true
	return nil
}

func wrapShapes(slide *Slide, parsed []*parsedShape) []*Shape {
	shapes := make([]*Shape, len(parsed))
	for i, node := range parsed {
		shape := &Shape{slide: slide, node: node}
		shape.children = wrapShapes(slide, node.children)
		shapes[i] = shape
	}
	return shapes
}

// Shapes implements deck.Slide.
func (s *Slide) Shapes() []deck.Shape {
	if err := s.ensureParsed(); err != nil {
		return nil
	}
	out := make([]deck.Shape, len(s.shapes))
	for i, shape := range s.shapes {
		out[i] = shape
	}
	return out
}

func (s *Slide) resolveNotesPart() string {
	if s.notesResolved {
		return s.notesPart
	}
	s.notesResolved = true
	if err := s.ensureParsed(); err != nil {
		return ""
	}
	for _, rel := range s.rels {
		if rel.Type == relTypeNotesSlide && !rel.external() {
			s.notesPart = resolveTarget(s.partName, rel.Target)
			break
		}
	}
	return s.notesPart
}

// NotesText implements deck.Slide. Notes levels surface as leading tabs.
func (s *Slide) NotesText() string {
	if s.notesPending != nil {
		return *s.notesPending
	}
	partName := s.resolveNotesPart()
	if partName == "" {
		return ""
	}
	data, found := s.doc.parts[partName]
	if !found {
		return ""
	}
	body := findNotesBody(data)
	if body == nil {
		return ""
	}
	lines := make([]string, 0, len(body.paragraphs))
	for _, paragraph := range body.paragraphs {
		lines = append(lines, strings.Repeat("\t", paragraph.Level)+paragraph.Text)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// findNotesBody locates the body placeholder shape of a notes part.
func findNotesBody(data []byte) *parsedShape {
	tree, err := parseShapeTree(data)
	if err != nil {
		return nil
	}
	for _, shape := range tree {
		if shape.hasPh && shape.ph == deck.PlaceholderBody && shape.hasTxBody {
			return shape
		}
	}
	return nil
}

// SetNotesText implements deck.Slide. The edit is applied on save.
func (s *Slide) SetNotesText(text string) error {
	s.notesPending = &text
	return nil
}

// Relationships implements deck.Slide.
func (s *Slide) Relationships() []deck.Relationship {
	if err := s.ensureParsed(); err != nil {
		return nil
	}
	out := make([]deck.Relationship, 0, len(s.rels))
	for _, rel := range s.rels {
		out = append(out, &partRelationship{doc: s.doc, owner: s.partName, rel: rel})
	}
	return out
}

// LayoutName implements deck.Slide, returning the layout's display name.
func (s *Slide) LayoutName() string {
	if err := s.ensureParsed(); err != nil {
		return ""
	}
	for _, rel := range s.rels {
		if rel.Type != relTypeSlideLayout || rel.external() {
			continue
		}
		data, found := s.doc.parts[resolveTarget(s.partName, rel.Target)]
		if !found {
			return ""
		}
		var layout struct {
			CSld struct {
				Name string `xml:"name,attr"`
			} `xml:"cSld"`
		}
		if err := xml.Unmarshal(data, &layout); err != nil {
			return ""
		}
		return layout.CSld.Name
	}
	return ""
}

// XML implements deck.Slide, returning the raw slide part bytes.
func (s *Slide) XML() []byte {
	return s.doc.parts[s.partName]
}

// partRelationship adapts a rels entry to deck.Relationship.
type partRelationship struct {
	doc   *Document
	owner string
	rel   relationship
}

func (r *partRelationship) ID() string { return r.rel.ID }

func (r *partRelationship) Type() string { return r.rel.Type }

func (r *partRelationship) Target() string { return r.rel.Target }

func (r *partRelationship) External() bool { return r.rel.external() }

func (r *partRelationship) Payload() ([]byte, error) {
	if r.rel.external() {
		return nil, fmt.Errorf("relationship %s targets external %s", r.rel.ID, r.rel.Target)
	}
	partName := resolveTarget(r.owner, r.rel.Target)
	data, found := r.doc.parts[partName]
	if !found {
		return nil, fmt.Errorf("relationship %s targets missing part %s", r.rel.ID, partName)
	}
	return data, nil
}

// Shape adapts a parsed node to deck.Shape.
type Shape struct {
	slide    *Slide
	node     *parsedShape
	children []*Shape

	edited  bool
	pending []deck.Paragraph
}

func (sh *Shape) ID() int64 { return sh.node.id }

func (sh *Shape) Name() string { return sh.node.name }

// TypeName implements deck.Shape with the source element name.
func (sh *Shape) TypeName() string {
	switch sh.node.kind {
	case "sp":
		if sh.node.hasPh {
			return "PLACEHOLDER"
		}
		return "TEXT_BOX"
	case "pic":
		return "PICTURE"
	case "grpSp":
		return "GROUP"
	case "graphicFrame":
		if sh.node.hasTable {
			return "TABLE"
		}
		if sh.node.chartRelID != "" {
			return "CHART"
		}
		return "GRAPHIC_FRAME"
	}
	return strings.ToUpper(sh.node.kind)
}

func (sh *Shape) Geometry() deck.Geometry { return sh.node.geom }

func (sh *Shape) IsGroup() bool { return sh.node.kind == "grpSp" }

func (sh *Shape) Children() []deck.Shape {
	out := make([]deck.Shape, len(sh.children))
	for i, child := range sh.children {
		out[i] = child
	}
	return out
}

func (sh *Shape) IsPicture() bool { return sh.node.kind == "pic" }

func (sh *Shape) ImageBytes() ([]byte, error) {
	if !sh.IsPicture() {
		return nil, fmt.Errorf("shape %d is not a picture", sh.node.id)
	}
	rel, found := sh.slide.rels[sh.node.imageRelID]
	if !found {
		return nil, fmt.Errorf("picture %d: unknown image relationship %s", sh.node.id, sh.node.imageRelID)
	}
	if rel.external() {
		return nil, fmt.Errorf("picture %d: image %s is external", sh.node.id, rel.Target)
	}
	partName := resolveTarget(sh.slide.partName, rel.Target)
	data, found := sh.slide.doc.parts[partName]
	if !found {
		return nil, fmt.Errorf("picture %d: missing image part %s", sh.node.id, partName)
	}
	return data, nil
}

func (sh *Shape) IsPlaceholder() bool { return sh.node.hasPh }

func (sh *Shape) Placeholder() deck.PlaceholderType {
	if !sh.node.hasPh {
		return deck.PlaceholderNone
	}
	return sh.node.ph
}

func (sh *Shape) HasTextFrame() bool { return sh.node.hasTxBody }

func (sh *Shape) Paragraphs() []deck.Paragraph {
	if sh.edited {
		return sh.pending
	}
	return sh.node.paragraphs
}

// SetParagraphs implements deck.Shape. The edit is applied on save.
func (sh *Shape) SetParagraphs(paragraphs []deck.Paragraph) error {
	if !sh.node.hasTxBody {
		return fmt.Errorf("shape %d has no text frame", sh.node.id)
	}
	sh.pending = append([]deck.Paragraph(nil), paragraphs...)
	sh.edited = true
	return nil
}

func (sh *Shape) HasTable() bool { return sh.node.hasTable }

func (sh *Shape) TableCells() [][]deck.Paragraph { return sh.node.table }

func (sh *Shape) HasChart() bool { return sh.node.chartRelID != "" }

// ChartTitle resolves the chart part and extracts its title text.
func (sh *Shape) ChartTitle() []deck.Paragraph {
	if sh.node.chartRelID == "" {
		return nil
	}
	rel, found := sh.slide.rels[sh.node.chartRelID]
	if !found || rel.Type != relTypeChart || rel.external() {
		return nil
	}
	data, found := sh.slide.doc.parts[resolveTarget(sh.slide.partName, rel.Target)]
	if !found {
		return nil
	}
	title := parseChartTitle(data)
	if title == "" {
		return nil
	}
	return []deck.Paragraph{{Text: title}}
}

// parseChartTitle concatenates the run texts of the chart's c:title.
func parseChartTitle(data []byte) string {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	depthTitle := 0
	depthT := 0
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				depthTitle++
			case "t":
				if depthTitle > 0 {
					depthT++
				}
			}
		case xml.CharData:
			if depthT > 0 {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "title":
				depthTitle--
				if depthTitle == 0 && text.Len() > 0 {
					return strings.TrimSpace(text.String())
				}
			case "t":
				if depthT > 0 {
					depthT--
				}
			}
		}
	}
	return strings.TrimSpace(text.String())
}
