// Package memdeck implements the deck interfaces in memory. It exists for
// tests and for embedders that assemble slides programmatically.
package memdeck

import (
	"errors"
	"fmt"

	"deckpatch/internal/deck"
)

// Deck is an in-memory document.
type Deck struct {
	slides []*Slide
}

// New returns an empty in-memory deck.
func New() *Deck {
	return &Deck{}
}

// AddSlide appends an empty slide and returns it.
func (d *Deck) AddSlide() *Slide {
	slide := &Slide{deck: d, nextID: 1}
	d.slides = append(d.slides, slide)
	return slide
}

// Slides implements deck.Document.
func (d *Deck) Slides() []deck.Slide {
	out := make([]deck.Slide, len(d.slides))
	for i, s := range d.slides {
		out[i] = s
	}
	return out
}

// SaveAs implements deck.Document. In-memory decks are not persistable.
func (d *Deck) SaveAs(string) error {
	return errors.New("memdeck: in-memory decks cannot be saved")
}

// Close implements deck.Document.
func (d *Deck) Close() error { return nil }

// Slide is an in-memory slide.
type Slide struct {
	deck       *Deck
	shapes     []*Shape
	notes      string
	rels       []deck.Relationship
	layoutName string
	rawXML     []byte
	nextID     int64
}

// Shapes implements deck.Slide.
func (s *Slide) Shapes() []deck.Shape {
	out := make([]deck.Shape, len(s.shapes))
	for i, sh := range s.shapes {
		out[i] = sh
	}
	return out
}

// NotesText implements deck.Slide.
func (s *Slide) NotesText() string { return s.notes }

// SetNotesText implements deck.Slide.
func (s *Slide) SetNotesText(text string) error {
	s.notes = text
	return nil
}

// Relationships implements deck.Slide.
func (s *Slide) Relationships() []deck.Relationship { return s.rels }

// LayoutName implements deck.Slide.
func (s *Slide) LayoutName() string { return s.layoutName }

// XML implements deck.Slide.
func (s *Slide) XML() []byte { return s.rawXML }

// SetLayoutName sets the layout display name reported by the slide.
func (s *Slide) SetLayoutName(name string) { s.layoutName = name }

// SetXML sets the raw part bytes reported by the slide.
func (s *Slide) SetXML(raw []byte) { s.rawXML = raw }

// SetNotes sets the speaker notes text.
func (s *Slide) SetNotes(text string) { s.notes = text }

// AddRelationship appends a relationship to the slide's set.
func (s *Slide) AddRelationship(rel deck.Relationship) {
	s.rels = append(s.rels, rel)
}

func (s *Slide) addShape(shape *Shape) *Shape {
	shape.id = s.nextID
	s.nextID++
	s.shapes = append(s.shapes, shape)
	return shape
}

// AddPlaceholder appends a placeholder shape with the given paragraphs.
func (s *Slide) AddPlaceholder(pt deck.PlaceholderType, name string, geom deck.Geometry, paragraphs ...deck.Paragraph) *Shape {
	return s.addShape(&Shape{
		name:        name,
		typeName:    "PLACEHOLDER",
		geom:        geom,
		placeholder: pt,
		hasText:     true,
		paragraphs:  paragraphs,
	})
}

// AddTextBox appends a free-floating text box.
func (s *Slide) AddTextBox(name string, geom deck.Geometry, paragraphs ...deck.Paragraph) *Shape {
	return s.addShape(&Shape{
		name:       name,
		typeName:   "TEXT_BOX",
		geom:       geom,
		hasText:    true,
		paragraphs: paragraphs,
	})
}

// AddPicture appends a picture shape backed by image.
func (s *Slide) AddPicture(name string, geom deck.Geometry, image []byte) *Shape {
	return s.addShape(&Shape{
		name:     name,
		typeName: "PICTURE",
		geom:     geom,
		picture:  append([]byte(nil), image...),
	})
}

// AddTable appends a table shape with the given cells.
func (s *Slide) AddTable(name string, geom deck.Geometry, cells [][]deck.Paragraph) *Shape {
	return s.addShape(&Shape{
		name:     name,
		typeName: "TABLE",
		geom:     geom,
		table:    cells,
	})
}

// AddChart appends a chart shape with the given title paragraphs.
func (s *Slide) AddChart(name string, geom deck.Geometry, title ...deck.Paragraph) *Shape {
	return s.addShape(&Shape{
		name:       name,
		typeName:   "CHART",
		geom:       geom,
		hasChart:   true,
		chartTitle: title,
	})
}

// AddGroup appends a group shape. Build populates the group's children;
// child shape ids are assigned from the slide's counter.
func (s *Slide) AddGroup(name string, geom deck.Geometry, build func(*Group)) *Shape {
	shape := s.addShape(&Shape{
		name:     name,
		typeName: "GROUP",
		geom:     geom,
		group:    true,
	})
	if build != nil {
		build(&Group{slide: s, shape: shape})
	}
	return shape
}

// Group appends member shapes to a group shape.
type Group struct {
	slide *Slide
	shape *Shape
}

// AddTextBox appends a text box inside the group.
func (g *Group) AddTextBox(name string, geom deck.Geometry, paragraphs ...deck.Paragraph) *Shape {
	child := &Shape{
		name:       name,
		typeName:   "TEXT_BOX",
		geom:       geom,
		hasText:    true,
		paragraphs: paragraphs,
	}
	child.id = g.slide.nextID
	g.slide.nextID++
	g.shape.children = append(g.shape.children, child)
	return child
}

// AddPicture appends a picture inside the group.
func (g *Group) AddPicture(name string, geom deck.Geometry, image []byte) *Shape {
	child := &Shape{
		name:     name,
		typeName: "PICTURE",
		geom:     geom,
		picture:  append([]byte(nil), image...),
	}
	child.id = g.slide.nextID
	g.slide.nextID++
	g.shape.children = append(g.shape.children, child)
	return child
}

// Shape is an in-memory shape.
type Shape struct {
	id          int64
	name        string
	typeName    string
	geom        deck.Geometry
	group       bool
	children    []*Shape
	picture     []byte
	placeholder deck.PlaceholderType
	hasText     bool
	paragraphs  []deck.Paragraph
	table       [][]deck.Paragraph
	hasChart    bool
	chartTitle  []deck.Paragraph
}

// SetID overrides the auto-assigned shape id. Tests use it to model id
// renumbering by external tools.
func (sh *Shape) SetID(id int64) { sh.id = id }

// SetName overrides the shape name.
func (sh *Shape) SetName(name string) { sh.name = name }

// SetGeometry overrides the shape geometry.
func (sh *Shape) SetGeometry(geom deck.Geometry) { sh.geom = geom }

// SetImage replaces a picture shape's image content.
func (sh *Shape) SetImage(image []byte) { sh.picture = append([]byte(nil), image...) }

// ID implements deck.Shape.
func (sh *Shape) ID() int64 { return sh.id }

// Name implements deck.Shape.
func (sh *Shape) Name() string { return sh.name }

// TypeName implements deck.Shape.
func (sh *Shape) TypeName() string { return sh.typeName }

// Geometry implements deck.Shape.
func (sh *Shape) Geometry() deck.Geometry { return sh.geom }

// IsGroup implements deck.Shape.
func (sh *Shape) IsGroup() bool { return sh.group }

// Children implements deck.Shape.
func (sh *Shape) Children() []deck.Shape {
	if !sh.group {
		return nil
	}
	out := make([]deck.Shape, len(sh.children))
	for i, c := range sh.children {
		out[i] = c
	}
	return out
}

// IsPicture implements deck.Shape.
func (sh *Shape) IsPicture() bool { return sh.picture != nil }

// ImageBytes implements deck.Shape.
func (sh *Shape) ImageBytes() ([]byte, error) {
	if sh.picture == nil {
		return nil, fmt.Errorf("shape %d is not a picture", sh.id)
	}
	return sh.picture, nil
}

// IsPlaceholder implements deck.Shape.
func (sh *Shape) IsPlaceholder() bool { return sh.placeholder != deck.PlaceholderNone }

// Placeholder implements deck.Shape.
func (sh *Shape) Placeholder() deck.PlaceholderType { return sh.placeholder }

// HasTextFrame implements deck.Shape.
func (sh *Shape) HasTextFrame() bool { return sh.hasText }

// Paragraphs implements deck.Shape.
func (sh *Shape) Paragraphs() []deck.Paragraph { return sh.paragraphs }

// SetParagraphs implements deck.Shape.
func (sh *Shape) SetParagraphs(paragraphs []deck.Paragraph) error {
	if !sh.hasText {
		return fmt.Errorf("shape %d has no text frame", sh.id)
	}
	sh.paragraphs = append([]deck.Paragraph(nil), paragraphs...)
	return nil
}

// HasTable implements deck.Shape.
func (sh *Shape) HasTable() bool { return sh.table != nil }

// TableCells implements deck.Shape.
func (sh *Shape) TableCells() [][]deck.Paragraph { return sh.table }

// HasChart implements deck.Shape.
func (sh *Shape) HasChart() bool { return sh.hasChart }

// ChartTitle implements deck.Shape.
func (sh *Shape) ChartTitle() []deck.Paragraph { return sh.chartTitle }

// Relationship is an in-memory relationship entry.
type Relationship struct {
	RelID      string
	RelType    string
	RelTarget  string
	IsExternal bool
	Bytes      []byte
}

// ID implements deck.Relationship.
func (r Relationship) ID() string { return r.RelID }

// Type implements deck.Relationship.
func (r Relationship) Type() string { return r.RelType }

// Target implements deck.Relationship.
func (r Relationship) Target() string { return r.RelTarget }

// External implements deck.Relationship.
func (r Relationship) External() bool { return r.IsExternal }

// Payload implements deck.Relationship.
func (r Relationship) Payload() ([]byte, error) {
	if r.IsExternal {
		return nil, fmt.Errorf("relationship %s targets external %s", r.RelID, r.RelTarget)
	}
	return r.Bytes, nil
}
