package signature

import (
	"fmt"
	"strings"

	"deckpatch/internal/deck"
	"deckpatch/internal/textnorm"
)

// ShapeKind is a coarse, closed classification of a shape. Kinds are
// decided once per shape by explicit precedence: group, picture, table,
// chart, placeholder, textbox, other.
type ShapeKind int

const (
	KindOther ShapeKind = iota
	KindGroup
	KindPicture
	KindTable
	KindChart
	KindPlaceholder
	KindTextBox
)

func (k ShapeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindPicture:
		return "picture"
	case KindTable:
		return "table"
	case KindChart:
		return "chart"
	case KindPlaceholder:
		return "placeholder"
	case KindTextBox:
		return "textbox"
	}
	return "other"
}

// Role is the placeholder role a shape plays on the slide.
type Role int

const (
	RoleNone Role = iota
	RoleTitle
	RoleSubtitle
	RoleBody
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleSubtitle:
		return "subtitle"
	case RoleBody:
		return "body"
	}
	return ""
}

// Token markers. Group boundaries are explicit so nesting is part of the
// signature, not just the flattened member list.
const (
	markerGroupStart = "group_start"
	markerGroupEnd   = "group_end"
	markerShape      = "shape"
)

// Token is one element of a slide's ordered shape-token stream.
type Token struct {
	Marker    string
	Kind      ShapeKind
	Role      Role
	Geometry  deck.Geometry
	TextHash  string
	ImageHash string
	TypeName  string
}

func (t Token) encode(b *strings.Builder) {
	switch t.Marker {
	case markerGroupStart:
		fmt.Fprintf(b, "group_start|%d,%d,%d,%d|%s\n",
			t.Geometry.Left, t.Geometry.Top, t.Geometry.Width, t.Geometry.Height, t.TypeName)
	case markerGroupEnd:
		b.WriteString("group_end\n")
	default:
		fmt.Fprintf(b, "shape|%s|%s|%d,%d,%d,%d|%s|%s|%s\n",
			t.Kind, t.Role,
			t.Geometry.Left, t.Geometry.Top, t.Geometry.Width, t.Geometry.Height,
			t.TextHash, t.ImageHash, t.TypeName)
	}
}

// ClassifyKind returns the shape's coarse kind.
func ClassifyKind(shape deck.Shape) ShapeKind {
	switch {
	case shape.IsGroup():
		return KindGroup
	case shape.IsPicture():
		return KindPicture
	case shape.HasTable():
		return KindTable
	case shape.HasChart():
		return KindChart
	case shape.IsPlaceholder():
		return KindPlaceholder
	case shape.HasTextFrame():
		return KindTextBox
	}
	return KindOther
}

// ClassifyRole returns the placeholder role the shape plays, RoleNone for
// non-placeholders and for placeholder types outside the title, subtitle,
// and body families.
func ClassifyRole(shape deck.Shape) Role {
	if !shape.IsPlaceholder() {
		return RoleNone
	}
	pt := shape.Placeholder()
	switch {
	case pt.IsTitle():
		return RoleTitle
	case pt == deck.PlaceholderSubtitle:
		return RoleSubtitle
	case pt.IsBody():
		return RoleBody
	}
	return RoleNone
}

// Tokens emits the slide's ordered token stream, descending into groups
// with explicit start and end markers.
func Tokens(slide deck.Slide) []Token {
	var tokens []Token
	for _, shape := range slide.Shapes() {
		tokens = appendShapeTokens(tokens, shape)
	}
	return tokens
}

func appendShapeTokens(tokens []Token, shape deck.Shape) []Token {
	if shape.IsGroup() {
		tokens = append(tokens, Token{
			Marker:   markerGroupStart,
			Kind:     KindGroup,
			Geometry: shape.Geometry(),
			TypeName: shape.TypeName(),
		})
		for _, child := range shape.Children() {
			tokens = appendShapeTokens(tokens, child)
		}
		return append(tokens, Token{Marker: markerGroupEnd})
	}
	return append(tokens, Token{
		Marker:    markerShape,
		Kind:      ClassifyKind(shape),
		Role:      ClassifyRole(shape),
		Geometry:  shape.Geometry(),
		TextHash:  shapeTextHash(shape),
		ImageHash: shapeImageHash(shape),
		TypeName:  shape.TypeName(),
	})
}

// ShapeTextLines extracts a shape's text as tab-indented lines: text frame
// paragraphs first, then every table cell, then the chart title. Empty
// paragraphs are dropped.
func ShapeTextLines(shape deck.Shape) []string {
	var lines []string
	if shape.IsGroup() {
		for _, child := range shape.Children() {
			lines = append(lines, ShapeTextLines(child)...)
		}
		return lines
	}
	if shape.HasTextFrame() {
		lines = append(lines, paragraphLines(shape.Paragraphs())...)
	}
	if shape.HasTable() {
		for _, cell := range shape.TableCells() {
			lines = append(lines, paragraphLines(cell)...)
		}
	}
	if shape.HasChart() {
		lines = append(lines, paragraphLines(shape.ChartTitle())...)
	}
	return lines
}

func paragraphLines(paragraphs []deck.Paragraph) []string {
	var lines []string
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		lines = append(lines, strings.Repeat("\t", p.Level)+text)
	}
	return lines
}

// shapeTextHash hashes the shape's text. A shape with no text yields the
// empty string, never a hash of "", so "no text capability" and "empty
// text" stay distinguishable from hashed content.
func shapeTextHash(shape deck.Shape) string {
	lines := ShapeTextLines(shape)
	if len(lines) == 0 {
		return ""
	}
	return textnorm.Hash(strings.Join(lines, "\n"))
}

func shapeImageHash(shape deck.Shape) string {
	if !shape.IsPicture() {
		return ""
	}
	image, err := shape.ImageBytes()
	if err != nil || len(image) == 0 {
		return ""
	}
	return textnorm.HashBytes(image)
}
