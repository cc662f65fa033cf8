package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"deckpatch/internal/deck"
)

// parsedShape is one shape-tree node with enough byte-range information
// to splice edited text back into the part.
type parsedShape struct {
	id       int64
	name     string
	kind     string // sp, pic, grpSp, graphicFrame
	ph       deck.PlaceholderType
	hasPh    bool
	geom     deck.Geometry
	children []*parsedShape

	hasTxBody  bool
	paragraphs []deck.Paragraph
	// txStart/txEnd cover the contiguous <a:p>...</a:p> run inside the
	// shape's txBody, exclusive of bodyPr and lstStyle.
	txStart int64
	txEnd   int64

	imageRelID string

	hasTable bool
	table    [][]deck.Paragraph

	chartRelID string
}

// shapeParser walks a slide (or notes) part and builds the shape tree.
type shapeParser struct {
	dec *xml.Decoder
	// pos is the byte offset where the next token begins.
	pos int64
}

func (p *shapeParser) token() (xml.Token, error) {
	p.pos = p.dec.InputOffset()
	return p.dec.Token()
}

// parseShapeTree parses the spTree of a slide or notes part.
func parseShapeTree(data []byte) ([]*parsedShape, error) {
	parser := &shapeParser{dec: xml.NewDecoder(bytes.NewReader(data))}
	for {
		tok, err := parser.token()
		if err != nil {
			return nil, fmt.Errorf("parse shape tree: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "spTree" {
			return parser.parseContainer(start)
		}
	}
}

// parseContainer reads shapes until the container's end element.
func (p *shapeParser) parseContainer(container xml.StartElement) ([]*parsedShape, error) {
	var shapes []*parsedShape
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", container.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shape, err := p.parseSp(t)
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			case "pic":
				shape, err := p.parsePic(t)
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			case "grpSp":
				shape, err := p.parseGroup(t)
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			case "graphicFrame":
				shape, err := p.parseGraphicFrame(t)
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			default:
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == container.Name.Local {
				return shapes, nil
			}
		}
	}
}

func (p *shapeParser) parseSp(start xml.StartElement) (*parsedShape, error) {
	shape := &parsedShape{kind: "sp"}
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse sp: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				shape.id, shape.name = parseCNvPr(t)
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "ph":
				shape.hasPh = true
				shape.ph = parsePlaceholderType(attrValue(t, "type"))
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "xfrm":
				geom, err := p.parseXfrm(t)
				if err != nil {
					return nil, err
				}
				shape.geom = geom
			case "txBody":
				if err := p.parseTxBody(t, shape); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return shape, nil
			}
		}
	}
}

func (p *shapeParser) parsePic(start xml.StartElement) (*parsedShape, error) {
	shape := &parsedShape{kind: "pic"}
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse pic: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				shape.id, shape.name = parseCNvPr(t)
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "blip":
				shape.imageRelID = attrValue(t, "embed")
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "xfrm":
				geom, err := p.parseXfrm(t)
				if err != nil {
					return nil, err
				}
				shape.geom = geom
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return shape, nil
			}
		}
	}
}

func (p *shapeParser) parseGroup(start xml.StartElement) (*parsedShape, error) {
	shape := &parsedShape{kind: "grpSp"}
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse grpSp: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				shape.id, shape.name = parseCNvPr(t)
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "xfrm":
				geom, err := p.parseXfrm(t)
				if err != nil {
					return nil, err
				}
				shape.geom = geom
			case "sp":
				child, err := p.parseSp(t)
				if err != nil {
					return nil, err
				}
				shape.children = append(shape.children, child)
			case "pic":
				child, err := p.parsePic(t)
				if err != nil {
					return nil, err
				}
				shape.children = append(shape.children, child)
			case "grpSp":
				child, err := p.parseGroup(t)
				if err != nil {
					return nil, err
				}
				shape.children = append(shape.children, child)
			case "graphicFrame":
				child, err := p.parseGraphicFrame(t)
				if err != nil {
					return nil, err
				}
				shape.children = append(shape.children, child)
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return shape, nil
			}
		}
	}
}

func (p *shapeParser) parseGraphicFrame(start xml.StartElement) (*parsedShape, error) {
	shape := &parsedShape{kind: "graphicFrame"}
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse graphicFrame: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				shape.id, shape.name = parseCNvPr(t)
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			case "xfrm":
				geom, err := p.parseXfrm(t)
				if err != nil {
					return nil, err
				}
				shape.geom = geom
			case "tbl":
				table, err := p.parseTable(t)
				if err != nil {
					return nil, err
				}
				shape.hasTable = true
				shape.table = table
			case "chart":
				shape.chartRelID = attrValue(t, "id")
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return shape, nil
			}
		}
	}
}

// parseTxBody reads paragraphs and records the byte range the paragraph
// run occupies so edits can be spliced in place.
func (p *shapeParser) parseTxBody(start xml.StartElement, shape *parsedShape) error {
	shape.hasTxBody = true
	for {
		tok, err := p.token()
		if err != nil {
			return fmt.Errorf("parse txBody: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				if shape.txStart == 0 && len(shape.paragraphs) == 0 {
					shape.txStart = p.pos
				}
				paragraph, err := p.parseParagraph(t)
				if err != nil {
					return err
				}
				shape.paragraphs = append(shape.paragraphs, paragraph)
				shape.txEnd = p.dec.InputOffset()
			} else if err := p.dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				if shape.txStart == 0 && len(shape.paragraphs) == 0 {
					// Empty txBody: splice point sits just before its
					// end tag.
					shape.txStart = p.pos
					shape.txEnd = p.pos
				}
				return nil
			}
		}
	}
}

// parseParagraph reads one a:p, concatenating its run texts. Line breaks
// inside a paragraph fold into spaces, matching how the text is shown.
func (p *shapeParser) parseParagraph(start xml.StartElement) (deck.Paragraph, error) {
	paragraph := deck.Paragraph{}
	var text strings.Builder
	depthT := 0
	for {
		tok, err := p.token()
		if err != nil {
			return paragraph, fmt.Errorf("parse paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if lvl := attrValue(t, "lvl"); lvl != "" {
					if level, err := strconv.Atoi(lvl); err == nil {
						paragraph.Level = level
					}
				}
			case "t":
				depthT++
			case "br":
				text.WriteByte(' ')
			}
		case xml.CharData:
			if depthT > 0 {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				depthT--
			case start.Name.Local:
				paragraph.Text = text.String()
				return paragraph, nil
			}
		}
	}
}

// parseTable reads an a:tbl, collecting each cell's paragraphs in
// row-major order.
func (p *shapeParser) parseTable(start xml.StartElement) ([][]deck.Paragraph, error) {
	var cells [][]deck.Paragraph
	var cell []deck.Paragraph
	inCell := false
	for {
		tok, err := p.token()
		if err != nil {
			return nil, fmt.Errorf("parse table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				inCell = true
				cell = nil
			case "p":
				if !inCell {
					continue
				}
				paragraph, err := p.parseParagraph(t)
				if err != nil {
					return nil, err
				}
				cell = append(cell, paragraph)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				cells = append(cells, cell)
				cell = nil
				inCell = false
			case start.Name.Local:
				return cells, nil
			}
		}
	}
}

func (p *shapeParser) parseXfrm(start xml.StartElement) (deck.Geometry, error) {
	var geom deck.Geometry
	for {
		tok, err := p.token()
		if err != nil {
			return geom, fmt.Errorf("parse xfrm: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "off":
				geom.Left = attrInt64(t, "x")
				geom.Top = attrInt64(t, "y")
			case "ext":
				geom.Width = attrInt64(t, "cx")
				geom.Height = attrInt64(t, "cy")
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return geom, nil
			}
		}
	}
}

func parseCNvPr(el xml.StartElement) (int64, string) {
	id, _ := strconv.ParseInt(attrValue(el, "id"), 10, 64)
	return id, attrValue(el, "name")
}

func parsePlaceholderType(value string) deck.PlaceholderType {
	switch value {
	case "title":
		return deck.PlaceholderTitle
	case "ctrTitle":
		return deck.PlaceholderCenterTitle
	case "subTitle":
		return deck.PlaceholderSubtitle
	case "body":
		return deck.PlaceholderBody
	case "obj":
		return deck.PlaceholderObject
	case "ftr":
		return deck.PlaceholderFooter
	case "":
		// A ph element with no type attribute defaults to body.
		return deck.PlaceholderBody
	default:
		return deck.PlaceholderOther
	}
}

func attrValue(el xml.StartElement, local string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func attrInt64(el xml.StartElement, local string) int64 {
	value, _ := strconv.ParseInt(attrValue(el, local), 10, 64)
	return value
}
