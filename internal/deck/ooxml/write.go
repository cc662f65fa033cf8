package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"deckpatch/internal/deck"
)

const contentTypesPart = "[Content_Types].xml"

// flush serializes pending text and notes edits into the document's part
// map. Ranges recorded at parse time become stale afterwards, so the
// slide drops its parsed state.
func (s *Slide) flush() error {
	if err := s.flushShapeEdits(); err != nil {
		return err
	}
	return s.flushNotes()
}

func (s *Slide) flushShapeEdits() error {
	var edits []*Shape
	collectEdited(s.shapes, &edits)
	if len(edits) == 0 {
		return nil
	}

	data := s.doc.parts[s.partName]
	// Splice from the back so earlier ranges stay valid.
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].node.txStart > edits[j].node.txStart
	})
	for _, shape := range edits {
		node := shape.node
		if node.txEnd < node.txStart || node.txEnd > int64(len(data)) {
			return fmt.Errorf("%s: stale text range for shape %d", s.partName, node.id)
		}
		var buf bytes.Buffer
		buf.Write(data[:node.txStart])
		writeParagraphsXML(&buf, shape.pending)
		buf.Write(data[node.txEnd:])
		data = buf.Bytes()
	}
	s.doc.parts[s.partName] = data

	s.parsed = false
	s.shapes = nil
	return nil
}

func collectEdited(shapes []*Shape, dst *[]*Shape) {
	for _, shape := range shapes {
		if shape.edited {
			*dst = append(*dst, shape)
			shape.edited = false
		}
		collectEdited(shape.children, dst)
	}
}

// writeParagraphsXML renders paragraphs as a run of a:p elements. An
// empty set still emits one empty paragraph, which the schema requires.
func writeParagraphsXML(buf *bytes.Buffer, paragraphs []deck.Paragraph) {
	if len(paragraphs) == 0 {
		buf.WriteString("<a:p/>")
		return
	}
	for _, paragraph := range paragraphs {
		buf.WriteString("<a:p>")
		if paragraph.Level > 0 {
			fmt.Fprintf(buf, `<a:pPr lvl="%d"/>`, paragraph.Level)
		}
		if paragraph.Text != "" {
			buf.WriteString("<a:r><a:t>")
			_ = xml.EscapeText(buf, []byte(paragraph.Text))
			buf.WriteString("</a:t></a:r>")
		}
		buf.WriteString("</a:p>")
	}
}

func (s *Slide) flushNotes() error {
	if s.notesPending == nil {
		return nil
	}
	text := *s.notesPending
	partName := s.resolveNotesPart()

	if partName == "" {
		if strings.TrimSpace(text) == "" {
			s.notesPending = nil
			return nil
		}
		if err := s.createNotesPart(text); err != nil {
			return err
		}
		s.notesPending = nil
		return nil
	}

	data, found := s.doc.parts[partName]
	if !found {
		return fmt.Errorf("missing notes part %s", partName)
	}
	body := findNotesBody(data)
	if body == nil {
		return fmt.Errorf("%s: no notes body placeholder", partName)
	}
	var buf bytes.Buffer
	buf.Write(data[:body.txStart])
	writeParagraphsXML(&buf, notesParagraphs(text))
	buf.Write(data[body.txEnd:])
	s.doc.parts[partName] = buf.Bytes()
	s.notesPending = nil
	return nil
}

// notesParagraphs splits notes text into paragraphs, mapping leading tabs
// to indent levels.
func notesParagraphs(text string) []deck.Paragraph {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	paragraphs := make([]deck.Paragraph, 0, len(lines))
	for _, line := range lines {
		level := 0
		for strings.HasPrefix(line, "\t") {
			level++
			line = line[1:]
		}
		paragraphs = append(paragraphs, deck.Paragraph{Level: level, Text: line})
	}
	return paragraphs
}

const notesSlideTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/><p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`

// createNotesPart adds a notes part for a slide that has none: the part
// itself, its rels, a content-type override, and the slide's back rel.
func (s *Slide) createNotesPart(text string) error {
	n := s.index
	notesName := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)
	for {
		if _, taken := s.doc.parts[notesName]; !taken {
			break
		}
		n++
		notesName = fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)
	}

	var paras bytes.Buffer
	writeParagraphsXML(&paras, notesParagraphs(text))
	s.doc.parts[notesName] = []byte(fmt.Sprintf(notesSlideTemplate, paras.String()))

	var relEntries bytes.Buffer
	relEntries.WriteString(`<Relationship Id="rId1" Type="` + relTypeSlide + `" Target="../slides/` + path.Base(s.partName) + `"/>`)
	if master := s.doc.firstNotesMaster(); master != "" {
		relEntries.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="../notesMasters/` + path.Base(master) + `"/>`)
	}
	relsName := path.Join(path.Dir(notesName), "_rels", path.Base(notesName)+".rels")
	s.doc.parts[relsName] = []byte(xml.Header +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		relEntries.String() + `</Relationships>`)

	if err := s.doc.addContentTypeOverride("/"+notesName,
		"application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"); err != nil {
		return err
	}
	if err := s.doc.addRelationship(s.partName, relTypeNotesSlide, "../notesSlides/"+path.Base(notesName)); err != nil {
		return err
	}

	s.notesPart = notesName
	s.parsed = false
	s.shapes = nil
	return nil
}

func (d *Document) firstNotesMaster() string {
	var names []string
	for name := range d.parts {
		if strings.HasPrefix(name, "ppt/notesMasters/") && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// addContentTypeOverride registers a part's content type by splicing an
// Override entry into [Content_Types].xml.
func (d *Document) addContentTypeOverride(partName, contentType string) error {
	data, found := d.parts[contentTypesPart]
	if !found {
		return fmt.Errorf("missing %s", contentTypesPart)
	}
	if bytes.Contains(data, []byte(`PartName="`+partName+`"`)) {
		return nil
	}
	entry := fmt.Sprintf(`<Override PartName="%s" ContentType="%s"/>`, partName, contentType)
	updated := bytes.Replace(data, []byte("</Types>"), []byte(entry+"</Types>"), 1)
	if bytes.Equal(updated, data) {
		return fmt.Errorf("%s: no closing Types element", contentTypesPart)
	}
	d.parts[contentTypesPart] = updated
	return nil
}

// addRelationship appends a relationship to a part's rels, creating the
// rels part when the owner has none yet.
func (d *Document) addRelationship(ownerPart, relType, target string) error {
	relsName := path.Join(path.Dir(ownerPart), "_rels", path.Base(ownerPart)+".rels")
	data, found := d.parts[relsName]
	if !found {
		data = []byte(xml.Header +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
	}
	rels, err := parseRels(data)
	if err != nil {
		return fmt.Errorf("%s: %w", relsName, err)
	}
	next := 1
	for _, rel := range rels {
		if suffix, found := strings.CutPrefix(rel.ID, "rId"); found {
			if n, err := strconv.Atoi(suffix); err == nil && n >= next {
				next = n + 1
			}
		}
	}
	entry := fmt.Sprintf(`<Relationship Id="rId%d" Type="%s" Target="%s"/>`, next, relType, target)
	updated := bytes.Replace(data, []byte("</Relationships>"), []byte(entry+"</Relationships>"), 1)
	if bytes.Equal(updated, data) {
		return fmt.Errorf("%s: no closing Relationships element", relsName)
	}
	d.parts[relsName] = updated
	return nil
}
