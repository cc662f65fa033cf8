package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"

	"deckpatch/internal/deck"
)

// SlideSpec is the material for one slide composed by Writer.
type SlideSpec struct {
	Title  string
	Body   []deck.Paragraph
	Notes  string
	Images [][]byte
	// Layout is a layout hint (e.g. "section_header"); anything else maps
	// to the title-and-content layout.
	Layout string
}

// Writer composes a PPTX file from scratch. It writes a single master,
// two layouts, and a theme, then one slide part per spec; rebuilds use
// it to turn row-store content back into a deck.
type Writer struct {
	slides []SlideSpec
}

// NewWriter returns an empty deck writer.
func NewWriter() *Writer {
	return &Writer{}
}

// AddSlide appends one slide to the deck being composed.
func (w *Writer) AddSlide(spec SlideSpec) {
	w.slides = append(w.slides, spec)
}

// SlideCount reports how many slides have been added.
func (w *Writer) SlideCount() int {
	return len(w.slides)
}

// Save writes the composed deck to filePath.
func (w *Writer) Save(filePath string) error {
	parts, order, err := w.build()
	if err != nil {
		return err
	}
	out, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create pptx %s: %w", filePath, err)
	}
	writer := zip.NewWriter(out)
	for _, name := range order {
		entry, err := writer.Create(name)
		if err != nil {
			out.Close()
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := entry.Write(parts[name]); err != nil {
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

func (w *Writer) build() (map[string][]byte, []string, error) {
	parts := make(map[string][]byte)
	var order []string
	add := func(name string, data []byte) {
		parts[name] = data
		order = append(order, name)
	}

	var overrides bytes.Buffer
	for i := range w.slides {
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
		if w.slides[i].Notes != "" {
			fmt.Fprintf(&overrides, `<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, i+1)
		}
	}
	add(contentTypesPart, []byte(fmt.Sprintf(contentTypesTemplate, overrides.String())))
	add("_rels/.rels", []byte(rootRelsTemplate))

	var slideIDs, slideRels bytes.Buffer
	for i := range w.slides {
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
		fmt.Fprintf(&slideRels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, i+2, relTypeSlide, i+1)
	}
	add("ppt/presentation.xml", []byte(fmt.Sprintf(presentationTemplate, slideIDs.String())))
	add("ppt/_rels/presentation.xml.rels", []byte(fmt.Sprintf(presentationRelsTemplate, slideRels.String())))

	add("ppt/slideMasters/slideMaster1.xml", []byte(slideMasterTemplate))
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", []byte(slideMasterRelsTemplate))
	add("ppt/slideLayouts/slideLayout1.xml", []byte(slideLayoutTemplate))
	add("ppt/slideLayouts/_rels/slideLayout1.xml.rels", []byte(slideLayoutRelsTemplate))
	add("ppt/slideLayouts/slideLayout2.xml", []byte(sectionLayoutTemplate))
	add("ppt/slideLayouts/_rels/slideLayout2.xml.rels", []byte(slideLayoutRelsTemplate))
	add("ppt/theme/theme1.xml", []byte(themeTemplate))

	mediaIndex := 1
	for i, spec := range w.slides {
		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		var imageRels bytes.Buffer
		var imageRelIDs []string
		for _, image := range spec.Images {
			ext := imageExtension(image)
			mediaName := fmt.Sprintf("ppt/media/image%d.%s", mediaIndex, ext)
			add(mediaName, image)
			relID := fmt.Sprintf("rId%d", 2+len(imageRelIDs)+boolToInt(spec.Notes != ""))
			imageRelIDs = append(imageRelIDs, relID)
			fmt.Fprintf(&imageRels, `<Relationship Id="%s" Type="%s" Target="../media/image%d.%s"/>`, relID, relTypeImage, mediaIndex, ext)
			mediaIndex++
		}

		add(slideName, buildSlideXML(spec, imageRelIDs))

		var rels bytes.Buffer
		rels.WriteString(fmt.Sprintf(`<Relationship Id="rId1" Type="%s" Target="../slideLayouts/%s"/>`, relTypeSlideLayout, layoutPartFor(spec.Layout)))
		if spec.Notes != "" {
			fmt.Fprintf(&rels, `<Relationship Id="rId2" Type="%s" Target="../notesSlides/notesSlide%d.xml"/>`, relTypeNotesSlide, i+1)
		}
		rels.Write(imageRels.Bytes())
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1),
			[]byte(xml.Header+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels.String()+`</Relationships>`))

		if spec.Notes != "" {
			var paras bytes.Buffer
			writeParagraphsXML(&paras, notesParagraphs(spec.Notes))
			notesName := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", i+1)
			add(notesName, []byte(fmt.Sprintf(notesSlideTemplate, paras.String())))
			add(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", i+1),
				[]byte(xml.Header+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
					fmt.Sprintf(`<Relationship Id="rId1" Type="%s" Target="../slides/slide%d.xml"/>`, relTypeSlide, i+1)+
					`</Relationships>`))
		}
	}

	return parts, order, nil
}

func layoutPartFor(hint string) string {
	if hint == "section_header" {
		return "slideLayout2.xml"
	}
	return "slideLayout1.xml"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// buildSlideXML renders a slide with a title placeholder, a body
// placeholder, and one picture per image.
func buildSlideXML(spec SlideSpec, imageRelIDs []string) []byte {
	var shapes bytes.Buffer
	shapeID := 2

	var titleParas bytes.Buffer
	writeParagraphsXML(&titleParas, []deck.Paragraph{{Text: spec.Title}})
	fmt.Fprintf(&shapes, slideShapeTemplate, shapeID, "Title 1", `<p:ph type="title"/>`,
		914400, 457200, 10515600, 1325563, titleParas.String())
	shapeID++

	var bodyParas bytes.Buffer
	writeParagraphsXML(&bodyParas, spec.Body)
	fmt.Fprintf(&shapes, slideShapeTemplate, shapeID, "Content 2", `<p:ph idx="1"/>`,
		914400, 1825625, 10515600, 4351338, bodyParas.String())
	shapeID++

	for i, relID := range imageRelIDs {
		// Stack pictures down the right edge.
		top := 1825625 + int64(i)*2000000
		fmt.Fprintf(&shapes, slidePictureTemplate, shapeID, fmt.Sprintf("Picture %d", shapeID), relID,
			7600000, top, 3000000, 1800000)
		shapeID++
	}

	return []byte(fmt.Sprintf(slideTemplate, shapes.String()))
}

// imageExtension sniffs a media extension from magic bytes, defaulting
// to png.
func imageExtension(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg"
	case len(data) >= 6 && string(data[:6]) == "GIF87a", len(data) >= 6 && string(data[:6]) == "GIF89a":
		return "gif"
	default:
		return "png"
	}
}

const contentTypesTemplate = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/><Default Extension="jpeg" ContentType="image/jpeg"/><Default Extension="gif" ContentType="image/gif"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/><Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/><Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/><Override PartName="/ppt/slideLayouts/slideLayout2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/><Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>%s</Types>`

const rootRelsTemplate = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`

const presentationTemplate = xml.Header + `<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

const presentationRelsTemplate = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>%s</Relationships>`

const slideMasterTemplate = xml.Header + `<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/><p:sldLayoutId id="2147483650" r:id="rId2"/></p:sldLayoutIdLst></p:sldMaster>`

const slideMasterRelsTemplate = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout2.xml"/><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`

const slideLayoutTemplate = xml.Header + `<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="titleAndBody"><p:cSld name="Title and Content"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const sectionLayoutTemplate = xml.Header + `<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="secHead"><p:cSld name="Section Header"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRelsTemplate = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`

const themeTemplate = xml.Header + `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office"><a:themeElements><a:clrScheme name="Office"><a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2><a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme><a:fontScheme name="Office"><a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme><a:fmtScheme name="Office"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme></a:themeElements></a:theme>`

const slideTemplate = xml.Header + `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

const slideShapeTemplate = `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr>%s</p:nvPr></p:nvSpPr><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp>`

const slidePictureTemplate = `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`
