package rowstore

import (
	"sort"
	"strings"

	"deckpatch/internal/deck"
	"deckpatch/internal/signature"
	"deckpatch/internal/textnorm"
)

// layoutHintAliases folds vendor layout names onto the pipeline's
// classification vocabulary. Unknown names pass through normalized.
var layoutHintAliases = map[string]string{
	"title_and_content": "title_and_content",
	"title_and_object":  "title_and_content",
	"title_only":        "section_header",
	"section_header":    "section_header",
	"two_content":       "two_column",
	"two_column":        "two_column",
	"blank":             "blank",
}

// NormalizeLayoutHint maps a layout display name to a layout
// classification.
func NormalizeLayoutHint(layoutName string) string {
	normalized := textnorm.NormalizeSimpleName(layoutName)
	if normalized == "" {
		return "custom"
	}
	if hint, found := layoutHintAliases[normalized]; found {
		return hint
	}
	return normalized
}

// SlideImage is one picture found while indexing: its content, content
// hash, and position of origin.
type SlideImage struct {
	ShapeID int64
	Blob    []byte
	Hash    string
	Locator string
}

// CollectImages gathers picture shapes from a slide, including grouped
// pictures, in document order.
func CollectImages(slide deck.Slide, sourceName string, slideIndex int) ([]SlideImage, error) {
	var images []SlideImage
	var walk func(shapes []deck.Shape) error
	walk = func(shapes []deck.Shape) error {
		for _, shape := range shapes {
			if shape.IsGroup() {
				if err := walk(shape.Children()); err != nil {
					return err
				}
				continue
			}
			if !shape.IsPicture() {
				continue
			}
			blob, err := shape.ImageBytes()
			if err != nil {
				return err
			}
			images = append(images, SlideImage{
				ShapeID: shape.ID(),
				Blob:    blob,
				Hash:    textnorm.DigestBytes(blob),
				Locator: BuildLocator(sourceName, slideIndex, shape.ID()),
			})
		}
		return nil
	}
	if err := walk(slide.Shapes()); err != nil {
		return nil, err
	}
	return images, nil
}

// IndexSlide builds one content-addressed row for a single slide.
func IndexSlide(slide deck.Slide, sourceName string, slideIndex int) (Row, error) {
	images, err := CollectImages(slide, sourceName, slideIndex)
	if err != nil {
		return Row{}, err
	}
	row := Row{
		SourcePPTX:       sourceName,
		SourceSlideIndex: slideIndex,
		TitleText:        titleText(slide),
		BodyText:         bodyText(slide),
		NotesText:        slide.NotesText(),
		LayoutHint:       NormalizeLayoutHint(slide.LayoutName()),
		AssetTypes:       assetTypes(slide),
	}
	for _, image := range images {
		row.ImageRefs = append(row.ImageRefs, image.Locator)
		row.ImageHashes = append(row.ImageHashes, image.Hash)
	}
	row.Derive()
	return row, nil
}

// IndexDocument builds one content-addressed row per slide.
func IndexDocument(doc deck.Document, sourceName string) ([]Row, error) {
	var rows []Row
	for i, slide := range doc.Slides() {
		row, err := IndexSlide(slide, sourceName, i+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func titleShape(slide deck.Slide) deck.Shape {
	for _, shape := range slide.Shapes() {
		if shape.IsPlaceholder() && shape.Placeholder().IsTitle() {
			return shape
		}
	}
	return nil
}

func titleText(slide deck.Slide) string {
	title := titleShape(slide)
	if title == nil || !title.HasTextFrame() {
		return ""
	}
	var lines []string
	for _, p := range title.Paragraphs() {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func bodyText(slide deck.Slide) string {
	title := titleShape(slide)
	var lines []string
	for _, shape := range slide.Shapes() {
		if title != nil && shape == title {
			continue
		}
		lines = append(lines, signature.ShapeTextLines(shape)...)
	}
	return strings.Join(lines, "\n")
}

func assetTypes(slide deck.Slide) []string {
	seen := make(map[string]struct{})
	var collect func(shapes []deck.Shape)
	collect = func(shapes []deck.Shape) {
		for _, shape := range shapes {
			switch signature.ClassifyKind(shape) {
			case signature.KindGroup:
				collect(shape.Children())
			case signature.KindPicture:
				seen["image"] = struct{}{}
			case signature.KindTable:
				seen["table"] = struct{}{}
			case signature.KindChart:
				seen["chart"] = struct{}{}
			}
		}
	}
	collect(slide.Shapes())
	var types []string
	for kind := range seen {
		types = append(types, kind)
	}
	sort.Strings(types)
	return types
}
