package deck

// Geometry is a shape's placement in integer document units (EMU for OOXML
// sources). Volatile sub-integer noise never reaches signatures because the
// boundary is integral by construction.
type Geometry struct {
	Left   int64
	Top    int64
	Width  int64
	Height int64
}

// PlaceholderType classifies a placeholder shape. PlaceholderNone marks
// shapes that are not placeholders at all.
type PlaceholderType int

const (
	PlaceholderNone PlaceholderType = iota
	PlaceholderTitle
	PlaceholderCenterTitle
	PlaceholderSubtitle
	PlaceholderBody
	PlaceholderObject
	PlaceholderContent
	PlaceholderText
	PlaceholderFooter
	PlaceholderOther
)

// IsTitle reports whether the placeholder carries the slide title.
func (t PlaceholderType) IsTitle() bool {
	return t == PlaceholderTitle || t == PlaceholderCenterTitle
}

// IsBody reports whether the placeholder acts like body content.
func (t PlaceholderType) IsBody() bool {
	switch t {
	case PlaceholderBody, PlaceholderObject, PlaceholderContent, PlaceholderText:
		return true
	}
	return false
}

func (t PlaceholderType) String() string {
	switch t {
	case PlaceholderTitle:
		return "title"
	case PlaceholderCenterTitle:
		return "center_title"
	case PlaceholderSubtitle:
		return "subtitle"
	case PlaceholderBody:
		return "body"
	case PlaceholderObject:
		return "object"
	case PlaceholderContent:
		return "content"
	case PlaceholderText:
		return "text"
	case PlaceholderFooter:
		return "footer"
	case PlaceholderOther:
		return "other"
	}
	return ""
}

// Paragraph is one paragraph of a text frame: its content and its
// indentation (bullet nesting) level, zero-based.
type Paragraph struct {
	Level int
	Text  string
}

// Relationship is one entry of a slide part's relationship set.
type Relationship interface {
	// ID is the volatile relationship identifier (r:id). Tools renumber
	// these freely on save, so nothing durable may be derived from it.
	ID() string
	// Type is the relationship type URI.
	Type() string
	// Target is the target part name or external URI.
	Target() string
	// External reports whether the target lives outside the package.
	External() bool
	// Payload returns the referenced part's bytes. It errors for external
	// relationships.
	Payload() ([]byte, error)
}

// Document is an opened presentation. Implementations are single-writer;
// callers that share a file must serialize externally.
type Document interface {
	// Slides returns the slides in presentation order.
	Slides() []Slide
	// SaveAs writes the document, with any applied text edits, to path.
	SaveAs(path string) error
	// Close releases any resources held by the document.
	Close() error
}

// Slide is one slide of a document.
type Slide interface {
	// Shapes returns top-level shapes in document order. Group members are
	// reached through Shape.Children, not flattened here.
	Shapes() []Shape
	// NotesText returns the speaker notes text, empty when absent.
	NotesText() string
	// SetNotesText replaces the speaker notes text.
	SetNotesText(text string) error
	// Relationships enumerates the slide part's relationship set.
	Relationships() []Relationship
	// LayoutName returns the slide layout's display name, empty if unknown.
	LayoutName() string
	// XML returns the raw slide part bytes when the backing store has
	// them, nil otherwise.
	XML() []byte
}

// Shape is one shape on a slide. Capability pairs (IsGroup/Children,
// IsPicture/ImageBytes, HasTextFrame/Paragraphs, ...) follow the same
// shape-kind precedence everywhere: group, picture, table, chart,
// placeholder, textbox.
type Shape interface {
	// ID is the shape's internal numeric id. Stable across re-opens of the
	// same bytes, but external tools may renumber it on save.
	ID() int64
	// Name is the shape's display name, possibly empty or non-unique.
	Name() string
	// TypeName is a readable label of the underlying shape type.
	TypeName() string
	// Geometry returns the shape's placement.
	Geometry() Geometry

	// IsGroup reports whether the shape is a group container.
	IsGroup() bool
	// Children returns group members in document order, nil for non-groups.
	Children() []Shape

	// IsPicture reports whether the shape is a picture.
	IsPicture() bool
	// ImageBytes returns the picture's image content.
	ImageBytes() ([]byte, error)

	// IsPlaceholder reports whether the shape occupies a layout placeholder.
	IsPlaceholder() bool
	// Placeholder returns the placeholder classification.
	Placeholder() PlaceholderType

	// HasTextFrame reports whether the shape can hold paragraph text.
	HasTextFrame() bool
	// Paragraphs returns the text frame's paragraphs in order.
	Paragraphs() []Paragraph
	// SetParagraphs replaces the text frame's paragraphs, preserving the
	// frame's geometry and formatting defaults.
	SetParagraphs(paragraphs []Paragraph) error

	// HasTable reports whether the shape hosts a table.
	HasTable() bool
	// TableCells returns each cell's paragraphs in row-major order.
	TableCells() [][]Paragraph

	// HasChart reports whether the shape hosts a chart.
	HasChart() bool
	// ChartTitle returns the chart title paragraphs, nil when untitled.
	ChartTitle() []Paragraph
}
