package rowstore

import (
	"fmt"
	"strconv"
	"strings"
)

const locatorScheme = "pptx:"

// Locator names an image's slide-relative position of origin, independent
// of any copied-file naming scheme.
type Locator struct {
	Source     string
	SlideIndex int
	ShapeID    int64
}

// String renders the locator as pptx:<source>#slide=<n>#shape_id=<id>.
func (l Locator) String() string {
	return fmt.Sprintf("%s%s#slide=%d#shape_id=%d", locatorScheme, l.Source, l.SlideIndex, l.ShapeID)
}

// BuildLocator composes a locator string for an image's position of origin.
func BuildLocator(source string, slideIndex int, shapeID int64) string {
	return Locator{Source: source, SlideIndex: slideIndex, ShapeID: shapeID}.String()
}

// ParseLocator parses a locator string back into its three components.
// Unparseable locators are an error, never a silent skip.
func ParseLocator(value string) (Locator, error) {
	rest, found := strings.CutPrefix(value, locatorScheme)
	if !found {
		return Locator{}, fmt.Errorf("locator %q: missing %q scheme", value, locatorScheme)
	}
	parts := strings.Split(rest, "#")
	if len(parts) != 3 {
		return Locator{}, fmt.Errorf("locator %q: expected <source>#slide=<n>#shape_id=<id>", value)
	}
	if parts[0] == "" {
		return Locator{}, fmt.Errorf("locator %q: empty source", value)
	}
	slidePart, found := strings.CutPrefix(parts[1], "slide=")
	if !found {
		return Locator{}, fmt.Errorf("locator %q: missing slide= segment", value)
	}
	slideIndex, err := strconv.Atoi(slidePart)
	if err != nil || slideIndex < 1 {
		return Locator{}, fmt.Errorf("locator %q: slide index %q is not a positive integer", value, slidePart)
	}
	shapePart, found := strings.CutPrefix(parts[2], "shape_id=")
	if !found {
		return Locator{}, fmt.Errorf("locator %q: missing shape_id= segment", value)
	}
	shapeID, err := strconv.ParseInt(shapePart, 10, 64)
	if err != nil {
		return Locator{}, fmt.Errorf("locator %q: shape id %q is not an integer", value, shapePart)
	}
	return Locator{Source: parts[0], SlideIndex: slideIndex, ShapeID: shapeID}, nil
}
