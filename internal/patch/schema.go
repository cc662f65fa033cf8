package patch

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"deckpatch/internal/textnorm"
)

// Version is the only patch file version this engine reads or writes.
const Version = 1

// MaxBulletDepth caps bullet nesting in resolved box text. Deeper nesting
// is a hard error, not a skip.
const MaxBulletDepth = 4

// File is a patch file: the export unit and the apply input.
type File struct {
	Version    int          `yaml:"version"`
	SourcePPTX string       `yaml:"source_pptx"`
	Patches    []SlidePatch `yaml:"patches"`
}

// SlidePatch addresses one slide by 1-based ordinal index and carries the
// slide-level precondition hash.
type SlidePatch struct {
	SourceSlideIndex int        `yaml:"source_slide_index"`
	SlideHash        string     `yaml:"slide_hash"`
	Boxes            []BoxPatch `yaml:"boxes"`
}

// BoxPatch addresses one box. Text and Bullets are alternative content
// carriers; Bullets wins when both are present. TextHashBefore is the
// box-level precondition hash.
type BoxPatch struct {
	BoxID           string   `yaml:"box_id"`
	Text            string   `yaml:"text,omitempty"`
	Bullets         []string `yaml:"bullets,omitempty"`
	TextHashBefore  string   `yaml:"text_hash_before"`
	Locked          bool     `yaml:"locked,omitempty"`
	EditStatus      string   `yaml:"edit_status,omitempty"`
	ShapeName       string   `yaml:"shape_name,omitempty"`
	PlaceholderType string   `yaml:"placeholder_type,omitempty"`
}

var editStatuses = map[string]struct{}{
	"":       {},
	"locked": {},
	"skip":   {},
	"frozen": {},
}

// Skip reports whether the box is marked locked or otherwise excluded from
// apply.
func (b BoxPatch) Skip() bool {
	if b.Locked {
		return true
	}
	return b.EditStatus != ""
}

// ResolveText returns the box's replacement text. Bullet entries may carry
// leading tabs for nesting; nesting beyond MaxBulletDepth is rejected.
func (b BoxPatch) ResolveText() (string, error) {
	text := b.Text
	if len(b.Bullets) > 0 {
		text = strings.Join(b.Bullets, "\n")
	}
	for _, line := range textnorm.ParseTabIndented(text, false) {
		if line.Level >= MaxBulletDepth {
			return "", fmt.Errorf("box %s: bullet nesting depth %d exceeds maximum %d",
				b.BoxID, line.Level+1, MaxBulletDepth)
		}
	}
	return text, nil
}

// Validate checks the file's schema. Schema violations are fatal for the
// whole run.
func (f *File) Validate() error {
	if f.Version != Version {
		return fmt.Errorf("patch version %d is not supported (expected %d)", f.Version, Version)
	}
	for i, slide := range f.Patches {
		if slide.SourceSlideIndex < 1 {
			return fmt.Errorf("patches[%d]: source_slide_index %d must be >= 1", i, slide.SourceSlideIndex)
		}
		if !isShortHex(slide.SlideHash) {
			return fmt.Errorf("patches[%d]: slide_hash %q is not a %d-hex digest",
				i, slide.SlideHash, textnorm.ShortHashLen)
		}
		for j, box := range slide.Boxes {
			if strings.TrimSpace(box.BoxID) == "" {
				return fmt.Errorf("patches[%d].boxes[%d]: box_id is required", i, j)
			}
			if !isShortHex(box.TextHashBefore) {
				return fmt.Errorf("patches[%d].boxes[%d]: text_hash_before %q is not a %d-hex digest",
					i, j, box.TextHashBefore, textnorm.ShortHashLen)
			}
			if _, ok := editStatuses[box.EditStatus]; !ok {
				return fmt.Errorf("patches[%d].boxes[%d]: edit_status %q is not one of locked, skip, frozen",
					i, j, box.EditStatus)
			}
		}
	}
	return nil
}

func isShortHex(value string) bool {
	if len(value) != textnorm.ShortHashLen {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// Load reads and validates a patch file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse patch file %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("patch file %s: %w", path, err)
	}
	return &file, nil
}

// Save writes the patch file as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode patch file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write patch file %s: %w", path, err)
	}
	return nil
}
