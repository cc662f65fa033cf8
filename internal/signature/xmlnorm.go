package signature

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"deckpatch/internal/textnorm"
)

// NormalizedXML signs a slide part's raw XML after stripping attributes
// whose local name is "id" or "name". It is the softer signature variant:
// id-insensitive like Build, but sensitive to any other byte of the part.
func NormalizedXML(partXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(partXML))
	var payload strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("normalize part xml: %w", err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			payload.WriteString("<")
			payload.WriteString(tok.Name.Local)
			attrs := make([]string, 0, len(tok.Attr))
			for _, attr := range tok.Attr {
				local := strings.ToLower(attr.Name.Local)
				if local == "id" || local == "name" {
					continue
				}
				if attr.Name.Local == "xmlns" || attr.Name.Space == "xmlns" {
					continue
				}
				attrs = append(attrs, attr.Name.Local+"="+attr.Value)
			}
			sort.Strings(attrs)
			for _, attr := range attrs {
				payload.WriteString(" ")
				payload.WriteString(attr)
			}
			payload.WriteString(">")
		case xml.EndElement:
			payload.WriteString("</")
			payload.WriteString(tok.Name.Local)
			payload.WriteString(">")
		case xml.CharData:
			text := strings.TrimSpace(string(tok))
			if text != "" {
				payload.WriteString(text)
			}
		}
	}
	return textnorm.HashBytes([]byte(payload.String())), nil
}
