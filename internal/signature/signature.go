package signature

import (
	"fmt"
	"strings"

	"deckpatch/internal/deck"
	"deckpatch/internal/textnorm"
)

// Build computes the slide's structural signature: a short digest over the
// ordered shape-token stream, the normalized speaker notes, and the
// relationship token list.
func Build(slide deck.Slide) (string, error) {
	_, relTokens, err := ResolveRelationships(slide.Relationships())
	if err != nil {
		return "", err
	}
	var payload strings.Builder
	for _, token := range Tokens(slide) {
		token.encode(&payload)
	}
	payload.WriteString("notes|")
	payload.WriteString(textnorm.Normalize(slide.NotesText()))
	payload.WriteString("\n")
	for _, rel := range relTokens {
		fmt.Fprintf(&payload, "rel|%s|%s\n", rel.Type, rel.Hash)
	}
	return textnorm.HashBytes([]byte(payload.String())), nil
}
