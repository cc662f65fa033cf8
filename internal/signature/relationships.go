package signature

import (
	"fmt"
	"sort"

	"deckpatch/internal/deck"
	"deckpatch/internal/textnorm"
)

// RelToken pairs a relationship type with the content hash of what it
// points at. A sorted RelToken list represents the relationship set
// independent of id assignment order.
type RelToken struct {
	Type string
	Hash string
}

// ResolveRelationships maps each relationship id to a content hash and
// returns the sorted token list. Internal targets hash the referenced
// part's bytes; external targets hash the literal target string. Ids are
// consumed only as map keys, so renumbering them cannot change the tokens.
func ResolveRelationships(rels []deck.Relationship) (map[string]string, []RelToken, error) {
	byID := make(map[string]string, len(rels))
	tokens := make([]RelToken, 0, len(rels))
	for _, rel := range rels {
		var hash string
		if rel.External() {
			hash = textnorm.HashBytes([]byte(rel.Target()))
		} else {
			payload, err := rel.Payload()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve relationship %s (%s): %w", rel.ID(), rel.Target(), err)
			}
			hash = textnorm.HashBytes(payload)
		}
		byID[rel.ID()] = hash
		tokens = append(tokens, RelToken{Type: rel.Type(), Hash: hash})
	}
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Type != tokens[j].Type {
			return tokens[i].Type < tokens[j].Type
		}
		return tokens[i].Hash < tokens[j].Hash
	})
	return byID, tokens, nil
}
