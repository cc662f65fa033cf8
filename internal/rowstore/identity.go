package rowstore

import (
	"fmt"

	"deckpatch/internal/textnorm"
)

// TextHash derives the slide's text identity from its three text fields.
func TextHash(title, body, notes string) string {
	return textnorm.Hash(title, body, notes)
}

// Fingerprint derives the slide's content identity: it changes if either
// the text or any image changes, and nothing else.
func Fingerprint(textHash string, imageHashes []string) string {
	return textnorm.HashBytes([]byte(textHash + "\n" + JoinList(imageHashes)))
}

// UID derives a stable slide identity for deduplication and joins across
// merged row sets. Unlike Fingerprint it is pinned to the slide's position
// of origin.
func UID(source string, slideIndex int, textHash string, imageHashes []string) string {
	key := fmt.Sprintf("%s:%d:%s:%s", source, slideIndex, textHash, JoinList(imageHashes))
	return textnorm.HashBytes([]byte(key))
}

// Derive fills the row's three identity columns from its content fields.
func (r *Row) Derive() {
	r.TextHash = TextHash(r.TitleText, r.BodyText, r.NotesText)
	r.SlideFingerprint = Fingerprint(r.TextHash, r.ImageHashes)
	r.SlideUID = UID(r.SourcePPTX, r.SourceSlideIndex, r.TextHash, r.ImageHashes)
}
