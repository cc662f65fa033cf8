// Package rowstore persists slide-level content addresses in a fixed,
// versioned CSV schema and implements the batch index, merge, validate,
// and rebuild operations over it.
//
// Three derived identities are pure functions of content: the text hash
// (title, body, notes), the slide fingerprint (text hash plus image
// content hashes), and the slide UID (source name, slide index, text hash,
// image hashes). Image positions of origin are named by locator strings of
// the form pptx:<source>#slide=<n>#shape_id=<id>, which round-trip exactly
// so rebuild can re-extract images from the original decks.
package rowstore
