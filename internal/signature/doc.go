// Package signature computes content-addressed slide identities.
//
// Build walks a slide's shape tree in document order, depth-first into
// groups, and packs an ordered token stream, the normalized speaker notes,
// and the slide's relationship content hashes into one digest. The result
// is sensitive to shape order, text, geometry, image bytes, and notes, but
// insensitive to volatile identifiers: internal shape ids, shape names, and
// relationship id assignment never reach the payload. Relationship ids are
// replaced by content hashes of the parts they point at, so a save that
// renumbers r:ids leaves the signature unchanged.
//
// NormalizedXML is the softer alternative strategy: it signs a slide part's
// raw XML after stripping id and name attributes. validate --strict uses it
// as a cross-check; the patch workflow relies on Build.
package signature
