// Package deck defines the document object-model boundary the pipeline
// depends on: ordered shape enumeration with nested groups, paragraph text
// and indentation access, integer geometry, picture bytes, speaker notes,
// and part relationships.
//
// The pipeline only ever reads documents through these interfaces and
// mutates them through SetParagraphs and SetNotesText, so any backing store
// that can answer them plugs in. deck/ooxml backs them with PPTX files and
// deck/memdeck with in-memory fixtures.
package deck
