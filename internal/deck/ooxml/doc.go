// Package ooxml reads and edits PPTX files directly. It parses only the
// slide parts the pipeline needs and writes text edits by splicing the
// affected byte ranges, so untouched markup survives byte for byte.
package ooxml
