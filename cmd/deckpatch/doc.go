// Command deckpatch exports slide text to editable patch files, applies
// edited patches back under optimistic-concurrency checks, and maintains
// the content-addressed CSV slide index.
package main
