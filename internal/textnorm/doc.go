// Package textnorm canonicalizes free text for hashing and comparison.
//
// Normalization collapses whitespace runs, drops blank lines, and preserves
// leading-tab indentation depth so nested bullet structure survives the
// round trip through flat edit formats. All digests produced here are
// 16-hex-character SHA-256 prefixes; they guard against accidental
// mismatches, not adversaries.
package textnorm
