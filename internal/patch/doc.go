// Package patch implements the flat text-edit protocol: exporting slide
// text to a YAML patch file and applying an edited patch file back to a
// document under an optimistic-concurrency precondition.
//
// Apply never raises on a content mismatch. Every box lands in exactly one
// outcome bucket (updated, skipped locked, missing target, text mismatch,
// slide mismatch) and each bucket is counted independently because each
// implies a different remediation. Forcing past a mismatch is an explicit
// caller decision, never a default.
package patch
