// Package paths provides centralized path handling for envelope.
//
// It implements the symlink-aware identity comparisons that the request
// validators rely on, plus output filename computation. Resolved real
// paths are used only for equality and containment checks, never for
// the actual I/O, so user-facing path semantics (relative display names,
// the symlink the user typed) are preserved.
package paths
