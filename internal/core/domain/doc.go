// Package domain defines the core business entities for the
// comparative genomics pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Gene: A pipeline target with its cross-species organism panel
//   - ReferenceSequence / Alignment: Ungapped and aligned protein sequences
//   - PositionMap: Reference-position to alignment-column coordinates
//   - ConservationRecord: Per-column Shannon entropy scores
//   - RawVariant / VariantRecord: Clinical variants before and after merging
//   - Artifact / Fingerprint: Cached remote payloads and their identity
//   - GeneReport / RunReport: Pipeline outcomes with diagnostics
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
