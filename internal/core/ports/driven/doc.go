// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - SequenceSource: Fetches protein sequence payloads (UniProt, NCBI)
//   - VariantProvider: Fetches clinical variant payloads (UniProt, ClinVar)
//   - Aligner: Produces multiple sequence alignments (EBI Clustal Omega)
//   - SequenceNormaliser: Parses FASTA payloads
//   - VariantNormaliser: Parses provider variant payloads
//   - ArtifactStore: Caches remote payloads between runs
//   - ReportWriter: Renders gene reports to the output directory
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - StructureFetcher: Downloads PDB structure files. Without it,
//     structure downloads are skipped.
//   - RunStore: Persists run summaries. Without it, `runs` history is
//     unavailable but runs still complete.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
