// Package connectors provides HTTP clients for the remote life-science
// services the pipeline depends on: UniProtKB and NCBI for sequences,
// UniProtKB and ClinVar for variant annotations, EBI Job Dispatcher for
// alignments and RCSB PDB for structures.
//
// Each sub-package implements the matching driven port. All clients are
// keyless public REST consumers; they throttle themselves with a
// token-bucket limiter and surface failures through the shared typed
// errors in this package.
package connectors
