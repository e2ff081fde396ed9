// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pure algorithms live alongside the orchestrator as package
// functions: BuildPositionMap (coordinate algebra), ScoreAlignment
// (per-column entropy), MergeVariants (multi-source reconciliation)
// and JoinRecords (projection onto reference coordinates).
package services
