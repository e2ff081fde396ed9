// Package normalisers provides parsers that turn raw provider payloads
// into domain records. Sequence normalisers parse FASTA into reference
// sequences and alignments; variant normalisers parse each provider's
// structured records into uniform RawVariants.
//
// Normalisers are pure: they never touch the network and leave
// validation and merging to the services layer.
package normalisers
