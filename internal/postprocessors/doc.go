// Package postprocessors turns normalised documents into chunks.
//
// Processors are built by name from a Registry and chained in a Pipeline:
// the chunker creates chunks from document text, later processors such as
// dedupe filter or rewrite them.
package postprocessors
