// Package normalisers extracts plain text from uploaded files.
//
// Each subpackage implements driven.Normaliser for one family of MIME types.
// Registry picks the highest priority normaliser that supports a document's
// MIME type and reports domain.ErrUnsupportedType when none does.
package normalisers
