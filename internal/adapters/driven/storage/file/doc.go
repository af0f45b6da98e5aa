// Package file persists the chunk store as a JSON artifact on local disk
// and gives the lifecycle manager access to stored source documents.
//
// The artifact holds four aligned arrays under the keys documents,
// metadatas, ids and embeddings. Writes go to a temporary file in the same
// directory that is renamed over the artifact, so a failed write leaves the
// previous artifact intact.
package file
