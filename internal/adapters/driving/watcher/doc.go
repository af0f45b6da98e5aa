// Package watcher keeps the index in step with a directory of source files.
//
// File system events from fsnotify are coalesced over a short debounce window
// and applied through the DocumentService: created and modified files are
// reprocessed, removed and renamed files have their chunks removed.
package watcher
