// Package blobstore manages session-scoped byte blobs in a scratch
// directory. Source bytes, previews, and sanitized results are all
// stored as blobs and referenced through revocable handles owned by
// their pipeline item. Release is deterministic and idempotent.
package blobstore
