package filestorage

import (
	"context"
	"mime/multipart"
)

// Ref is an opaque handle to a stored blob
type Ref string

// UploadKind tells apart the three outcomes of resolving an upload field
type UploadKind int

const (
	// NoUpload means the request carried no file field
	NoUpload UploadKind = iota
	// EmptyUpload means a file field was present but held zero bytes
	EmptyUpload
	// Uploaded means the blob was stored and Ref points at it
	Uploaded
)

func (k UploadKind) String() string {
	switch k {
	case EmptyUpload:
		return "empty"
	case Uploaded:
		return "uploaded"
	default:
		return "none"
	}
}

// Upload is the resolved state of an image upload
type Upload struct {
	Kind UploadKind
	Ref  Ref
}

// Stored returns the blob reference when the upload produced one
func (u Upload) Stored() (Ref, bool) {
	if u.Kind != Uploaded {
		return "", false
	}
	return u.Ref, true
}

// RangeReader reads an inclusive byte range of a stored blob. Reads past the end of
// the blob return the bytes that exist, possibly none.
type RangeReader interface {
	// Size returns the current length of the blob in bytes
	Size(ctx context.Context, ref Ref) (int64, error)
	FetchRange(ctx context.Context, ref Ref, start, end int64) ([]byte, error)
}

// ObjectStore defines the blob storage operations used by message ingestion
type ObjectStore interface {
	RangeReader

	// ResolveUpload stores an uploaded file. A nil header yields NoUpload; a zero-byte
	// file yields EmptyUpload and leaves nothing behind in storage.
	ResolveUpload(fileHeader *multipart.FileHeader) (Upload, error)

	// ServingURL returns the public URL a stored blob is served from
	ServingURL(ref Ref) (string, error)

	// Delete removes a blob; deleting a missing blob is not an error
	Delete(ref Ref) error
}
