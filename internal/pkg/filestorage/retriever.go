package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yigit/feedsphere/internal/pkg/metrics"
)

// ErrTooManyChunks is returned when a blob does not fit within the chunk budget
var ErrTooManyChunks = errors.New("blob exceeds the maximum number of chunks")

// Retriever reassembles a blob in memory from fixed-size ranged reads
type Retriever struct {
	reader    RangeReader
	chunkSize int64
	maxChunks int64
}

// NewRetriever creates a retriever. maxBytes bounds the blob size it will read.
func NewRetriever(reader RangeReader, chunkSize, maxBytes int64) *Retriever {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	maxChunks := (maxBytes + chunkSize - 1) / chunkSize
	if maxChunks < 1 {
		maxChunks = 1
	}
	return &Retriever{reader: reader, chunkSize: chunkSize, maxChunks: maxChunks}
}

// Fetch reads ranges [off, off+chunkSize-1] from offset 0, the last one clamped to the
// blob's final byte. A chunk strictly shorter than requested means the blob shrank
// under us and ends the read.
func (r *Retriever) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	size, err := r.reader.Size(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("size blob %s: %w", ref, err)
	}

	chunks := (size + r.chunkSize - 1) / r.chunkSize
	if chunks > r.maxChunks {
		return nil, fmt.Errorf("%w: %d bytes needs %d chunks of %d bytes, limit %d",
			ErrTooManyChunks, size, chunks, r.chunkSize, r.maxChunks)
	}

	var buf bytes.Buffer
	buf.Grow(int(size))

	for i := int64(0); i < chunks; i++ {
		start := i * r.chunkSize
		end := min(start+r.chunkSize-1, size-1)
		want := end - start + 1

		chunk, err := r.reader.FetchRange(ctx, ref, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch range [%d,%d]: %w", start, end, err)
		}
		metrics.BlobChunksFetched.Inc()

		if int64(len(chunk)) > want {
			return nil, fmt.Errorf("fetch range [%d,%d]: got %d bytes", start, end, len(chunk))
		}
		buf.Write(chunk)

		if int64(len(chunk)) < want {
			break
		}
	}

	return buf.Bytes(), nil
}
