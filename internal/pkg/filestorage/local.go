package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

// LocalStorage keeps blobs on the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where blobs are stored
	baseURL  string // The public URL prefix blobs are served under
}

var _ ObjectStore = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// baseURL is prepended to blob keys when building serving URLs.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// ResolveUpload saves the uploaded file under a fresh key
func (ls *LocalStorage) ResolveUpload(fileHeader *multipart.FileHeader) (Upload, error) {
	if fileHeader == nil {
		return Upload{Kind: NoUpload}, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return Upload{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	// Unique key prevents collisions between uploads with the same name
	key := uuid.New().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	dstPath := filepath.Join(ls.basePath, key)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return Upload{}, fmt.Errorf("failed to create destination file: %w", err)
	}

	written, err := io.Copy(dst, file)
	// Closed before any removal below; open files cannot be removed on every platform
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return Upload{}, fmt.Errorf("failed to save file content: %w", err)
	}

	if written == 0 {
		// Browsers submit an empty part when no file is chosen
		if err := ls.Delete(Ref(key)); err != nil {
			return Upload{}, err
		}
		logger.Debug().Str("filename", fileHeader.Filename).Msg("Empty upload discarded")
		return Upload{Kind: EmptyUpload}, nil
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", key).Int64("size", written).Msg("File saved successfully")
	return Upload{Kind: Uploaded, Ref: Ref(key)}, nil
}

// Size stats the blob file
func (ls *LocalStorage) Size(ctx context.Context, ref Ref) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := ls.path(ref)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat blob %s: %w", ref, err)
	}
	return info.Size(), nil
}

// FetchRange reads bytes start..end inclusive
func (ls *LocalStorage) FetchRange(ctx context.Context, ref Ref, start, end int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid range [%d,%d]", start, end)
	}

	path, err := ls.path(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", ref, err)
	}
	defer file.Close()

	buf := make([]byte, end-start+1)
	n, err := file.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}

	return buf[:n], nil
}

// ServingURL returns <baseURL>/<key>
func (ls *LocalStorage) ServingURL(ref Ref) (string, error) {
	if _, err := ls.path(ref); err != nil {
		return "", err
	}
	return ls.baseURL + "/" + string(ref), nil
}

// Delete removes a blob from the storage filesystem.
// Returns nil if deletion is successful or if the blob doesn't exist.
func (ls *LocalStorage) Delete(ref Ref) error {
	if ref == "" {
		return nil
	}

	path, err := ls.path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", path).Msg("Blob to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete blob")
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// path maps a key onto the storage directory, refusing anything that is not a bare file name
func (ls *LocalStorage) path(ref Ref) (string, error) {
	key := string(ref)
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid blob reference: %q", key)
	}
	return filepath.Join(ls.basePath, key), nil
}
