package utils

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ArchiveFiles uploads each local file to prefix/<base name>.
// Returns a map of local path -> S3 object key for every file that made it;
// failures are joined into the returned error.
func (s *S3Store) ArchiveFiles(ctx context.Context, paths []string, prefix string) (map[string]string, error) {
	pathToKey := make(map[string]string)
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)

	// Limit concurrency
	semaphore := make(chan struct{}, 5)

	for _, p := range paths {
		if p == "" {
			continue
		}
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			objectKey := path.Join(prefix, filepath.Base(p))
			if err := s.uploadLocal(ctx, p, objectKey); err != nil {
				zap.L().Warn("archive upload failed", zap.String("path", p), zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}

			mu.Lock()
			pathToKey[p] = objectKey
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return pathToKey, errors.Join(errs...)
}

func (s *S3Store) uploadLocal(ctx context.Context, localPath, objectKey string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.UploadFile(ctx, f, objectKey, contentType)
	return err
}
