package firebase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goStorage "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
)

// GradesFolder is where raw registrar exports are archived in the bucket.
const GradesFolder = "grades"

const maxDownloadWorkers = 5

type CloudStorage struct {
	*storage.Client
	bucketName string
}

// NewCloudStorage opens the named bucket, or the app's default bucket when
// bucketName is empty.
func NewCloudStorage(ctx context.Context, app *firebase.App, bucketName string) (*CloudStorage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	return &CloudStorage{
		Client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *CloudStorage) bucket() (*goStorage.BucketHandle, error) {
	if s.bucketName == "" {
		bucket, err := s.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("failed to get default storage bucket: %w", err)
		}
		return bucket, nil
	}

	bucket, err := s.Bucket(s.bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage bucket '%s': %w", s.bucketName, err)
	}
	return bucket, nil
}

func (s *CloudStorage) UploadFile(ctx context.Context, path string, data []byte) error {
	if err := validateUpload(path, data); err != nil {
		return fmt.Errorf("upload validation failed: %w", err)
	}

	bucket, err := s.bucket()
	if err != nil {
		return err
	}

	writer := bucket.Object(path).NewWriter(ctx)
	writer.ObjectAttrs.ContentType = detectContentType(path)
	writer.ObjectAttrs.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": uuid.New().String(),
	}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to upload file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload of %s: %w", path, err)
	}

	return nil
}

// ArchiveDir uploads every *.csv file of dir to folder/<name> and returns the
// uploaded object names.
func (s *CloudStorage) ArchiveDir(ctx context.Context, dir, folder string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var uploaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return uploaded, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		object := folder + "/" + entry.Name()
		if err := s.UploadFile(ctx, object, data); err != nil {
			return uploaded, fmt.Errorf("failed to upload %s: %w", entry.Name(), err)
		}
		log.Info().Str("object", object).Int("bytes", len(data)).Msg("uploaded")
		uploaded = append(uploaded, object)
	}

	return uploaded, nil
}

type objectInfo struct {
	name string
	size int64
}

// folderPrefix is the object name prefix of the objects inside folder. The
// trailing slash keeps sibling folders such as grades-old out of grades.
func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

// DownloadFromFolder copies the objects directly inside folderPath into
// outputDir, matching the flat layout ArchiveDir writes. Subfolders are
// reported and left alone. Downloads run concurrently.
func (s *CloudStorage) DownloadFromFolder(ctx context.Context, folderPath, outputDir string) (int, error) {
	bucket, err := s.bucket()
	if err != nil {
		return 0, err
	}

	prefix := folderPrefix(folderPath)

	var objects []objectInfo
	it := bucket.Objects(ctx, &goStorage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		object, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate objects: %w", err)
		}

		if object.Prefix != "" {
			log.Warn().Str("subfolder", object.Prefix).Msg("skipping nested folder")
			continue
		}
		// Skip directory placeholders
		if strings.HasSuffix(object.Name, "/") {
			continue
		}
		objects = append(objects, objectInfo{object.Name, object.Size})
	}

	if len(objects) == 0 {
		log.Info().Str("folder", folderPath).Msg("no files found")
		return 0, nil
	}

	log.Info().Int("files", len(objects)).Str("folder", folderPath).Msg("downloading")

	workChan := make(chan objectInfo)
	errorChan := make(chan error, len(objects))
	completedChan := make(chan string, len(objects))

	var wg sync.WaitGroup
	for i := 0; i < maxDownloadWorkers && i < len(objects); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workChan {
				if err := downloadSingleFile(ctx, bucket, work.name, outputDir, prefix); err != nil {
					errorChan <- fmt.Errorf("failed to download %s: %w", work.name, err)
				} else {
					completedChan <- work.name
				}
			}
		}()
	}

	for _, obj := range objects {
		workChan <- obj
	}
	close(workChan)
	wg.Wait()
	close(errorChan)
	close(completedChan)

	fileCount := 0
	for name := range completedChan {
		log.Debug().Str("object", name).Msg("downloaded")
		fileCount++
	}

	var errs []error
	for err := range errorChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fileCount, fmt.Errorf("failed to download %d files: %w", len(errs), errs[0])
	}

	return fileCount, nil
}

// validateUpload performs input validation for file uploads
func validateUpload(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if len(data) == 0 {
		return fmt.Errorf("file data cannot be empty")
	}

	if strings.Contains(path, "..") || strings.Contains(path, "//") {
		return fmt.Errorf("invalid file path: contains unsafe characters")
	}

	return nil
}

func detectContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

// relativeObjectPath is objectName with the folder prefix removed.
func relativeObjectPath(objectName, folderPath string) (string, error) {
	rel := strings.TrimPrefix(objectName, folderPath)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("invalid object path: %s", objectName)
	}
	return rel, nil
}

func downloadSingleFile(ctx context.Context, bucket *goStorage.BucketHandle, objectName, outputDir, folderPath string) error {
	rel, err := relativeObjectPath(objectName, folderPath)
	if err != nil {
		return err
	}

	reader, err := bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	objectData, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object data: %w", err)
	}

	filePath := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}

	if err := os.WriteFile(filePath, objectData, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	return nil
}
