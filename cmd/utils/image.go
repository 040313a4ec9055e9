package utils

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxImageSize = 10 << 20 // 10 MB
	DefaultImagePath = "uploads/images"
)

// UploadResult is what the object-storage collaborator hands back.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ImageStore is the upload/delete contract the handlers consume. Failures
// here surface as upload errors, not domain errors.
type ImageStore interface {
	Save(file multipart.File, header *multipart.FileHeader) (*UploadResult, error)
	Delete(publicID string) error
}

// LocalImageStore keeps files on disk and serves them under /images/.
type LocalImageStore struct {
	Dir string
}

func NewLocalImageStore() *LocalImageStore {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = DefaultImagePath
	}
	return &LocalImageStore{Dir: dir}
}

func (s *LocalImageStore) Save(file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > MaxImageSize {
		return nil, fmt.Errorf("file size exceeds maximum limit of %d MB", MaxImageSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isValidImageType(ext) {
		return nil, fmt.Errorf("invalid file type: %s", ext)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}

	publicID := fmt.Sprintf("%s-%s", time.Now().Format("20060102"), uuid.New().String())
	filename := publicID + ext
	filePath := filepath.Join(s.Dir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("failed to save file: %v", err)
	}

	width, height := imageDimensions(filePath)

	return &UploadResult{
		URL:      fmt.Sprintf("/images/%s", filename),
		PublicID: publicID,
		Width:    width,
		Height:   height,
	}, nil
}

func (s *LocalImageStore) Delete(publicID string) error {
	matches, err := filepath.Glob(filepath.Join(s.Dir, filepath.Base(publicID)+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func imageDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	return validTypes[ext]
}
