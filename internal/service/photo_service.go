package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ksk-service/internal/model"
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrPhotosDisabled  = errors.New("photo storage is not configured")
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectStore persists uploaded files and returns a link to them.
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// PhotoService attaches dispatcher report photos to requests.
type PhotoService struct {
	store ObjectStore
	now   func() time.Time
}

func NewPhotoService(store ObjectStore) *PhotoService {
	return &PhotoService{store: store, now: time.Now}
}

// Upload stores an image and appends its link to the request's report photos.
func (s *PhotoService) Upload(ctx context.Context, requests *RequestStore, requestID string, file io.Reader, size int64) (model.Request, error) {
	if s == nil || s.store == nil {
		return model.Request{}, ErrPhotosDisabled
	}

	if err := requests.Refresh(ctx); err != nil {
		return model.Request{}, err
	}
	if _, err := requests.Get(requestID); err != nil {
		return model.Request{}, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.Request{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := photoExtensions[contentType]
	if !ok {
		return model.Request{}, ErrInvalidFileType
	}

	name, err := s.objectName(requestID, ext)
	if err != nil {
		return model.Request{}, err
	}
	url, err := s.store.Put(ctx, name, io.MultiReader(bytes.NewReader(head), file), size, contentType)
	if err != nil {
		return model.Request{}, err
	}

	return requests.AppendReportPhoto(ctx, requestID, url)
}

func (s *PhotoService) objectName(requestID, ext string) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate photo suffix: %w", err)
	}
	now := s.now()
	return fmt.Sprintf("requests/%s/report_%s_%09d_%s.%s",
		requestID,
		now.Format("20060102-150405"),
		now.Nanosecond(),
		hex.EncodeToString(suffix),
		ext,
	), nil
}
