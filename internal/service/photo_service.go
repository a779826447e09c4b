package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel errors for photo uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const (
	uploadURLPrefix = "/uploads/"
	// sniffLen is how much http.DetectContentType looks at.
	sniffLen = 512
)

// PhotoUpload carries the album metadata of an uploaded file.
type PhotoUpload struct {
	ClassID *int
	EventID *int
	Caption string
}

// PhotoService stores album photos on local disk and their metadata in the database.
type PhotoService struct {
	cfg         *config.Config
	photoRepo   repository.PhotoRepository
	classRepo   repository.ClassRepository
	eventRepo   repository.EventRepository
	studentRepo repository.StudentRepository
	log         zerolog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	cfg *config.Config,
	photoRepo repository.PhotoRepository,
	classRepo repository.ClassRepository,
	eventRepo repository.EventRepository,
	studentRepo repository.StudentRepository,
	log zerolog.Logger,
) *PhotoService {
	return &PhotoService{
		cfg:         cfg,
		photoRepo:   photoRepo,
		classRepo:   classRepo,
		eventRepo:   eventRepo,
		studentRepo: studentRepo,
		log:         log.With().Str("component", "photo_service").Logger(),
	}
}

// List returns album photos. Guardians see institution-wide photos and those of their
// children's classes.
func (s *PhotoService) List(ctx context.Context, viewer model.Viewer, filter model.PhotoFilter, limit, offset int) ([]model.Photo, int, error) {
	ids, err := guardianClassIDs(ctx, s.studentRepo, viewer)
	if err != nil {
		return nil, 0, err
	}
	filter.ClassIDs = ids
	return s.photoRepo.List(ctx, viewer.InstitutionID, filter, limit, offset)
}

// Upload validates and saves the file, then records it in the album.
func (s *PhotoService) Upload(ctx context.Context, viewer model.Viewer, file multipart.File, header *multipart.FileHeader, meta PhotoUpload) (*model.Photo, error) {
	if meta.ClassID != nil {
		if _, err := s.classRepo.GetByID(ctx, viewer.InstitutionID, *meta.ClassID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidClass
			}
			return nil, err
		}
	}
	if meta.EventID != nil {
		if _, err := s.eventRepo.GetByID(ctx, viewer.InstitutionID, *meta.EventID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidEvent
			}
			return nil, err
		}
	}

	url, err := s.SaveUpload(file, header)
	if err != nil {
		return nil, err
	}

	uploader := viewer.ProfileID
	p := &model.Photo{
		InstitutionID: viewer.InstitutionID,
		ClassID:       meta.ClassID,
		EventID:       meta.EventID,
		UploadedBy:    &uploader,
		URL:           url,
		Caption:       strings.TrimSpace(meta.Caption),
	}
	if err := s.photoRepo.Create(ctx, p); err != nil {
		s.removeFile(url)
		return nil, err
	}
	return p, nil
}

// Delete removes the album entry and its file.
func (s *PhotoService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	p, err := s.photoRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return err
	}
	if err := s.photoRepo.Delete(ctx, viewer.InstitutionID, id); err != nil {
		return err
	}
	s.removeFile(p.URL)
	return nil
}

// SaveUpload saves an uploaded file to local storage with a UUID filename.
// The type is sniffed from the content; the client's Content-Type is ignored.
// Returns the relative URL path to the saved file.
func (s *PhotoService) SaveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read file: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.cfg.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// One byte past the limit is enough to tell a lying header.Size apart.
	src := io.LimitReader(io.MultiReader(bytes.NewReader(head), file), s.cfg.MaxUploadBytes+1)
	written, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("write file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case written > s.cfg.MaxUploadBytes:
		err = fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("file", filename).Msg("Failed to remove partial upload")
		}
		return "", err
	}
	return uploadURLPrefix + filename, nil
}

func (s *PhotoService) removeFile(url string) {
	name := filepath.Base(strings.TrimPrefix(url, uploadURLPrefix))
	if err := os.Remove(filepath.Join(s.cfg.UploadDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("url", url).Msg("Failed to remove photo file")
	}
}
