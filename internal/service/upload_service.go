package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/config"
	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/media/sniffer"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type UploadInput struct {
	Data           []byte
	OriginalName   string
	DeclaredType   string
	Title          string
	Category       string
	DisplaySection string
	Location       string
	Year           string
}

type UploadService struct {
	images *repository.ImageRepository
	store  *storage.ObjectStore
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewUploadService(images *repository.ImageRepository, store *storage.ObjectStore, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		images: images,
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (models.Image, error) {
	if len(input.Data) == 0 {
		return models.Image{}, errors.New("empty file")
	}
	if int64(len(input.Data)) > s.cfg.Media.MaxUploadBytes {
		return models.Image{}, fmt.Errorf("file exceeds %d bytes", s.cfg.Media.MaxUploadBytes)
	}
	if input.Title == "" {
		return models.Image{}, errors.New("title required")
	}

	category := strings.ToLower(strings.TrimSpace(input.Category))
	if !models.ValidCategory(category) {
		return models.Image{}, fmt.Errorf("unknown category %q", input.Category)
	}

	section := strings.ToLower(strings.TrimSpace(input.DisplaySection))
	if section == "" {
		section = string(models.SectionAll)
	}
	if !models.ValidSection(section) {
		return models.Image{}, fmt.Errorf("unknown display section %q", input.DisplaySection)
	}

	head := input.Data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := sniffer.DetectHead(head)
	if err != nil {
		return models.Image{}, fmt.Errorf("detect type: %w", err)
	}

	if input.DeclaredType != "" && input.DeclaredType != detected.MIME {
		return models.Image{}, fmt.Errorf("content type mismatch: declared %s, actual %s", input.DeclaredType, detected.MIME)
	}

	// Probe dimensions without a full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(input.Data))
	if err != nil {
		return models.Image{}, fmt.Errorf("probe dimensions: %w", err)
	}

	imageID := ids.New()
	objectKey := s.buildObjectKey(imageID, string(detected.Type))

	if err := s.store.Put(ctx, s.store.Bucket(), objectKey, input.Data, detected.MIME); err != nil {
		return models.Image{}, fmt.Errorf("store original: %w", err)
	}

	record := models.Image{
		ID:             imageID,
		Title:          strings.TrimSpace(input.Title),
		OriginalName:   input.OriginalName,
		Category:       models.ImageCategory(category),
		DisplaySection: models.DisplaySection(section),
		Location:       strings.TrimSpace(input.Location),
		Year:           strings.TrimSpace(input.Year),
		Bucket:         s.store.Bucket(),
		ObjectKey:      objectKey,
		ContentType:    detected.MIME,
		Width:          cfg.Width,
		Height:         cfg.Height,
		SizeBytes:      int64(len(input.Data)),
		UploadedAt:     time.Now().UTC(),
	}

	if err := s.images.Create(ctx, record); err != nil {
		// Orphaned object; removal is best-effort.
		if rerr := s.store.Remove(ctx, record.Bucket, objectKey); rerr != nil {
			s.log.Warn().Err(rerr).Str("object_key", objectKey).Msg("cleanup after failed insert")
		}
		return models.Image{}, fmt.Errorf("save metadata: %w", err)
	}

	return record, nil
}

func (s *UploadService) Delete(ctx context.Context, imageID string) error {
	record, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, record.Bucket, record.ObjectKey); err != nil {
		s.log.Warn().Err(err).Str("image_id", imageID).Msg("remove object failed, deleting metadata anyway")
	}

	return s.images.Delete(ctx, imageID)
}

func (s *UploadService) buildObjectKey(imageID string, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", imageID, ext))
}
