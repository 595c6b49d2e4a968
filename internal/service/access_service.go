package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
	"lensfolio/api/internal/storage"
)

var (
	ErrImageNotFound      = errors.New("image not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Access rejection reasons, distinguished in logs but all surfaced to the
// client as a generic forbidden.
const (
	ReasonNoToken   = "no_token"
	ReasonBadOrigin = "bad_origin"
	ReasonBadToken  = "bad_token"
)

type AccessError struct {
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("access denied (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("access denied (%s)", e.Reason)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

type ImageStore interface {
	GetByID(ctx context.Context, id string) (models.Image, error)
}

type BlobStore interface {
	Fetch(ctx context.Context, bucket, objectKey string) ([]byte, error)
}

type ViewCounter interface {
	Bump(imageID string)
}

// AccessService gates image delivery: it mints per-image access tokens and
// serves views only to requests carrying a fresh token from an allowed
// origin. Each call is stateless; the secret and allow-list are read-only
// after construction.
type AccessService struct {
	images   ImageStore
	blobs    BlobStore
	counter  ViewCounter
	tokens   *security.ImageTokens
	origins  *security.OriginGuard
	renderer *pipeline.Renderer
	log      zerolog.Logger
}

func NewAccessService(
	images ImageStore,
	blobs BlobStore,
	counter ViewCounter,
	tokens *security.ImageTokens,
	origins *security.OriginGuard,
	renderer *pipeline.Renderer,
	log zerolog.Logger,
) *AccessService {
	return &AccessService{
		images:   images,
		blobs:    blobs,
		counter:  counter,
		tokens:   tokens,
		origins:  origins,
		renderer: renderer,
		log:      log,
	}
}

type TokenGrant struct {
	Token           string
	ExpiresInMillis int64
}

func (s *AccessService) RequestToken(ctx context.Context, imageID string) (TokenGrant, error) {
	if _, err := s.images.GetByID(ctx, imageID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return TokenGrant{}, ErrImageNotFound
		}
		return TokenGrant{}, fmt.Errorf("resolve image: %w", err)
	}

	return TokenGrant{
		Token:           s.tokens.Issue(imageID),
		ExpiresInMillis: s.tokens.Window().Milliseconds(),
	}, nil
}

type ViewInput struct {
	ImageID   string
	Token     string
	Origin    string
	Thumbnail bool
	Watermark bool
}

type ViewResult struct {
	ContentType string
	Data        []byte
}

func (s *AccessService) View(ctx context.Context, input ViewInput) (ViewResult, error) {
	if input.Token == "" {
		return ViewResult{}, &AccessError{Reason: ReasonNoToken}
	}

	if !s.origins.Check(input.Origin) {
		return ViewResult{}, &AccessError{Reason: ReasonBadOrigin}
	}

	if err := s.tokens.Verify(input.ImageID, input.Token); err != nil {
		return ViewResult{}, &AccessError{Reason: ReasonBadToken, Err: err}
	}

	image, err := s.images.GetByID(ctx, input.ImageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ViewResult{}, ErrImageNotFound
		}
		return ViewResult{}, fmt.Errorf("resolve image: %w", err)
	}

	// Best-effort: the view is served even when the counter write fails.
	s.counter.Bump(image.ID)

	source, err := s.blobs.Fetch(ctx, image.Bucket, image.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			return ViewResult{}, ErrImageNotFound
		}
		return ViewResult{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	data, err := s.renderer.Render(source, pipeline.Options{
		Thumbnail: input.Thumbnail,
		Watermark: input.Watermark,
	})
	if err != nil {
		return ViewResult{}, err
	}

	return ViewResult{
		ContentType: "image/jpeg",
		Data:        data,
	}, nil
}
