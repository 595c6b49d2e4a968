package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
	"lensfolio/api/internal/storage"
)

type fakeImages struct {
	images map[string]models.Image
	err    error
}

func (f *fakeImages) GetByID(_ context.Context, id string) (models.Image, error) {
	if f.err != nil {
		return models.Image{}, f.err
	}
	img, ok := f.images[id]
	if !ok {
		return models.Image{}, repository.ErrImageNotFound
	}
	return img, nil
}

type fakeBlobs struct {
	objects map[string][]byte
	err     error
}

func (f *fakeBlobs) Fetch(_ context.Context, bucket, objectKey string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[bucket+"/"+objectKey]
	if !ok {
		return nil, storage.ErrObjectMissing
	}
	return data, nil
}

// fakeCounter bumps synchronously so tests can assert counts without racing
// the fire-and-forget goroutine of the real counter.
type fakeCounter struct {
	bumps map[string]int
}

func (f *fakeCounter) Bump(imageID string) {
	if f.bumps == nil {
		f.bumps = map[string]int{}
	}
	f.bumps[imageID]++
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(3, 3, color.RGBA{200, 40, 40, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type accessFixture struct {
	service *AccessService
	images  *fakeImages
	blobs   *fakeBlobs
	counter *fakeCounter
	tokens  *security.ImageTokens
	clock   *time.Time
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	clock := &now

	tokens := security.NewImageTokens("access-test-secret", time.Minute).
		WithClock(func() time.Time { return *clock })
	origins := security.NewOriginGuard([]string{"https://lensfolio.example.com"})

	renderer, err := pipeline.NewRenderer("LENSFOLIO", 85, 400)
	require.NoError(t, err)

	images := &fakeImages{images: map[string]models.Image{
		"img-1": {ID: "img-1", Bucket: "photos", ObjectKey: "2026/03/img-1.png"},
		"img-2": {ID: "img-2", Bucket: "photos", ObjectKey: "2026/03/img-2.png"},
	}}
	blobs := &fakeBlobs{objects: map[string][]byte{
		"photos/2026/03/img-1.png": smallPNG(t),
	}}
	counter := &fakeCounter{}

	return &accessFixture{
		service: NewAccessService(images, blobs, counter, tokens, origins, renderer, zerolog.Nop()),
		images:  images,
		blobs:   blobs,
		counter: counter,
		tokens:  tokens,
		clock:   clock,
	}
}

func (f *accessFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestRequestToken(t *testing.T) {
	f := newAccessFixture(t)

	grant, err := f.service.RequestToken(context.Background(), "img-1")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, int64(60000), grant.ExpiresInMillis)
	assert.NoError(t, f.tokens.Verify("img-1", grant.Token))
}

func TestRequestTokenUnknownImage(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.service.RequestToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestViewServesJPEGAndBumpsCounter(t *testing.T) {
	f := newAccessFixture(t)
	token := f.tokens.Issue("img-1")

	result, err := f.service.View(context.Background(), ViewInput{
		ImageID: "img-1",
		Token:   token,
		Origin:  "https://lensfolio.example.com/gallery",
	})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", result.ContentType)
	require.Greater(t, len(result.Data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, result.Data[:2], "output is not a JPEG")
	assert.Equal(t, 1, f.counter.bumps["img-1"])
}

func TestViewRejections(t *testing.T) {
	f := newAccessFixture(t)

	cases := []struct {
		name       string
		input      func() ViewInput
		wantReason string
	}{
		{
			name: "missing token",
			input: func() ViewInput {
				return ViewInput{ImageID: "img-1", Origin: "https://lensfolio.example.com"}
			},
			wantReason: ReasonNoToken,
		},
		{
			name: "missing origin",
			input: func() ViewInput {
				return ViewInput{ImageID: "img-1", Token: f.tokens.Issue("img-1")}
			},
			wantReason: ReasonBadOrigin,
		},
		{
			name: "unlisted origin",
			input: func() ViewInput {
				return ViewInput{
					ImageID: "img-1",
					Token:   f.tokens.Issue("img-1"),
					Origin:  "https://evil.example.net",
				}
			},
			wantReason: ReasonBadOrigin,
		},
		{
			name: "token minted for another image",
			input: func() ViewInput {
				return ViewInput{
					ImageID: "img-1",
					Token:   f.tokens.Issue("img-2"),
					Origin:  "https://lensfolio.example.com",
				}
			},
			wantReason: ReasonBadToken,
		},
		{
			name: "expired token",
			input: func() ViewInput {
				token := f.tokens.Issue("img-1")
				f.advance(61 * time.Second)
				return ViewInput{
					ImageID: "img-1",
					Token:   token,
					Origin:  "https://lensfolio.example.com",
				}
			},
			wantReason: ReasonBadToken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.View(context.Background(), tc.input())

			var accessErr *AccessError
			require.ErrorAs(t, err, &accessErr)
			assert.Equal(t, tc.wantReason, accessErr.Reason)
			assert.Zero(t, f.counter.bumps["img-1"], "rejected view must not count")
		})
	}
}

func TestViewTokenReplayWithinWindow(t *testing.T) {
	f := newAccessFixture(t)
	token := f.tokens.Issue("img-1")

	for i := 0; i < 3; i++ {
		f.advance(10 * time.Second)
		_, err := f.service.View(context.Background(), ViewInput{
			ImageID: "img-1",
			Token:   token,
			Origin:  "https://lensfolio.example.com",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.counter.bumps["img-1"])
}

func TestViewUnknownImage(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.service.View(context.Background(), ViewInput{
		ImageID: "ghost",
		Token:   f.tokens.Issue("ghost"),
		Origin:  "https://lensfolio.example.com",
	})
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestViewBlobMissing(t *testing.T) {
	f := newAccessFixture(t)

	// img-2 exists in the catalog but its object was never stored.
	_, err := f.service.View(context.Background(), ViewInput{
		ImageID: "img-2",
		Token:   f.tokens.Issue("img-2"),
		Origin:  "https://lensfolio.example.com",
	})
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.Equal(t, 1, f.counter.bumps["img-2"], "lookup succeeded, so the view counts")
}

func TestViewStorageUnavailable(t *testing.T) {
	f := newAccessFixture(t)
	f.blobs.err = errors.New("connection refused")

	_, err := f.service.View(context.Background(), ViewInput{
		ImageID: "img-1",
		Token:   f.tokens.Issue("img-1"),
		Origin:  "https://lensfolio.example.com",
	})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestViewUndecodableBlob(t *testing.T) {
	f := newAccessFixture(t)
	f.blobs.objects["photos/2026/03/img-1.png"] = []byte("corrupted bytes")

	_, err := f.service.View(context.Background(), ViewInput{
		ImageID: "img-1",
		Token:   f.tokens.Issue("img-1"),
		Origin:  "https://lensfolio.example.com",
	})
	assert.ErrorIs(t, err, pipeline.ErrDecode)
}
