package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type fakeCatalog struct {
	byID map[string]models.Image
	list []models.Image
	err  error
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (models.Image, error) {
	if f.err != nil {
		return models.Image{}, f.err
	}
	img, ok := f.byID[id]
	if !ok {
		return models.Image{}, repository.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeCatalog) List(_ context.Context, category string) ([]models.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	if category == "" || category == "all" {
		return f.list, nil
	}
	var out []models.Image
	for _, img := range f.list {
		if string(img.Category) == category {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListBySection(_ context.Context, _ models.DisplaySection, _ string) ([]models.Image, error) {
	return f.list, f.err
}

func (f *fakeCatalog) UpdateMeta(_ context.Context, id string, _ repository.ImageMetaUpdate) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return repository.ErrImageNotFound
	}
	return nil
}

func (f *fakeCatalog) CollectStats(_ context.Context, _ time.Time, _ int) (repository.Stats, error) {
	return repository.Stats{}, f.err
}

type failingBlobs struct{ err error }

func (f failingBlobs) Fetch(context.Context, string, string) ([]byte, error) {
	return nil, f.err
}

func adminPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func serveAdmin(t *testing.T, h HandlerSet, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/images/meta/:id", h.ImageMeta)
	router.GET("/v1/admin/images", h.AdminListImages)
	router.GET("/v1/admin/images/:id/preview", h.AdminImagePreview)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminListImagesPagination(t *testing.T) {
	catalog := &fakeCatalog{list: []models.Image{
		{ID: "a", Category: models.CategoryStreet},
		{ID: "b", Category: models.CategoryStreet},
		{ID: "c", Category: models.CategoryNature},
	}}
	h := HandlerSet{log: zerolog.Nop(), images: catalog}

	rec := serveAdmin(t, h, http.MethodGet, "/v1/admin/images?perPage=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 2)
	assert.Equal(t, 3, body.Total)

	rec = serveAdmin(t, h, http.MethodGet, "/v1/admin/images?perPage=2&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "c", body.Items[0].ID)

	rec = serveAdmin(t, h, http.MethodGet, "/v1/admin/images?category=nature")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "c", body.Items[0].ID)
}

func TestAdminListImagesFailure(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{err: errors.New("db down")}}

	rec := serveAdmin(t, h, http.MethodGet, "/v1/admin/images")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminImagePreview(t *testing.T) {
	renderer, err := pipeline.NewRenderer("LENSFOLIO", 85, 400)
	require.NoError(t, err)

	catalog := &fakeCatalog{byID: map[string]models.Image{
		"img-1": {ID: "img-1", Bucket: "photos", ObjectKey: "2026/03/img-1.png"},
	}}
	blobs := stubBlobs{"photos/2026/03/img-1.png": adminPNG(t)}
	h := HandlerSet{log: zerolog.Nop(), images: catalog, store: blobs, renderer: renderer}

	rec := serveAdmin(t, h, http.MethodGet, "/v1/admin/images/img-1/preview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	body := rec.Body.Bytes()
	require.Greater(t, len(body), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, body[:2])
}

func TestAdminImagePreviewErrorMapping(t *testing.T) {
	renderer, err := pipeline.NewRenderer("LENSFOLIO", 85, 400)
	require.NoError(t, err)

	known := map[string]models.Image{
		"img-1": {ID: "img-1", Bucket: "photos", ObjectKey: "2026/03/img-1.png"},
	}

	cases := []struct {
		name     string
		handlers HandlerSet
		target   string
		wantCode int
		wantBody string
	}{
		{
			name:     "unknown id",
			handlers: HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{byID: known}, store: stubBlobs{}, renderer: renderer},
			target:   "/v1/admin/images/ghost/preview",
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"image_not_found"}`,
		},
		{
			name:     "catalog lookup failure",
			handlers: HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{err: errors.New("db down")}, store: stubBlobs{}, renderer: renderer},
			target:   "/v1/admin/images/img-1/preview",
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"lookup_failed"}`,
		},
		{
			name:     "object missing",
			handlers: HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{byID: known}, store: failingBlobs{err: storage.ErrObjectMissing}, renderer: renderer},
			target:   "/v1/admin/images/img-1/preview",
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"image_bytes_missing"}`,
		},
		{
			name:     "store unreachable",
			handlers: HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{byID: known}, store: failingBlobs{err: errors.New("connection refused")}, renderer: renderer},
			target:   "/v1/admin/images/img-1/preview",
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"storage_unavailable"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAdmin(t, tc.handlers, http.MethodGet, tc.target)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
		})
	}
}

func TestImageMetaErrorMapping(t *testing.T) {
	known := map[string]models.Image{"img-1": {ID: "img-1", Title: "Alley"}}

	h := HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{byID: known}}
	rec := serveAdmin(t, h, http.MethodGet, "/v1/images/meta/img-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serveAdmin(t, h, http.MethodGet, "/v1/images/meta/ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = HandlerSet{log: zerolog.Nop(), images: &fakeCatalog{err: errors.New("db down")}}
	rec = serveAdmin(t, h, http.MethodGet, "/v1/images/meta/img-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"lookup_failed"}`, rec.Body.String())
}
