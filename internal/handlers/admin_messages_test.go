package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
)

type fakeMessages struct {
	byID map[string]*models.ContactMessage
}

func (f *fakeMessages) List(_ context.Context, limit, offset int) ([]models.ContactMessage, error) {
	var out []models.ContactMessage
	for _, msg := range f.byID {
		out = append(out, *msg)
	}
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeMessages) MarkRead(_ context.Context, id string, read bool) error {
	msg, ok := f.byID[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	msg.Read = read
	return nil
}

func (f *fakeMessages) MarkReplied(_ context.Context, id string, replied bool) error {
	msg, ok := f.byID[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	msg.Replied = replied
	return nil
}

func (f *fakeMessages) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrMessageNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeMessages) Counts(context.Context) (int64, int64, error) {
	var total, unread int64
	for _, msg := range f.byID {
		total++
		if !msg.Read {
			unread++
		}
	}
	return total, unread, nil
}

func serveMessages(t *testing.T, h HandlerSet, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PUT("/v1/admin/messages/:id/read", h.AdminMarkMessageRead)
	router.PUT("/v1/admin/messages/:id/replied", h.AdminMarkMessageReplied)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminMarkMessageReplied(t *testing.T) {
	messages := &fakeMessages{byID: map[string]*models.ContactMessage{
		"msg-1": {ID: "msg-1", Subject: "Print inquiry"},
	}}
	h := HandlerSet{log: zerolog.Nop(), messages: messages}

	rec := serveMessages(t, h, http.MethodPut, "/v1/admin/messages/msg-1/replied")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, messages.byID["msg-1"].Replied)

	rec = serveMessages(t, h, http.MethodPut, "/v1/admin/messages/msg-1/replied?replied=false")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, messages.byID["msg-1"].Replied)
}

func TestAdminMarkMessageRepliedUnknown(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop(), messages: &fakeMessages{byID: map[string]*models.ContactMessage{}}}

	rec := serveMessages(t, h, http.MethodPut, "/v1/admin/messages/ghost/replied")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"message_not_found"}`, rec.Body.String())
}
