package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Image access tokens are short-lived HMAC grants of the form
// "<issuedAtMillis>.<hexSignature>", scoped to a single image id. They are
// never persisted and are not single-use: replay inside the validity window
// is accepted.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

type ImageTokens struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

func NewImageTokens(secret string, window time.Duration) *ImageTokens {
	return &ImageTokens{
		secret: []byte(secret),
		window: window,
		now:    time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (t *ImageTokens) WithClock(now func() time.Time) *ImageTokens {
	t.now = now
	return t
}

func (t *ImageTokens) Window() time.Duration {
	return t.window
}

func (t *ImageTokens) Issue(imageID string) string {
	issuedAt := t.now().UnixMilli()
	return fmt.Sprintf("%d.%s", issuedAt, t.sign(imageID, issuedAt))
}

// Verify checks a token against the image id it is presented for. A token
// issued exactly window ago is still valid; one issued in the future is not.
func (t *ImageTokens) Verify(imageID, token string) error {
	issuedPart, signature, found := strings.Cut(token, ".")
	if !found || issuedPart == "" || signature == "" {
		return ErrMalformedToken
	}

	issuedAt, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return ErrMalformedToken
	}

	elapsed := t.now().UnixMilli() - issuedAt
	if elapsed < 0 || elapsed > t.window.Milliseconds() {
		return ErrTokenExpired
	}

	expected := t.sign(imageID, issuedAt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func (t *ImageTokens) sign(imageID string, issuedAt int64) string {
	mac := hmac.New(sha256.New, t.secret)
	fmt.Fprintf(mac, "%s-%d", imageID, issuedAt)
	return hex.EncodeToString(mac.Sum(nil))
}
