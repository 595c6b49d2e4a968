package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier for images and messages.
func New() string {
	return ksuid.New().String()
}
