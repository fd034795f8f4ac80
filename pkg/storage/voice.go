package storage

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VoiceArchive files uploaded emergency clips under voice/<user>/<date>/.
type VoiceArchive struct {
	store Store
	now   func() time.Time
}

func NewVoiceArchive(store Store) *VoiceArchive {
	return &VoiceArchive{store: store, now: time.Now}
}

// Save stores the clip and returns its object key.
func (v *VoiceArchive) Save(ctx context.Context, userID string, data []byte, filename, contentType string) (string, error) {
	key := v.key(userID, filename)
	if err := v.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (v *VoiceArchive) key(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || len(ext) > 6 {
		ext = ".webm"
	}
	user := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, userID)
	if user == "" {
		user = "anonymous"
	}
	return path.Join("voice", user, v.now().UTC().Format("20060102"), uuid.NewString()+ext)
}

func (v *VoiceArchive) URL(key string) string { return v.store.PublicURL(key) }
