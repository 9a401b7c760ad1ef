package catalog

import "time"

// Entry is one sound available for use in the scene. The stable key doubles
// as the display title; lookups are case-insensitive.
//
// Image and Audio hold lazily hydrated payload bytes and are never persisted;
// the local path fields record where those payloads are cached on disk.
type Entry struct {
	Key            string    `json:"key"`
	AudioURL       string    `json:"audio_url"`
	ImageURL       string    `json:"image_url,omitempty"`
	Category       string    `json:"category"`
	Premium        bool      `json:"is_premium"`
	CreatedAt      time.Time `json:"created_at"`
	LocalImagePath string    `json:"local_image_path,omitempty"`
	LocalAudioPath string    `json:"local_audio_path,omitempty"`

	Image []byte `json:"-"`
	Audio []byte `json:"-"`
}

// Placeholder builds an inert entry carrying only a key. Used when a
// persisted scene references a sound that no longer exists in the catalog, so
// the slot can still be shown instead of being silently dropped.
func Placeholder(key string) *Entry {
	return &Entry{Key: key}
}

// IsPlaceholder reports whether the entry carries no source to play from.
func (e *Entry) IsPlaceholder() bool {
	return e.AudioURL == "" && e.Audio == nil
}
