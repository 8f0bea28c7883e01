package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EpisodeMetadata is the answer to the second watch request
type EpisodeMetadata struct {
	URL   string `json:"url"` // CDN host
	VID   Scalar `json:"VID"`
	Time  Scalar `json:"time"`
	UID   Scalar `json:"uid"`
	Watch Watch  `json:"watch"`
}

// QualityToken pairs a quality label ("480", "720", ...) with its video token
type QualityToken struct {
	Quality string
	Token   string
}

// Watch is the quality -> token object, kept in the order the service sent it
type Watch []QualityToken

// UnmarshalJSON decodes the object key by key so that the source order survives
func (w *Watch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	// PHP encodes an empty map as [].
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("[]")) {
		*w = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("watch: expected object, got %s", data)
	}

	var out Watch
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("watch: unexpected key %v", keyTok)
		}
		var token Scalar
		if err := dec.Decode(&token); err != nil {
			return fmt.Errorf("watch[%s]: %w", key, err)
		}
		out = append(out, QualityToken{Quality: key, Token: string(token)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*w = out
	return nil
}

// First returns the first entry sent by the service
func (w Watch) First() (QualityToken, bool) {
	if len(w) == 0 {
		return QualityToken{}, false
	}
	return w[0], true
}

// Lookup returns the token for a quality label
func (w Watch) Lookup(quality string) (QualityToken, bool) {
	for _, qt := range w {
		if qt.Quality == quality {
			return qt, true
		}
	}
	return QualityToken{}, false
}

// Qualities lists the labels in source order
func (w Watch) Qualities() []string {
	labels := make([]string, 0, len(w))
	for _, qt := range w {
		labels = append(labels, qt.Quality)
	}
	return labels
}
