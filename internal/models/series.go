// Package models contains the data structures shared by the resolvers and the downloader
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Scalar keeps a JSON string or number verbatim. The service mixes both for
// ids and timestamps and they are only ever echoed back to it.
type Scalar string

// UnmarshalJSON accepts a string, a number or null
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = Scalar(n.String())
	return nil
}

func (s Scalar) String() string {
	return string(s)
}

// SeriesMatch is one entry of the search index response
type SeriesMatch struct {
	ID   Scalar `json:"id"`
	Name string `json:"name"`
}

// DownloadTask is a single episode scheduled by a batch
type DownloadTask struct {
	SeriesID   string
	SeriesName string
	Season     int
	Episode    int
	Path       string
}

func (t DownloadTask) String() string {
	return fmt.Sprintf("%s S%02dE%02d", t.SeriesName, t.Season, t.Episode)
}
