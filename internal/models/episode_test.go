package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodeMetadataKeepsWatchOrder(t *testing.T) {
	t.Parallel()

	raw := `{
		"url": "cdn1.example.net",
		"VID": 98765,
		"time": "1700000000",
		"uid": "u-1",
		"watch": {"1080": "tok-1080", "480": "tok-480", "720": "tok-720"}
	}`

	var meta EpisodeMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))

	assert.Equal(t, "cdn1.example.net", meta.URL)
	assert.Equal(t, Scalar("98765"), meta.VID)
	assert.Equal(t, Scalar("1700000000"), meta.Time)
	assert.Equal(t, []string{"1080", "480", "720"}, meta.Watch.Qualities())

	first, ok := meta.Watch.First()
	require.True(t, ok)
	assert.Equal(t, QualityToken{Quality: "1080", Token: "tok-1080"}, first)

	qt, ok := meta.Watch.Lookup("480")
	require.True(t, ok)
	assert.Equal(t, "tok-480", qt.Token)

	_, ok = meta.Watch.Lookup("360")
	assert.False(t, ok)
}

func TestWatchAcceptsEmptyArray(t *testing.T) {
	t.Parallel()

	var meta EpisodeMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"url":"x","VID":1,"time":2,"uid":"u","watch":[]}`), &meta))

	_, ok := meta.Watch.First()
	assert.False(t, ok)
}

func TestWatchRejectsNonObject(t *testing.T) {
	t.Parallel()

	var w Watch
	assert.Error(t, json.Unmarshal([]byte(`"480"`), &w))
}

func TestScalar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Scalar
		wantErr bool
	}{
		{`"123"`, "123", false},
		{`123`, "123", false},
		{`1.5e3`, "1.5e3", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var s Scalar
			err := json.Unmarshal([]byte(tc.in), &s)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestSeriesMatchDecodesNumericID(t *testing.T) {
	t.Parallel()

	var matches []SeriesMatch
	require.NoError(t, json.Unmarshal([]byte(`[{"id":123,"name":"Show"},{"id":"7","name":"Other"}]`), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "123", matches[0].ID.String())
	assert.Equal(t, "7", matches[1].ID.String())
}

func TestDownloadTaskString(t *testing.T) {
	t.Parallel()

	task := DownloadTask{SeriesName: "Show", Season: 1, Episode: 12}
	assert.Equal(t, "Show S01E12", task.String())
}
