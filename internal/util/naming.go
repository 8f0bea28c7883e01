package util

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 255

// Characters rejected by at least one common filesystem, plus control codes.
var invalidFilenameChars = regexp.MustCompile(`[\x00-\x1f\x7f"*/:<>?\\|]`)

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename turns an arbitrary string into a single safe path element.
// Invalid characters become replacement, trailing dots and spaces are dropped,
// Windows device names get a trailing underscore and the result never exceeds
// 255 bytes. The result never contains a path separator.
func SanitizeFilename(name, replacement string) string {
	if strings.ContainsAny(replacement, `/\`) {
		replacement = "_"
	}

	s := invalidFilenameChars.ReplaceAllLiteralString(name, replacement)
	s = strings.TrimLeft(s, " ")
	s = strings.TrimRight(s, " .")
	if s == "" {
		return "_"
	}

	stem, ext := s, ""
	if i := strings.Index(s, "."); i > 0 {
		stem, ext = s[:i], s[i:]
	}
	if reservedNames[strings.ToUpper(stem)] {
		s = stem + "_" + ext
	}

	return truncateUTF8(s, maxFilenameBytes)
}

// EpisodeFilename builds "<series>_<season>_<episode>.mp4" as a safe filename.
// Only the series part is shortened, so every episode keeps its own name.
func EpisodeFilename(seriesName string, season, episode int) string {
	suffix := fmt.Sprintf("_%d_%d.mp4", season, episode)
	name := truncateUTF8(SanitizeFilename(seriesName, "_"), maxFilenameBytes-len(suffix))
	return name + suffix
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
