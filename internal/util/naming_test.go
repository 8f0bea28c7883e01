package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Show_1_1.mp4", "Show_1_1.mp4"},
		{"AC/DC_1_2.mp4", "AC_DC_1_2.mp4"},
		{"Re:Zero_2_3.mp4", "Re_Zero_2_3.mp4"},
		{`a\b*c?d"e<f>g|h`, "a_b_c_d_e_f_g_h"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"..", "_"},
		{"  padded name. ", "padded name"},
		{"CON", "CON_"},
		{"con.mp4", "con_.mp4"},
		{"tab\there", "tab_here"},
		{"הבורר_1_1.mp4", "הבורר_1_1.mp4"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := SanitizeFilename(tc.in, "_")
			if got != tc.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeFilenameNeverEscapesDirectory(t *testing.T) {
	names := []string{"../x", "/abs/path", `..\..\win`, "a/../../b", "::", "/"}
	for _, name := range names {
		got := SanitizeFilename(name, "_")
		if strings.ContainsAny(got, `/\`) {
			t.Errorf("SanitizeFilename(%q) = %q contains a separator", name, got)
		}
		joined := filepath.Join("/out", got)
		if filepath.Dir(joined) != "/out" {
			t.Errorf("SanitizeFilename(%q) = %q escapes the directory: %s", name, got, joined)
		}
	}
}

func TestSanitizeFilenameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ש", 200) // 400 bytes
	got := SanitizeFilename(long, "_")
	if len(got) > 255 {
		t.Fatalf("length %d exceeds 255 bytes", len(got))
	}
	if got != strings.Repeat("ש", 127) {
		t.Errorf("unexpected truncation: %d bytes", len(got))
	}
}

func TestEpisodeFilename(t *testing.T) {
	if got := EpisodeFilename("Show", 1, 2); got != "Show_1_2.mp4" {
		t.Errorf("EpisodeFilename = %q, want Show_1_2.mp4", got)
	}
	if got := EpisodeFilename("Fate/Zero: Part 2", 3, 10); got != "Fate_Zero_ Part 2_3_10.mp4" {
		t.Errorf("EpisodeFilename = %q", got)
	}
}

func TestEpisodeFilenameLongTitleKeepsEpisodeSuffix(t *testing.T) {
	title := strings.Repeat("ש", 130) // 260 bytes
	first := EpisodeFilename(title, 1, 1)
	second := EpisodeFilename(title, 1, 2)

	if first == second {
		t.Fatalf("episodes 1 and 2 share the filename %q", first)
	}
	for _, got := range []string{first, second} {
		if len(got) > 255 {
			t.Errorf("length %d exceeds 255 bytes", len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("%q is not valid UTF-8", got)
		}
	}
	if !strings.HasSuffix(first, "_1_1.mp4") || !strings.HasSuffix(second, "_1_2.mp4") {
		t.Errorf("unexpected suffixes: %q, %q", first, second)
	}
}

func ExampleEpisodeFilename() {
	fmt.Println(EpisodeFilename("Who/What", 1, 4))
	// Output: Who_What_1_4.mp4
}
