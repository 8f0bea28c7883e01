package version

import (
	"fmt"
	"io"
	"runtime"
)

const (
	Version = "1.2"
)

// String is the banner printed by the version command
func String() string {
	return fmt.Sprintf("SdarotFetcher v%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

func ShowVersion(w io.Writer) {
	fmt.Fprintln(w, String())
}
