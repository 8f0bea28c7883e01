package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
)

func main() {
	startAll := time.Now()

	app := newApp()
	err := app.Run(os.Args)

	if util.IsDebug {
		util.Debugf("[PERF] finished in %v", time.Since(startAll))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, util.ErrorHandler(err))
		os.Exit(1)
	}
}
