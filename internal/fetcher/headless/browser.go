package headless

import (
	"fmt"
	"os/exec"
)

// browserNames are the executables tried, in order, when no path is configured.
var browserNames = []string{
	"headless-shell",
	"headless_shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

// FindBrowser returns the Chrome executable to launch. A configured path must
// exist; otherwise the usual install names are searched on PATH.
func FindBrowser(execPath string) (string, error) {
	return findBrowser(execPath, exec.LookPath)
}

func findBrowser(execPath string, lookPath func(string) (string, error)) (string, error) {
	if execPath != "" {
		path, err := lookPath(execPath)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, execPath, err)
		}
		return path, nil
	}
	for _, name := range browserNames {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no chrome or chromium executable found", ErrUnavailable)
}
