package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// browserCandidates mirrors the lookup order chromedp uses when no explicit
// executable path is configured.
var browserCandidates = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// CheckBrowser reports the headless browser the overlay and markup render
// strategies launch. An explicitly configured path wins; otherwise the common
// Chromium binary names are resolved from PATH, matching what the renderer
// does at runtime.
func CheckBrowser(configuredPath string) Status {
	result := Status{
		Name:        "Browser",
		Description: "Headless Chromium for caption rendering",
		Optional:    true,
	}

	configured := strings.TrimSpace(configuredPath)
	if configured != "" {
		result.Command = configured
		info, err := os.Stat(configured)
		if err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Available = false
		result.Detail = fmt.Sprintf("configured browser %q not executable", configured)
		return result
	}

	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			result.Command = path
			result.Available = true
			return result
		}
	}

	result.Command = browserCandidates[0]
	result.Available = false
	result.Detail = "no Chromium-compatible browser found in PATH"
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
