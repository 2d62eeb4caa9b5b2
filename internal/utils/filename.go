package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Runs of whitespace become a single underscore
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

const maxFilenameLength = 100

// SanitizeFilename turns an arbitrary identifier (usually a user id) into a
// safe file name without extension. Path separators and leading dots are
// stripped so the result never escapes its directory.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	name = whitespaceRuns.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}

	if name == "" {
		name = "unnamed"
	}

	return name
}

// UserFile returns the path of the per-user file dir/<user><ext>.
func UserFile(dir, userID, ext string) string {
	return filepath.Join(dir, SanitizeFilename(userID)+ext)
}

// TimestampedFile returns dir/<user>-<20060102-150405><ext> in UTC.
func TimestampedFile(dir, userID, ext string, at time.Time) string {
	return filepath.Join(dir, SanitizeFilename(userID)+"-"+at.UTC().Format("20060102-150405")+ext)
}
