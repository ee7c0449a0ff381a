package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// AppImageExt is the file extension installed applications carry.
const AppImageExt = ".AppImage"

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SanitizeFilename makes s safe to use as a file name: separators and shell
// metacharacters become underscores, runs of underscores collapse, and the
// result is capped at 200 runes.
func SanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || strings.ContainsRune(`[]/\:*?"<>|#%{}$!@+^~`+"`"+`=&;`, r) {
			return '_'
		}
		return r
	}, s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "._-")

	const maxRunes = 200
	if utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// AppNameFromPath derives the application name from an AppImage path:
// directory and extension are dropped, as is a trailing version or
// architecture suffix ("Obsidian-1.5.3-x86_64.AppImage" -> "Obsidian").
func AppNameFromPath(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(base), AppImageExt) {
		base = base[:len(base)-len(AppImageExt)]
	}

	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	var kept []string
	for _, p := range parts {
		if isVersionOrArch(p) {
			break
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return SanitizeFilename(base)
	}
	return SanitizeFilename(strings.Join(kept, "-"))
}

func isVersionOrArch(s string) bool {
	switch strings.ToLower(s) {
	case "x86", "x64", "amd64", "aarch64", "arm64", "armhf", "i386", "i686", "linux":
		return true
	}
	s = strings.TrimPrefix(strings.ToLower(s), "v")
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
