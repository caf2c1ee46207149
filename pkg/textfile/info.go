package textfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📋 FileInfo is the metadata surface consumed by validation pre-flight,
// the info command, and batch analysis.
type FileInfo struct {
	Path      string    // Path as given by the caller
	Size      int64     // File size in bytes
	Lines     int       // Number of physical lines
	Extension string    // Lowercase extension including the dot
	Language  string    // Best-effort language name for display
	Checksum  string    // SHA-256 of the content
	Modified  time.Time // Last modification time
}

// languageByExtension maps common extensions to display names for
// preview headers and analysis summaries.
var languageByExtension = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".go":   "go",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".rb":   "ruby",
	".php":  "php",
	".sh":   "shell",
	".html": "html",
	".css":  "css",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "markdown",
	".sql":  "sql",
	".xml":  "xml",
}

// 🔍 Stat gathers FileInfo for path, loading the content once to count
// lines and checksum it.
func Stat(ctx context.Context, path string) (*FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Errorf("stating file: %w", err)
	}
	if fi.IsDir() {
		return nil, errors.Errorf("stating file: %s is a directory", path)
	}

	doc, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256([]byte(doc.Content()))
	ext := strings.ToLower(filepath.Ext(path))

	return &FileInfo{
		Path:      path,
		Size:      fi.Size(),
		Lines:     doc.LineCount(),
		Extension: ext,
		Language:  LanguageFor(ext),
		Checksum:  hex.EncodeToString(hash[:]),
		Modified:  fi.ModTime(),
	}, nil
}

// LanguageFor returns the display language for an extension, or "text".
func LanguageFor(ext string) string {
	if lang, ok := languageByExtension[strings.ToLower(ext)]; ok {
		return lang
	}
	return "text"
}
