// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package textfile

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Document is one file's content as discrete lines plus the metadata
// needed to write it back byte-faithfully. Lines are stored without their
// terminator; EOL and TrailingNewline record the original convention.
type Document struct {
	Path            string   // Path the document was loaded from
	Lines           []string // One entry per physical line, no terminators
	EOL             string   // "\n" or "\r\n", detected on load
	TrailingNewline bool     // Whether the file ended with its terminator
	mode            os.FileMode
}

// 🏭 Load reads path and splits it into lines, detecting the line
// terminator convention. An empty file yields zero lines.
func Load(ctx context.Context, path string) (*Document, error) {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}

	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	doc := &Document{Path: path, EOL: "\n", mode: mode}
	if len(data) == 0 {
		logger.Debug().Str("path", path).Msg("loaded empty file")
		return doc, nil
	}

	text := string(data)
	if strings.Contains(text, "\r\n") {
		doc.EOL = "\r\n"
	}
	if strings.HasSuffix(text, doc.EOL) {
		doc.TrailingNewline = true
		text = strings.TrimSuffix(text, doc.EOL)
	}
	doc.Lines = strings.Split(text, doc.EOL)

	logger.Debug().
		Str("path", path).
		Int("lines", len(doc.Lines)).
		Bool("crlf", doc.EOL == "\r\n").
		Msg("loaded file")

	return doc, nil
}

// 📏 LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.Lines)
}

// 📝 Content joins the lines back into file content using the original
// terminator convention.
func (d *Document) Content() string {
	if len(d.Lines) == 0 {
		return ""
	}
	content := strings.Join(d.Lines, d.EOL)
	if d.TrailingNewline {
		content += d.EOL
	}
	return content
}

// 💾 Save writes the document back to its path atomically: content goes to
// a temp file first, then replaces the target via rename.
func (d *Document) Save(ctx context.Context) error {
	return d.SaveAs(ctx, d.Path)
}

// 💾 SaveAs writes the document to an arbitrary path atomically.
func (d *Document) SaveAs(ctx context.Context, path string) error {
	logger := zerolog.Ctx(ctx)

	mode := d.mode
	if mode == 0 {
		mode = 0644
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(d.Content()), mode); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	logger.Debug().Str("path", path).Int("lines", len(d.Lines)).Msg("wrote file")
	return nil
}

// 🔄 WithLines returns a copy of the document carrying new lines but the
// same path, terminator convention, and mode.
func (d *Document) WithLines(lines []string) *Document {
	return &Document{
		Path:            d.Path,
		Lines:           lines,
		EOL:             d.EOL,
		TrailingNewline: d.TrailingNewline,
		mode:            d.mode,
	}
}

// CopyLines returns an independent copy of the document's lines, safe for
// callers to mutate.
func (d *Document) CopyLines() []string {
	out := make([]string, len(d.Lines))
	copy(out, d.Lines)
	return out
}
