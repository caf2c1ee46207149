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

package patch

import (
	"github.com/walteh/patchrc/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// Error kinds surfaced by the engine and the request validators. Matched
// with errors.Is; always wrapped with context via errors.Errorf.
var (
	// ErrInvalidPattern re-exports the matcher's sentinel so callers can
	// match the whole taxonomy from this package.
	ErrInvalidPattern = match.ErrInvalidPattern

	// ErrPatternNotFound means a pattern-based request matched nothing;
	// only that request fails, the batch continues.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrPatternNotFoundAtHint means a hinted request's pattern did not
	// match at the hinted line.
	ErrPatternNotFoundAtHint = errors.New("pattern not found at hinted line")

	// ErrOutOfRange means a request references lines outside the buffer.
	ErrOutOfRange = errors.New("line out of range")

	// ErrMissingField means a request lacks a field its variant requires.
	ErrMissingField = errors.New("missing required field")

	// ErrWriteFailure means the final write failed; the file has been
	// restored from the just-created backup.
	ErrWriteFailure = errors.New("write failed")

	// ErrBackupFailure means the pre-write backup could not be created.
	ErrBackupFailure = errors.New("backup failed")

	// ErrPatchFilesUnsupported is returned by the unified-diff patch file
	// stub; patches are applied through requests, not diff files.
	ErrPatchFilesUnsupported = errors.New("patch file application not supported")
)
