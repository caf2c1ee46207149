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
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrLockTimeout is returned when acquiring a file lock times out.
	ErrLockTimeout = errors.New("timeout acquiring file lock")
)

// lockPollInterval is how often a pending lock retries.
const lockPollInterval = 10 * time.Millisecond

// 🔒 Lock is an advisory OS-level lock guarding one file path, so one
// validate->backup->mutate->write sequence never interleaves with another
// targeting the same path.
type Lock struct {
	path string
	fl   *flock.Flock
}

// 🔒 AcquireLock takes an exclusive advisory lock for path, waiting up to
// timeout. The lock lives in a sibling ".lock" file so the target itself
// is never opened for locking.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(lockCtx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Errorf("locking %s: %w", path, ErrLockTimeout)
		}
		return nil, errors.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, errors.Errorf("locking %s: %w", path, ErrLockTimeout)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("acquired file lock")
	return &Lock{path: path, fl: fl}, nil
}

// 🔓 Release unlocks the path. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return errors.Errorf("unlocking %s: %w", l.path, err)
	}
	return nil
}
