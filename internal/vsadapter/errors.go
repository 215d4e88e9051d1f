package vsadapter

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sevigo/docsync/internal/core"
)

// classifyErr maps a raw subprocess failure to one of the typed error kinds
// of §7, the same way gitutil's callers turn go-git/exec errors into
// fmt.Errorf-wrapped results, except here the mapping is driven off exit
// code and well-known stderr substrings rather than a Go error type.
func classifyErr(err error, stderr string) error {
	if err == nil {
		return nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return fmt.Errorf("%w: %s", core.ErrExecutableNotFound, execErr.Name)
	}

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "repository not found"), strings.Contains(lower, "remote not found"):
		return fmt.Errorf("%w: %s", core.ErrRemoteNotFound, strings.TrimSpace(stderr))
	case strings.Contains(lower, "authentication failed"), strings.Contains(lower, "permission denied"), strings.Contains(lower, "access denied"):
		// §9 open question: never surface credential material here, only the kind.
		return core.ErrRemoteAuthFailed
	case strings.Contains(lower, "empty repository"), strings.Contains(lower, "no commits"):
		return fmt.Errorf("%w: %s", core.ErrEmptyRepository, strings.TrimSpace(stderr))
	case strings.Contains(lower, "uncommitted changes"), strings.Contains(lower, "working tree"):
		return fmt.Errorf("%w: %s", core.ErrUncommittedChanges, strings.TrimSpace(stderr))
	case strings.Contains(lower, "conflict"):
		return fmt.Errorf("%w: %s", core.ErrConflicts, strings.TrimSpace(stderr))
	default:
		return fmt.Errorf("vsadapter: command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr))
	}
}
