package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"prompter/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "thumbnail", binary, "attempt timed out", ctx.Err())
	}
	detail := strings.TrimSpace(output.String())
	if detail != "" {
		return fmt.Errorf("%s: %w: %s", binary, err, truncate(detail, 300))
	}
	return fmt.Errorf("%s: %w", binary, err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
