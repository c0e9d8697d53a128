// Package process runs the dosing algorithm as an external executable that
// reads one JSON input on stdin and writes one JSON output on stdout.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

const DefaultTimeout = 30 * time.Second

var ErrUnavailable = errors.New("algorithm command unavailable")

type runFunc func(ctx context.Context, input []byte) (stdout []byte, stderr string, err error)

type Algorithm struct {
	run     runFunc
	timeout time.Duration
}

var _ ports.Algorithm = (*Algorithm)(nil)

// New runs command with args for every invocation. A zero timeout uses DefaultTimeout.
func New(command string, args []string, timeout time.Duration) *Algorithm {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Algorithm{run: commandRunner(command, args), timeout: timeout}
}

func (a *Algorithm) Run(ctx context.Context, input domain.AlgorithmInput) (domain.AlgorithmOutput, error) {
	if err := ctx.Err(); err != nil {
		return domain.AlgorithmOutput{}, err
	}

	encoded, err := json.Marshal(encodeInput(input))
	if err != nil {
		return domain.AlgorithmOutput{}, fmt.Errorf("encode algorithm input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	stdout, stderr, err := a.run(runCtx, encoded)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return domain.AlgorithmOutput{}, &domain.AlgorithmError{Reason: fmt.Sprintf("timed out after %s", a.timeout)}
		}
		if ctx.Err() != nil {
			return domain.AlgorithmOutput{}, ctx.Err()
		}
		return domain.AlgorithmOutput{}, &domain.AlgorithmError{Reason: formatReason(err, stderr)}
	}

	var payload outputPayload
	if err := json.Unmarshal(stdout, &payload); err != nil {
		return domain.AlgorithmOutput{}, &domain.AlgorithmError{Reason: fmt.Sprintf("decode output: %v", err)}
	}

	return decodeOutput(payload), nil
}

func commandRunner(command string, args []string) runFunc {
	return func(ctx context.Context, input []byte) ([]byte, string, error) {
		if command == "" {
			return nil, "", ErrUnavailable
		}

		path, err := exec.LookPath(command)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, "", fmt.Errorf("%w: %s", ErrUnavailable, command)
			}
			return nil, "", fmt.Errorf("locate algorithm command: %w", err)
		}

		cmd := exec.CommandContext(ctx, path, args...)
		cmd.Stdin = bytes.NewReader(input)

		var stdout bytes.Buffer
		var stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err = cmd.Run()
		return stdout.Bytes(), strings.TrimSpace(stderr.String()), err
	}
}

func formatReason(err error, stderr string) string {
	if stderr == "" {
		return err.Error()
	}

	return fmt.Sprintf("%v: %s", err, stderr)
}
