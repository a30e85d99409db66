package diskimage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the builder.
type Option func(*Builder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *Builder) {
		if exec != nil {
			b.exec = exec
		}
	}
}

// Builder wraps hdiutil invocations.
type Builder struct {
	binary     string
	volumeName string
	exec       Executor
}

// New constructs a disk image builder.
func New(binary, volumeName string, opts ...Option) (*Builder, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("disk image binary required")
	}
	volumeName = strings.TrimSpace(volumeName)
	if volumeName == "" {
		return nil, errors.New("volume name required")
	}
	b := &Builder{
		binary:     binary,
		volumeName: volumeName,
		exec:       commandExecutor{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ValidateImagePath rejects output paths that do not name a .dmg file.
// Callers validate before any downloading starts so a bad flag fails fast.
func ValidateImagePath(path string) error {
	if !strings.HasSuffix(path, ".dmg") {
		return fmt.Errorf("image path %q must end in .dmg", path)
	}
	return nil
}

// Create builds a disk image at imagePath from the contents of sourceDir.
func (b *Builder) Create(ctx context.Context, sourceDir, imagePath string, onOutput func(string)) error {
	if err := ValidateImagePath(imagePath); err != nil {
		return err
	}
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("source folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source folder %q is not a directory", sourceDir)
	}

	args := []string{"create", "-volname", b.volumeName, "-srcfolder", sourceDir, imagePath}
	if err := b.exec.Run(ctx, b.binary, args, onOutput); err != nil {
		return fmt.Errorf("%s create: %w", b.binary, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	forward := func(line string) {
		if onOutput != nil {
			onOutput(line)
		}
	}
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	return scanErr
}
