package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"loopfetch/internal/fileutil"
	"loopfetch/internal/logging"
	"loopfetch/internal/manifest"
)

// chunkSize is the fixed transfer buffer; the target file is synced after
// each chunk so an interrupt leaves at most one chunk unaccounted for.
const chunkSize = 8192

// Fetcher streams remote package bodies.
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// transferError marks per-item network failures. They are recorded on the
// ledger and the run continues; every other error aborts the run.
type transferError struct {
	cause error
}

func (e *transferError) Error() string { return e.cause.Error() }

func (e *transferError) Unwrap() error { return e.cause }

// Orchestrator iterates a manifest sequentially, reusing duplicates where
// possible and downloading the rest with pacing between transfers.
type Orchestrator struct {
	root     string
	fetcher  Fetcher
	logger   *slog.Logger
	out      io.Writer
	dryRun   bool
	batch    bool
	progress bool
	pauseMin time.Duration
	pauseMax time.Duration
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithDryRun reports what would happen without touching the filesystem or
// the network.
func WithDryRun(enabled bool) Option {
	return func(o *Orchestrator) { o.dryRun = enabled }
}

// WithBatchOutput replaces live progress with one line per item, for batch
// or management-console contexts.
func WithBatchOutput(enabled bool) Option {
	return func(o *Orchestrator) { o.batch = enabled }
}

// WithProgress enables the live progress bar. Callers should disable it
// when stdout is not a terminal.
func WithProgress(enabled bool) Option {
	return func(o *Orchestrator) { o.progress = enabled }
}

// WithOutput redirects user-facing progress lines (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.out = w
		}
	}
}

// WithPacing bounds the random pause inserted after each network transfer.
func WithPacing(minSeconds, maxSeconds int) Option {
	return func(o *Orchestrator) {
		o.pauseMin = time.Duration(minSeconds) * time.Second
		o.pauseMax = time.Duration(maxSeconds) * time.Second
	}
}

// New constructs an orchestrator rooted at the download destination.
func New(root string, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		root:     root,
		fetcher:  fetcher,
		logger:   logging.NewComponentLogger(logger, "download"),
		out:      os.Stdout,
		pauseMin: 1 * time.Second,
		pauseMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every manifest entry in order and returns the accumulated
// totals. Per-item transfer failures are recorded and skipped over;
// filesystem failures and context cancellation abort the run.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.Manifest) (Totals, error) {
	ledger := &Ledger{}
	pkgs := m.Packages()
	total := len(pkgs)

	for i, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return ledger.Totals(), err
		}
		counter := i + 1
		target := pkg.LocalPath(o.root)

		if Complete(pkg, target) {
			ledger.RecordSkipped()
			if o.dryRun {
				fmt.Fprintf(o.out, "Skip: %s - file exists\n", pkg.Name)
			} else {
				fmt.Fprintf(o.out, "Skipped %d of %d: %s - file exists\n", counter, total, pkg.Name)
			}
			continue
		}

		if existing, ok := FindDuplicate(o.root, pkg); ok {
			if err := o.reuse(pkg, existing, target, counter, total, ledger); err != nil {
				return ledger.Totals(), err
			}
			continue
		}

		err := o.download(ctx, pkg, target, counter, total, ledger)
		var tErr *transferError
		switch {
		case errors.As(err, &tErr):
			ledger.RecordFailed()
			o.logger.Error("package transfer failed",
				logging.Args(
					logging.String(logging.FieldPackage, pkg.Name),
					logging.String(logging.FieldURL, pkg.URL),
					logging.Error(err))...)
			fmt.Fprintf(o.out, "Failed %d of %d: %s - %v\n", counter, total, pkg.Name, err)
		case err != nil:
			return ledger.Totals(), err
		default:
			if !o.dryRun {
				if err := o.pause(ctx); err != nil {
					return ledger.Totals(), err
				}
			}
		}
	}

	return ledger.Totals(), nil
}

// reuse copies an existing complete duplicate into the target path.
func (o *Orchestrator) reuse(pkg manifest.Package, existing, target string, counter, total int, ledger *Ledger) error {
	if o.dryRun {
		fmt.Fprintf(o.out, "Copy: %s - %s\n", existing, humanize.IBytes(uint64(pkg.Size)))
		ledger.RecordReused()
		ledger.RecordPlanned(pkg.Size)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(existing, target); err != nil {
		return fmt.Errorf("copy duplicate %s: %w", existing, err)
	}
	ledger.RecordReused()
	fmt.Fprintf(o.out, "Copied %d of %d: %s\n", counter, total, existing)
	return nil
}

func (o *Orchestrator) download(ctx context.Context, pkg manifest.Package, target string, counter, total int, ledger *Ledger) error {
	if o.dryRun {
		fmt.Fprintf(o.out, "Download: %s - %s\n", pkg.Name, humanize.IBytes(uint64(pkg.Size)))
		ledger.RecordDownloaded(pkg.Size)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	body, _, err := o.fetcher.Open(ctx, pkg.URL)
	if err != nil {
		return &transferError{cause: err}
	}
	defer body.Close()

	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}
	defer file.Close()

	if o.batch || !o.progress {
		fmt.Fprintf(o.out, "Downloading %d of %d: %s - %s\n",
			counter, total, pkg.Name, humanize.IBytes(uint64(pkg.Size)))
	}

	var bar *progressbar.ProgressBar
	if o.progress && !o.batch {
		bar = progressbar.NewOptions64(pkg.Size,
			progressbar.OptionSetDescription(fmt.Sprintf("Downloading %d of %d: %s", counter, total, pkg.Name)),
			progressbar.OptionSetWriter(o.out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	written, err := o.stream(ctx, body, file, bar)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		// Leave the partial file in place: the next run's completeness
		// check sees the truncation and re-downloads.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close target file: %w", err)
	}

	ledger.RecordDownloaded(written)
	o.logger.Info("package downloaded",
		logging.Args(
			logging.String(logging.FieldPackage, pkg.Name),
			logging.String(logging.FieldFeed, pkg.SourceFeed),
			logging.Int64("bytes", written))...)
	return nil
}

// stream copies the body to the file in fixed-size chunks, syncing after
// each chunk.
func (o *Orchestrator) stream(ctx context.Context, body io.Reader, file *os.File, bar *progressbar.ProgressBar) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("write chunk: %w", err)
			}
			if err := file.Sync(); err != nil {
				return written, fmt.Errorf("sync chunk: %w", err)
			}
			written += int64(n)
			if bar != nil {
				_ = bar.Add64(int64(n))
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &transferError{cause: readErr}
		}
	}
}

// pause sleeps a random interval between the configured bounds so
// back-to-back transfers do not hammer the origin.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.pauseMax <= 0 {
		return nil
	}
	d := o.pauseMin
	if o.pauseMax > o.pauseMin {
		d += time.Duration(rand.Int63n(int64(o.pauseMax - o.pauseMin)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
