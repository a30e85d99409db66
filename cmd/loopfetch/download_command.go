package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"loopfetch/internal/config"
	"loopfetch/internal/deps"
	"loopfetch/internal/diskimage"
	"loopfetch/internal/download"
	"loopfetch/internal/feed"
	"loopfetch/internal/logging"
	"loopfetch/internal/manifest"
)

// lockFileName guards the destination against concurrent runs.
const lockFileName = ".loopfetch.lock"

type downloadOptions struct {
	destination   string
	cacheServer   string
	products      []string
	years         []string
	files         []string
	mandatoryOnly bool
	optionalOnly  bool
	dryRun        bool
	batch         bool
	buildDMG      string
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download loop packages for the selected products and years",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, ctx, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.destination, "destination", "d", "", "Download destination directory")
	cmd.Flags().StringVarP(&opts.cacheServer, "cache-server", "c", "", "Caching proxy URL for package downloads")
	cmd.Flags().StringSliceVarP(&opts.products, "package-set", "p", nil, "Product families to download (garageband, logicpro, mainstage)")
	cmd.Flags().StringSliceVarP(&opts.years, "content-year", "y", nil, "Release years to download")
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "Specific sub-feed property list files to process")
	cmd.Flags().BoolVarP(&opts.mandatoryOnly, "mandatory-only", "m", false, "Only process packages the application requires")
	cmd.Flags().BoolVarP(&opts.optionalOnly, "optional-only", "o", false, "Only process supplementary packages")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report what would be done without downloading")
	cmd.Flags().BoolVar(&opts.batch, "batch", false, "One line per package instead of live progress")
	cmd.Flags().StringVar(&opts.buildDMG, "build-dmg", "", "Build a disk image of the download tree at this .dmg path")
	cmd.MarkFlagsMutuallyExclusive("mandatory-only", "optional-only")

	return cmd
}

func runDownload(cmd *cobra.Command, cmdCtx *commandContext, opts *downloadOptions) error {
	// Validate the image path before any network traffic so a typo does
	// not surface after a multi-gigabyte download.
	if opts.buildDMG != "" {
		if err := diskimage.ValidateImagePath(opts.buildDMG); err != nil {
			return err
		}
	}

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, opts)

	// Likewise fail on missing tooling before downloading the tree the
	// image would be built from. Dry runs never invoke the binary.
	if opts.buildDMG != "" && !opts.dryRun {
		if err := ensureDiskImageTooling(cfg); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, uuid.NewString()))

	client := feed.NewClient(cfg.Feeds.UserAgent, logger)
	catalog, err := client.FetchCatalog(ctx, cfg.Feeds.CatalogURL)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	sel, err := buildSelection(catalog, opts)
	if err != nil {
		return err
	}

	resolver, err := manifest.NewResolver(cfg.Feeds.OriginBaseURL, cfg.Download.CacheServer)
	if err != nil {
		return err
	}

	builder := manifest.NewBuilder(client, resolver, cfg.Feeds.MirrorBaseURL, logger)
	m, err := builder.Build(ctx, catalog, sel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if m.Len() == 0 {
		fmt.Fprintln(out, "No packages matched the selection.")
		return nil
	}

	dest := cfg.Download.Destination
	if !opts.dryRun {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("create destination: %w", err)
		}
		lock := flock.New(filepath.Join(dest, lockFileName))
		acquired, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire destination lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("another loopfetch run is already writing to %s", dest)
		}
		defer func() { _ = lock.Unlock() }()
	}

	progress := isatty.IsTerminal(os.Stdout.Fd()) && !opts.batch && !opts.dryRun
	orchestrator := download.New(dest, client, logger,
		download.WithDryRun(opts.dryRun),
		download.WithBatchOutput(opts.batch),
		download.WithProgress(progress),
		download.WithOutput(out),
		download.WithPacing(cfg.Download.PauseMinSeconds, cfg.Download.PauseMaxSeconds),
	)

	totals, err := orchestrator.Run(ctx, m)
	if err != nil {
		return err
	}
	printSummary(out, totals, opts.dryRun)
	if totals.Failed > 0 {
		return fmt.Errorf("%d of %d packages failed to download", totals.Failed, totals.Processed)
	}

	if opts.buildDMG != "" {
		if opts.dryRun {
			fmt.Fprintf(out, "Build: %s from %s\n", opts.buildDMG, dest)
			return nil
		}
		return buildDiskImage(ctx, cmd, cfg, dest, opts.buildDMG)
	}
	return nil
}

// ensureDiskImageTooling refuses the run when the configured disk image
// binary is not installed.
func ensureDiskImageTooling(cfg *config.Config) error {
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if status.Name == "hdiutil" && !status.Available {
			return fmt.Errorf("cannot build disk image: %s", status.Detail)
		}
	}
	return nil
}

// applyFlagOverrides layers command-line values over the loaded config.
func applyFlagOverrides(cfg *config.Config, opts *downloadOptions) {
	if dest := strings.TrimSpace(opts.destination); dest != "" {
		if expanded, err := config.ExpandPath(dest); err == nil {
			cfg.Download.Destination = expanded
		} else {
			cfg.Download.Destination = dest
		}
	}
	if cache := strings.TrimSpace(opts.cacheServer); cache != "" {
		cfg.Download.CacheServer = strings.TrimRight(cache, "/")
	}
}

// buildSelection validates the requested products, years, and files against
// the catalog and fills in defaults where flags were omitted.
func buildSelection(catalog *feed.Catalog, opts *downloadOptions) (manifest.Selection, error) {
	sel := manifest.Selection{
		Products: opts.products,
		Years:    opts.years,
		Files:    opts.files,
	}
	switch {
	case opts.mandatoryOnly:
		sel.Filter = manifest.FilterMandatory
	case opts.optionalOnly:
		sel.Filter = manifest.FilterOptional
	}

	if len(sel.Products) == 0 {
		if len(sel.Files) > 0 {
			// Explicit files can belong to any product family, so widen
			// the scope to the whole catalog.
			sel.Products = catalog.Products()
		} else {
			sel.Products = []string{"garageband"}
		}
	}
	if len(sel.Years) == 0 {
		sel.Years = []string{"2016"}
	}

	for _, product := range sel.Products {
		if !catalog.HasProduct(product) {
			return sel, fmt.Errorf("unknown package set %q (catalog offers: %s)",
				product, strings.Join(catalog.Products(), ", "))
		}
	}
	for _, year := range sel.Years {
		if !catalog.HasYear(year) {
			return sel, fmt.Errorf("unknown content year %q", year)
		}
	}
	known := catalog.AllFiles()
	for _, file := range sel.Files {
		if !slices.Contains(known, file) {
			return sel, fmt.Errorf("unknown feed file %q", file)
		}
	}
	return sel, nil
}

func printSummary(out io.Writer, totals download.Totals, dryRun bool) {
	transferred := "Transferred"
	if dryRun {
		transferred = "Would transfer"
	}
	rows := []table.Row{
		{"Processed", totals.Processed},
		{"Downloaded", totals.Downloaded},
		{"Reused", totals.Reused},
		{"Skipped", totals.Skipped},
		{"Failed", totals.Failed},
		{transferred, humanize.IBytes(uint64(totals.BytesTransferred))},
	}
	fmt.Fprintln(out, renderTable(table.Row{"Result", "Count"}, rows, 2))
}

// buildDiskImage runs the configured hdiutil against the download tree.
func buildDiskImage(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sourceDir, imagePath string) error {
	builder, err := diskimage.New(cfg.DiskImage.Binary, cfg.DiskImage.VolumeName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Building disk image %s from %s\n", imagePath, sourceDir)
	if err := builder.Create(ctx, sourceDir, imagePath, func(line string) {
		fmt.Fprintln(out, line)
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Disk image written to %s\n", imagePath)
	return nil
}
