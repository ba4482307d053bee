package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/config"
	"github.com/PhantomInTheWire/tiff-tiler/pkg/split"
	"github.com/PhantomInTheWire/tiff-tiler/pkg/storage"
)

type flags struct {
	upload  bool
	quiet   bool
	envFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "tiler <input_folder> <output_folder> <slice_size>",
		Short: "Slice TIFF images in a folder into smaller JPEG images",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseSize(args[2])
			if err != nil {
				return err
			}
			return runFolder(cmd, f, args[0], args[1], size)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&f.upload, "upload", false, "upload tiles to the configured S3 bucket")
	root.PersistentFlags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")
	root.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "dotenv file with TILER_* settings")

	root.AddCommand(&cobra.Command{
		Use:   "image <input_path> <output_folder> <slice_size>",
		Short: "Slice a single image into smaller JPEG images",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseSize(args[2])
			if err != nil {
				return err
			}
			return runImage(cmd, f, args[0], args[1], size)
		},
	})
	return root
}

func parseSize(s string) (int, error) {
	size, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", split.ErrInvalidSize, s)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d must be positive", split.ErrInvalidSize, size)
	}
	return size, nil
}

func progress(cmd *cobra.Command, f *flags) split.Options {
	if f.quiet {
		return split.Options{}
	}
	w := cmd.ErrOrStderr()
	return split.Options{
		OnTile: func(path string, done, total int) {
			fmt.Fprintf(w, "\rSlicing %s: %d/%d", filepath.Base(path), done, total)
			if done == total {
				fmt.Fprintln(w)
			}
		},
		OnFile: func(path string, done, total int) {
			fmt.Fprintf(w, "Processing files: %d/%d %s\n", done, total, filepath.Base(path))
		},
	}
}

func runFolder(cmd *cobra.Command, f *flags, inDir, outDir string, size int) error {
	report, err := split.Folder(cmd.Context(), inDir, outDir, size, progress(cmd, f))
	w := cmd.ErrOrStderr()
	for _, res := range report.Failed() {
		fmt.Fprintf(w, "failed: %s: %v\n", res.Input, res.Err)
	}
	fmt.Fprintln(w, report.Summary())
	if err != nil {
		return err
	}
	if err := upload(cmd, f, report.Tiles()); err != nil {
		return err
	}
	if n := len(report.Failed()); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(report.Results))
	}
	return nil
}

func runImage(cmd *cobra.Command, f *flags, inPath, outDir string, size int) error {
	tiles, err := split.Image(cmd.Context(), inPath, outDir, size, progress(cmd, f))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d tiles written to %s\n", len(tiles), outDir)
	return upload(cmd, f, tiles)
}

func upload(cmd *cobra.Command, f *flags, tiles []string) error {
	if !f.upload || len(tiles) == 0 {
		return nil
	}
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return err
	}
	client, err := storage.NewClient(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}
	if err := storage.NewUploader(client, cfg.Storage).UploadTiles(cmd.Context(), tiles); err != nil {
		return errors.Join(errors.New("upload incomplete"), err)
	}
	return nil
}
