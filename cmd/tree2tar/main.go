// tree2tar builds tar archives from file tree manifests.
//
// Usage:
//
//	tree2tar [flags] MANIFEST...
//
// Each manifest (YAML or JSON with comments) is written to
// <out-dir>/<name>.tar. Set TREETAR_DEBUG to log every entry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/pflag"
	"github.com/unixpickle/essentials"
	"golang.org/x/sync/errgroup"

	"github.com/unixpickle/treetar"
	"github.com/unixpickle/treetar/internal/manifest"
)

var errUsage = errors.New("usage error")

type options struct {
	outDir   string
	prefix   string
	seekable bool
	jobs     int
}

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("TREETAR_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	err := run(context.Background(), os.Args[1:], os.Stderr, logger)
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, output io.Writer, logger *slog.Logger) error {
	var opts options
	flagSet := pflag.NewFlagSet("tree2tar", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&opts.outDir, "out-dir", "o", ".", "directory to write archives to")
	flagSet.StringVarP(&opts.prefix, "prefix", "p", "", "path inside the archive to place the tree under")
	flagSet.BoolVar(&opts.seekable, "seekable", false, "write archives with USTAR headers only")
	flagSet.IntVarP(&opts.jobs, "jobs", "j", 4, "number of archives to build at once")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: tree2tar [flags] MANIFEST...\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	manifests := flagSet.Args()
	if len(manifests) == 0 {
		return fmt.Errorf("%w: no manifests given", errUsage)
	}
	if opts.jobs < 1 {
		return fmt.Errorf("%w: --jobs must be at least 1", errUsage)
	}

	outputs := make(map[string]string, len(manifests))
	for _, path := range manifests {
		out := outputPath(opts.outDir, path)
		if other, ok := outputs[out]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", errUsage, other, path, out)
		}
		outputs[out] = path
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.jobs)
	for _, path := range manifests {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return buildArchive(path, outputPath(opts.outDir, path), opts, logger)
		})
	}
	return group.Wait()
}

func outputPath(outDir, manifestPath string) string {
	base := filepath.Base(manifestPath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".tar")
}

// buildArchive writes one manifest to outPath. A partially
// written archive is removed.
func buildArchive(manifestPath, outPath string, opts options, logger *slog.Logger) (err error) {
	logger = logger.With("manifest", manifestPath)

	tree, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return essentials.AddCtx("create archive", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = essentials.AddCtx("close archive", closeErr)
		}
		if err != nil {
			os.Remove(outPath)
		}
	}()

	digester := digest.Canonical.Digester()
	w := io.MultiWriter(f, digester.Hash())
	if opts.seekable {
		err = writePieces(w, tree, opts.prefix)
	} else {
		builder := treetar.NewBuilder[string](w, treetar.Slash[string]{}, treetar.WithLogger(logger))
		err = builder.AppendTree(tree, opts.prefix)
		if err == nil {
			err = builder.Finish()
		}
	}
	if err != nil {
		return essentials.AddCtx(manifestPath, err)
	}

	logger.Info("wrote archive",
		"path", outPath,
		"files", tree.Len(),
		"digest", digester.Digest().String())
	return nil
}

func writePieces(w io.Writer, tree *treetar.Tree[string], prefix string) error {
	agg, err := treetar.Pieces(tree, treetar.Slash[string]{}, prefix)
	if err != nil {
		return err
	}
	reader, err := agg.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(w, reader)
	return err
}
