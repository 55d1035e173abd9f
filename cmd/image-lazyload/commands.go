package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-lazyload/internal/config"
	"github.com/ironsheep/image-lazyload/internal/logger"
	"github.com/ironsheep/image-lazyload/internal/rewrite"
	"github.com/ironsheep/image-lazyload/internal/server"
	"github.com/ironsheep/image-lazyload/internal/watcher"
)

// app is what every command needs once configuration is loaded.
type app struct {
	cfg *config.Config
	log logger.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("IMAGE_LAZYLOAD_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) rewriter() watcher.ProcessFunc {
	engine := rewrite.New(rewrite.WithLogger(a.log))
	store := rewrite.StaticStore{Base: a.cfg.Store.BaseURL, Media: a.cfg.Store.MediaURL}
	return func(html string) string {
		return engine.Rewrite(html, a.cfg, store)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "image-lazyload",
		Short: "Rewrite <img> tags in rendered HTML for lazy loading",
		Long: `image-lazyload rewrites the <img> tags of rendered HTML so that images load
only when they scroll into view, generating low-quality placeholder copies of
the referenced images on demand.

Without a subcommand it runs as an MCP server on stdin/stdout.

Environment variables:
  IMAGE_LAZYLOAD_CONFIG=path     YAML configuration file
  IMAGE_LAZYLOAD_LOG_LEVEL=debug Enable debug logging
  IMAGE_LAZYLOAD_*               Override individual settings`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.SetVersionTemplate(fmt.Sprintf("image-lazyload %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit))
	root.PersistentFlags().StringP("config", "c", "", "path to YAML configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the MCP server on stdin/stdout",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newRewriteCmd(),
		&cobra.Command{
			Use:   "watch SOURCE_DIR OUTPUT_DIR",
			Short: "Mirror HTML files from SOURCE_DIR into OUTPUT_DIR, rewritten, on every change",
			Args:  cobra.ExactArgs(2),
			RunE:  runWatch,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	a.log.Debug("starting MCP server", logger.String("version", Version), logger.String("commit", GitCommit))
	return server.New(a.cfg, a.log, Version).Run()
}

func newRewriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite FILE...",
		Short: "Rewrite HTML files in place, into --output, or '-' from stdin to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRewrite,
	}
	cmd.Flags().StringP("output", "o", "", "write rewritten files into this directory instead of in place")
	return cmd
}

func runRewrite(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	outDir, _ := cmd.Flags().GetString("output")
	dsts, err := outputPaths(args, outDir)
	if err != nil {
		return err
	}
	process := a.rewriter()

	for i, path := range args {
		if path == "-" {
			if err := rewriteStream(cmd.InOrStdin(), cmd.OutOrStdout(), process); err != nil {
				return err
			}
			continue
		}
		dst := dsts[i]
		if err := watcher.RewriteFile(path, dst, process); err != nil {
			return err
		}
		a.log.Info("html rewritten", logger.String("source", path), logger.String("output", dst))
	}
	return nil
}

// outputPaths maps each input to its destination. Inputs are flattened into
// outDir by basename, so two inputs with the same name are rejected before
// anything is written.
func outputPaths(args []string, outDir string) ([]string, error) {
	dsts := make([]string, len(args))
	seen := make(map[string]string, len(args))
	for i, path := range args {
		if path == "-" {
			continue
		}
		dst := path
		if outDir != "" {
			dst = filepath.Join(outDir, filepath.Base(path))
		}
		key := filepath.Clean(dst)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, path, dst)
		}
		seen[key] = path
		dsts[i] = dst
	}
	return dsts, nil
}

func rewriteStream(r io.Reader, w io.Writer, process watcher.ProcessFunc) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if _, err := io.WriteString(w, process(string(data))); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	w, err := watcher.New(args[0], args[1], a.rewriter(), a.log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("watching for changes", logger.String("source", args[0]), logger.String("output", args[1]))
	return w.Run(ctx)
}
