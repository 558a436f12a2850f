package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danmuck/guestbook/src/config"
	"github.com/danmuck/guestbook/src/guestbook"
	"github.com/danmuck/guestbook/src/server"
	"github.com/danmuck/guestbook/src/transport"
	logs "github.com/danmuck/smplog"
	"github.com/spf13/cobra"
)

// loadConfig applies --root through the environment so config.Load sees
// the same precedence as GUESTBOOK_ROOT.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		_ = os.Setenv(config.EnvRoot, root)
	}
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func openStore(cmd *cobra.Command) (*guestbook.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	store, err := guestbook.OpenStore(cfg.StoreOptions())
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open store: %w", err)
	}
	return store, cfg, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the guestbook HTTP server",
		Aliases: []string{"start", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				port, _ := cmd.Flags().GetInt("port")
				_ = os.Setenv(config.EnvPort, strconv.Itoa(port))
			}

			store, cfg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := server.New(store, server.Options{
				StaticDir:       cfg.Server.StaticDir,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
				MetricsPath:     cfg.Server.MetricsPath,
				ShutdownTimeout: cfg.ShutdownTimeout(),
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logs.Infof("entries file: %s", cfg.Store.Path)
			logs.Infof("static root: %s", cfg.Server.StaticDir)
			if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Int("port", config.DefaultPort, "Listen port (overrides PORT)")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the entries file if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count()
			if err != nil {
				return err
			}
			logs.Infof("store ready at %s (%d entries)", store.Path(), n)
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print all entries in timestamp order",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")

			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.ListAll()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				logs.Println("No entries yet.")
				return nil
			}

			logs.Titlef("\nGuestbook entries (%d):\n", len(entries))
			for _, e := range entries {
				user, message := e.User, e.Message
				if !raw {
					user, message = html.UnescapeString(user), html.UnescapeString(message)
				}
				logs.Dataf("  %s  %s: %s\n", e.Timestamp, user, message)
			}
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "Print stored (HTML-escaped) text instead of decoding entities")
	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all entries as json, toml or protobuf",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			return exportEntries(store, strings.ToLower(format), w)
		},
	}
	cmd.Flags().String("format", "json", "Export format: json|toml|protobuf")
	cmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")
	return cmd
}

func exportEntries(store *guestbook.Store, format string, w io.Writer) error {
	if format == "toml" {
		return store.ExportTOML(w)
	}

	var coder transport.Coder
	switch format {
	case "json":
		coder = transport.JSONCoder{}
	case "protobuf", "proto":
		coder = transport.ProtoCoder{}
	default:
		return fmt.Errorf("unsupported --format %q; use json|toml|protobuf", format)
	}

	entries, err := store.ListAll()
	if err != nil {
		return err
	}
	return coder.Encode(w, entries)
}
