package main

import (
	"os"

	"github.com/danmuck/guestbook/cmd/internal/logcfg"
	logs "github.com/danmuck/smplog"
	"github.com/spf13/cobra"
)

func main() {
	logs.Configure(logcfg.Load(os.Getenv("GUESTBOOK_ROOT")))

	rootCmd := &cobra.Command{
		Use:           "guestbook",
		Short:         "Guestbook server and store tools",
		Long:          "Guestbook serves a JSON entries API backed by a single file, plus the static front end.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("GUESTBOOK_CONFIG"), "Path to a guestbook.toml config file")
	rootCmd.PersistentFlags().String("root", "", "Installation root for data/ and public/ (default: executable directory)")

	rootCmd.AddCommand(
		newServeCommand(),
		newInitCommand(),
		newListCommand(),
		newExportCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		logs.Errorf(err, "guestbook %s failed", commandName(rootCmd))
		os.Exit(1)
	}
}

func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.Name()
}
