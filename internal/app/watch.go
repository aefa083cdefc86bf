package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import macro files dropped into a directory",
	Long: `Watch a directory and import every .json macro file created or
rewritten there into the library, named after the file.

Files already in the directory are imported when the watch starts. Files
that are not valid macros are logged and skipped. Press Ctrl+C to stop.`,
	Example: `  # Import recordings as they are copied into ~/macros
  automice watch ~/macros`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	w, err := watcher.New(st, args[0], watcher.WithLogger(env.logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for macros (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
