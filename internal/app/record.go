package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/output"
	"github.com/blackwell-systems/automice/internal/recorder"
)

var (
	recordOutput    string
	recordName      string
	recordDelay     time.Duration
	recordStopAfter time.Duration
	recordStopOn    string
	recordSafe      bool

	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Record mouse activity into a macro",
		Long: `Capture mouse moves, clicks and scrolls together with the delay since
the previous event.

Capture ends when one of the stop rules fires:
  • --stop-on KIND: the first event of that kind (it is not recorded)
  • --stop-after D: the first event arriving after D has elapsed
  • Safe mode: with no other rule, the first event arriving more than
    10 seconds after the start ends capture (it is not recorded)

Press Ctrl+C to end capture early; the events recorded so far are kept.
Only the left and right buttons are recorded.`,
		Example: `  # Record until the first scroll, save to a file
  automice record -o scroll-test.json --stop-on scroll

  # Wait 3 seconds, then record for 5 seconds into the library
  automice record --name login --delay 3s --stop-after 5s

  # Record until Ctrl+C
  automice record -o long.json --safe=false`,
		RunE: runRecord,
	}
)

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "write the macro to this JSON file")
	recordCmd.Flags().StringVar(&recordName, "name", "", "save the macro to the library under this name")
	recordCmd.Flags().DurationVar(&recordDelay, "delay", 0, "wait before capture starts")
	recordCmd.Flags().DurationVar(&recordStopAfter, "stop-after", 0, "stop on the first event after this much time")
	recordCmd.Flags().StringVar(&recordStopOn, "stop-on", "", "stop on the first event of this kind: move, click or scroll")
	recordCmd.Flags().BoolVar(&recordSafe, "safe", true, "with no other stop rule, end capture on the first event after 10 seconds")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordOutput == "" && recordName == "" {
		return fmt.Errorf("nowhere to save the recording: pass --output or --name")
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}

	opts := recordOptions(cmd, env)
	if opts.StopOn != "" {
		if _, err := macro.ParseKind(string(opts.StopOn)); err != nil {
			return fmt.Errorf("invalid stop-on %q: %w", opts.StopOn, recorder.ErrInvalidStopOn)
		}
	}

	rec, err := recorder.New(newHook(env.cfg, env.logger), recorder.WithLogger(env.logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner := output.NewSpinner("Recording (Ctrl+C to stop)")
	spinner.SetWriter(cmd.OutOrStdout())
	spinner.Start()

	log, err := rec.Listen(ctx, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		spinner.Stop()
		return fmt.Errorf("recording failed: %w", err)
	}
	spinner.StopWithMessage(fmt.Sprintf("Recording stopped (%s)", rec.Reason()))

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderSummary(log))

	if recordOutput != "" {
		if err := macro.Save(recordOutput, log); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved to %s\n", recordOutput)
	}

	if recordName != "" {
		st, err := env.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if _, err := st.SaveMacro(recordName, log, recordOutput); err != nil {
			return fmt.Errorf("failed to save macro: %w", err)
		}
		fmt.Fprintf(out, "Saved to library as %q\n", recordName)
	}

	return nil
}

// recordOptions merges flags over the config file's record section.
func recordOptions(cmd *cobra.Command, env *environment) recorder.Options {
	cfg := env.cfg.Record
	opts := recorder.Options{
		Delay:     cfg.Delay,
		StopAfter: cfg.StopAfter,
		StopOn:    macro.Kind(cfg.StopOn),
		Safe:      cfg.SafeEnabled(),
	}

	flags := cmd.Flags()
	if flags.Changed("delay") {
		opts.Delay = recordDelay
	}
	if flags.Changed("stop-after") {
		opts.StopAfter = recordStopAfter
	}
	if flags.Changed("stop-on") {
		opts.StopOn = macro.Kind(recordStopOn)
	}
	if flags.Changed("safe") {
		opts.Safe = recordSafe
	}
	return opts
}
