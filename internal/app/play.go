package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/output"
	"github.com/blackwell-systems/automice/internal/player"
)

var (
	playName  string
	playDelay time.Duration
	playSafe  bool
	playSpeed float64

	playCmd = &cobra.Command{
		Use:   "play [file]",
		Short: "Replay a recorded macro",
		Long: `Replay a macro from a JSON file or from the library, reproducing the
recorded delay before each event.

With safe mode on (the default) the replay stops before the next event
once 10 seconds have passed. Any failure to synthesise an event aborts
the replay.`,
		Example: `  # Replay a file
  automice play login.json

  # Replay a library macro after 2 seconds, twice as fast
  automice play --name login --delay 2s --speed 2

  # Log what would happen without touching the pointer
  automice play login.json --backend dry-run --log-level debug`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlay,
	}
)

func init() {
	playCmd.Flags().StringVar(&playName, "name", "", "replay this macro from the library")
	playCmd.Flags().DurationVar(&playDelay, "delay", 0, "wait before the first event")
	playCmd.Flags().BoolVar(&playSafe, "safe", true, "skip the remaining events once 10 seconds have passed")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "playback speed multiplier")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (playName == "") {
		return fmt.Errorf("pass either a file or --name")
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}

	var (
		log   macro.Log
		label string
	)
	if len(args) == 1 {
		label = args[0]
		log, err = macro.Load(args[0])
		if err != nil {
			return err
		}
	} else {
		label = playName
		st, err := env.openStore()
		if err != nil {
			return err
		}
		_, log, err = st.GetMacro(playName)
		st.Close()
		if err != nil {
			return err
		}
	}

	p, err := player.New(newController(env.cfg, env.logger), player.WithLogger(env.logger))
	if err != nil {
		return err
	}

	opts := playOptions(cmd, env)
	if opts.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", opts.Speed)
	}

	out := cmd.OutOrStdout()
	bar := output.NewProgress(len(log), "Replaying "+label)
	bar.SetWriter(out)
	opts.Progress = func(played, total int) { bar.Set(played) }

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Play(ctx, log, opts)
	bar.Finish()
	if err != nil {
		var synthErr *player.SynthesisError
		if errors.As(err, &synthErr) {
			return fmt.Errorf("replay aborted: %w", err)
		}
		return fmt.Errorf("replay stopped after %d of %d events: %w", res.Played, res.Total, err)
	}

	fmt.Fprintf(out, "Replayed %d of %d events in %s\n", res.Played, res.Total, output.FormatDuration(res.Elapsed))
	if res.Aborted {
		fmt.Fprintln(out, "Stopped by the 10 second safety limit (use --safe=false to disable)")
	}
	return nil
}

// playOptions merges flags over the config file's play section.
func playOptions(cmd *cobra.Command, env *environment) player.Options {
	cfg := env.cfg.Play
	opts := player.Options{
		Delay: cfg.Delay,
		Safe:  cfg.SafeEnabled(),
		Speed: cfg.Speed,
	}

	flags := cmd.Flags()
	if flags.Changed("delay") {
		opts.Delay = playDelay
	}
	if flags.Changed("safe") {
		opts.Safe = playSafe
	}
	if flags.Changed("speed") {
		opts.Speed = playSpeed
	}
	return opts
}
