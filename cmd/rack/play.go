package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dudk/rack/config"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/metric"
	"github.com/dudk/rack/output"
	"github.com/dudk/rack/portaudio"
)

// tickInterval is the period of output ticks while playing.
const tickInterval = 16 * time.Millisecond

func newPlayCmd(a *app) *cobra.Command {
	var (
		pf      patchFlags
		driver  string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play patch interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver != "" {
				a.config.Device.Driver = driver
			}
			if err := a.config.Validate(); err != nil {
				return err
			}
			// terminal is owned by the ui
			a.logger = log.Silent()
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "rack")
				if err != nil {
					return err
				}
				defer f.Close()
				a.logger.Out = f
			}

			s, err := pf.session(a.logger)
			if err != nil {
				return err
			}
			out := newOutput(a, s)
			defer out.Close()

			m := newPlayer(s, out, pf.name)
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if p, ok := final.(*player); ok && p.err != nil {
				return p.err
			}
			c := metric.Get("output")
			fmt.Fprintf(cmd.OutOrStdout(), "played %s frames in %s ticks, %s overloaded\n",
				c[metric.FrameCounter], c[metric.TickCounter], c[metric.OverloadCounter])
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&driver, "device", "", "output driver: portaudio or none")
	cmd.Flags().StringVar(&logFile, "log", "", "write logs to the file")
	return cmd
}

// newOutput creates the output and starts device initialization.
func newOutput(a *app, s *session) *output.Output {
	c := a.config.Output
	policy := output.IgnoreOverload
	if c.MuteOnOverload {
		policy = output.MuteOnOverload
	}
	out := output.New(s.rack,
		output.WithLogger(log.With(a.logger, "output")),
		output.WithMetric(metric.Meter("output")),
		output.WithVolume(c.Volume),
		output.WithMuted(c.Muted),
		output.WithRingDuration(c.RingDuration.Duration),
		output.WithFallbackRate(c.FallbackRate),
		output.WithMaxCatchUp(c.MaxCatchUp.Duration),
		output.WithCutoff(c.Cutoff),
		output.WithOverloadPolicy(policy),
	)
	if opener := deviceOpener(a.config.Device); opener != nil {
		out.Open(opener)
	}
	return out
}

// deviceOpener returns nil if output must be paced by wall clock.
func deviceOpener(d config.Device) output.Opener {
	if d.Driver != "portaudio" {
		return nil
	}
	return portaudio.Opener(d.SampleRate, d.FramesPerBuffer)
}
