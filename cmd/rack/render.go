package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/wav"
)

// renderChunk is the number of frames processed between writes.
const renderChunk = 4096

func newRenderCmd(a *app) *cobra.Command {
	var (
		pf       patchFlags
		duration time.Duration
		path     string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render patch into wav file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := pf.session(a.logger)
			if err != nil {
				return err
			}
			c := a.config.Render
			if err := s.prepare(cmd.Context(), c.SampleRate); err != nil {
				return err
			}
			sink, err := wav.NewSink(path, c.SampleRate, c.Channels, signal.BitDepth(c.BitDepth))
			if err != nil {
				return err
			}
			total := signal.FramesIn(c.SampleRate, duration)
			for done := 0; done < total; {
				if err := cmd.Context().Err(); err != nil {
					sink.Close()
					return err
				}
				n := renderChunk
				if total-done < n {
					n = total - done
				}
				frames, err := s.rack.ProcessAmount(c.SampleRate, n)
				if err == nil {
					err = sink.Write(frames)
				}
				if err != nil {
					sink.Close()
					return err
				}
				done += n
			}
			if err := sink.Close(); err != nil {
				return err
			}
			a.logger.Info(fmt.Sprintf("rendered %v of %s to %s", duration, pf.name, path))
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "rendered duration")
	cmd.Flags().StringVarP(&path, "output", "o", "rack.wav", "output wav file")
	return cmd
}
