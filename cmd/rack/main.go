// Command rack builds preset patches and plays, renders or draws them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dudk/rack/config"
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/modules"
)

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is shared by all commands. It's populated before command runs.
type app struct {
	configPath string
	verbose    bool

	config config.Config
	logger *logrus.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	a.config = config.Default()
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.config = c
	}
	a.logger = log.GetLogger()
	a.logger.Out = cmd.ErrOrStderr()
	if a.verbose {
		a.logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "rack",
		Short:        "Modular signal processing rack",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to toml config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newModulesCmd())
	root.AddCommand(newPlayCmd(a))
	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newGraphCmd(a))
	return root
}

// patchFlags are common flags of commands which build a patch.
type patchFlags struct {
	name   string
	freq   float64
	wave   string
	sample string
}

func (f *patchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "patch", "p", "sine", fmt.Sprintf("patch name %v", patchNames()))
	cmd.Flags().Float64Var(&f.freq, "freq", 440, "oscillator frequency in Hz")
	cmd.Flags().StringVar(&f.wave, "wave", "sine", "oscillator wave: sine, square, triangle or saw")
	cmd.Flags().StringVar(&f.sample, "sample", "", "wav or mp3 file for sampler patch")
}

func (f *patchFlags) session(logger *logrus.Logger) (*session, error) {
	w, err := modules.ParseWave(f.wave)
	if err != nil {
		return nil, err
	}
	return newSession(logger, f.name, patchOptions{
		freq:   f.freq,
		wave:   w,
		sample: f.sample,
	})
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List module kinds and their ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), modulesTable(modules.All(loader.New()))+"\n")
			return err
		},
	}
}
