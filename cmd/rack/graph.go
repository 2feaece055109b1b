package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dudk/rack/dot"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		pf  patchFlags
		svg  string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print patch as DOT graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := pf.session(a.logger)
			if err != nil {
				return err
			}
			graph := dot.ToDOT(s.rack)
			if svg == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), graph)
				return err
			}
			data, err := dot.RenderSVG(cmd.Context(), graph)
			if err != nil {
				return err
			}
			return os.WriteFile(svg, data, 0o644)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&svg, "svg", "", "render svg into the file instead of printing DOT")
	return cmd
}
