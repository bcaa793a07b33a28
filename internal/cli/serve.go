package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.AppPort = port
			}
			if code := app.Serve(cfg); code != 0 {
				return fmt.Errorf("server exited with code %d", code)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override APP_PORT")
	return cmd
}
