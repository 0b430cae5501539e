package commands

import (
	"strings"
	"time"

	"sprint-kpi/internal/server"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		open    bool
		from    string
		refresh string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sprint dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := pickSource(ctx, false, from)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}
			if !cmd.Flags().Changed("refresh") {
				refresh = cfg.Server.RefreshCron
			}

			srv, err := server.New(src, server.Options{
				Addr:          addr,
				DefaultBoards: defaultBoards(),
				RefreshCron:   refresh,
				Series:        seriesOptions(),
				Mock:          mockSource(),
			})
			if err != nil {
				return err
			}

			if open {
				go func() {
					time.Sleep(500 * time.Millisecond)
					url := "http://" + strings.Replace(addr, "0.0.0.0", "127.0.0.1", 1)
					if err := browser.OpenURL(url); err != nil {
						log.Warn().Err(err).Str("url", url).Msg("Could not open browser")
					}
				}()
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default LISTEN_ADDR)")
	cmd.Flags().BoolVar(&open, "open", false, "open the dashboard in the browser")
	cmd.Flags().StringVar(&from, "from", "", "serve a snapshot file instead of Jira")
	cmd.Flags().StringVar(&refresh, "refresh", "", "cron spec for reloading the default selection (default REFRESH_CRON)")
	return cmd
}
