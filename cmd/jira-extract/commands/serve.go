package commands

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jira-extract/internal/auth"
	"jira-extract/internal/dashboard"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr   string
	serveOpen   bool
	serveSecure bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login-gated QA dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		sessions := auth.NewSessionManager(loadUsers(cfg), cfg.SessionTimeout)
		srv := dashboard.New(dashboard.Options{
			Client:        client,
			Sessions:      sessions,
			SecureCookies: serveSecure,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, addr)
		})
		g.Go(func() error {
			srv.Warm(ctx)
			return nil
		})
		if serveOpen {
			g.Go(func() error {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-ctx.Done():
					return nil
				}
				url := "http://" + browserHost(addr)
				if err := browser.OpenURL(url); err != nil {
					log.Warn().Err(err).Str("url", url).Msg("Could not open browser")
				}
				return nil
			})
		}
		return g.Wait()
	},
}

// browserHost turns a listen address such as ":8501" into something a browser can open.
func browserHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return strings.Replace(addr, "0.0.0.0", "localhost", 1)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from LISTEN_ADDR)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the dashboard in the default browser")
	serveCmd.Flags().BoolVar(&serveSecure, "secure-cookies", false, "mark the session cookie Secure (use behind TLS)")
}
