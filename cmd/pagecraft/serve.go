package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft"
)

func newServeCommand() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: `Run the public site and the admin editor.

Required: ADMIN_PASSWORD and ADMIN_SESSION_SECRET.
Optional: SITE_URL, ADDR, DATABASE_PATH, REDIS_URL, S3_BUCKET (with S3_REGION,
S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY), UNSPLASH_ACCESS_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(dev)
			if err != nil {
				return err
			}
			cfg := pagecraft.ConfigFromEnv()
			cfg.AdminPassword = pagecraft.MustEnv("ADMIN_PASSWORD")
			cfg.SessionSecret = pagecraft.MustEnv("ADMIN_SESSION_SECRET")

			app := pagecraft.New(cfg,
				pagecraft.WithLogger(log),
				pagecraft.WithStaticDir(pagecraft.EnvOr("STATIC_DIR", "public")),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				app.Close()
				return err
			case <-ctx.Done():
			}
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable development logging")
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
