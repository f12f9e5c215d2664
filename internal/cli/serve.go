package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/email"
	"github.com/ietf-tools/datatracker/internal/logging"
	"github.com/ietf-tools/datatracker/internal/server"
	"github.com/ietf-tools/datatracker/internal/store"
)

var (
	serveConfig string
	servePort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Load the settings file, open the database and serve the datatracker
until interrupted.

Example:
  datatracker serve --config /etc/datatracker/settings.yaml
  datatracker serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "settings file (defaults are used when omitted)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", -1, "port to listen on, overriding the settings file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, st, err := prepareServer(ctx, serveConfig, servePort)
	if err != nil {
		return err
	}
	defer st.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Info("shutting down", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		return err
	}
	return <-errCh
}

// prepareServer loads settings, makes them current and builds the server.
// A negative port keeps the configured one.
func prepareServer(ctx context.Context, configPath string, port int) (*server.Server, *store.Store, error) {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return nil, nil, err
	}
	if port >= 0 {
		settings.Server.Port = port
	}
	if err := applyLogLevel(settings.LogLevel); err != nil {
		return nil, nil, err
	}
	config.SetCurrent(*settings)

	st, err := store.Open(ctx, settings.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	mailer, err := email.NewSender(ctx, settings.Mail)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to set up mail: %w", err)
	}

	srv, err := server.NewServerFromSettings(settings, st, mailer)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	logging.Info("server configured",
		"port", settings.Server.Port,
		"database", settings.Database.Path,
		"mail", mailer.Name(),
	)
	return srv, st, nil
}

func applyLogLevel(name string) error {
	level, err := logging.ParseLevel(name)
	if err != nil {
		return config.ValidationError{Field: "log_level", Message: err.Error()}
	}
	logging.SetLevel(level)
	return nil
}
