package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hybridmcp/pkg/config"
	"hybridmcp/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

const shutdownTimeout = 30 * time.Second

type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e == nil || e.Err == nil {
		return "command failed"
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var coded *exitError
		if errors.As(err, &coded) {
			if coded.Err != nil {
				_, _ = fmt.Fprintln(os.Stderr, coded.Err)
			}
			os.Exit(coded.Code)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hybridmcp",
		Short:         "Claude proxy with hybrid local/remote execution routing",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "path to the YAML configuration file")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(&configPath),
		newMCPCmd(&configPath),
		newInitCmd(&configPath),
		newRouteCmd(&configPath),
		newStatusCmd(&configPath),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print hybridmcp version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hybridmcp %s (%s)\n", version, commit)
			return err
		},
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApplication(NewApplication(modeServe, *configPath))
		},
	}
}

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tool surface over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApplication(NewApplication(modeMCP, *configPath))
		},
	}
}

// runApplication initializes and starts app, then blocks until a signal
// arrives or the app stops on its own.
func runApplication(app *Application) error {
	if err := app.Initialize(); err != nil {
		app.Shutdown(shutdownTimeout)
		return &exitError{Code: 1, Err: fmt.Errorf("application initialization failed: %w", err)}
	}

	if err := app.Start(); err != nil {
		app.Shutdown(shutdownTimeout)
		return &exitError{Code: 1, Err: fmt.Errorf("application startup failed: %w", err)}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.InfoCtx(app.ctx, "Received exit signal: %v", sig)
	case runErr = <-app.Done():
		if runErr != nil {
			logger.ErrorCtx(app.ctx, "Application stopped: %v", runErr)
		}
	}

	if err := app.Shutdown(shutdownTimeout); err != nil {
		return &exitError{Code: 1, Err: fmt.Errorf("application shutdown failed: %w", err)}
	}
	if runErr != nil {
		return &exitError{Code: 1, Err: runErr}
	}

	logger.InfoCtx(app.ctx, "Application safely exited")
	return nil
}
