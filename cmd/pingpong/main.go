// Package main is the ping-pong application entrypoint.
package main

import (
	"context"
	"fmt"

	"github.com/AndrewSkow24/tcp-ping-pong/internal"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/app/apps"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/app/cfg"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CLI command definitions.
var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	rootCmd = &cobra.Command{
		RunE: func(*cobra.Command, []string) error {
			return nil
		},
	}

	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Starts a ping-pong client.",
		RunE:  runCmd,
	}

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Starts a ping-pong server.",
		RunE:  runCmd,
	}
)

func newApp(_ context.Context, cmd *cobra.Command, args []string) (apps.App, []string, error) {
	var err error
	var app apps.App
	switch cmd.Name() {
	case "client":
		app, err = apps.NewClientApp(
			cfg.AddrFromEnv(),
			cfg.AuditLogFromEnv(),
			cfg.RunForFromEnv(),
			cfg.ClientIDFromEnv(),
			cfg.TimingFromEnv(),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "new client app failed")
		}
		args = append([]string{cmd.Name()}, args...)
		return app, args, nil
	case "server":
		app, err = apps.NewServerApp(
			cfg.AddrFromEnv(),
			cfg.AuditLogFromEnv(),
			cfg.RunForFromEnv(),
			cfg.TimingFromEnv(),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "new server app failed")
		}
		args = append([]string{cmd.Name()}, args...)
		return app, args, nil
	default:
		return nil, nil, fmt.Errorf("unknown command: %s", cmd.Name())
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := chainedCheck(
		ctx,
		envCheck,
	); err != nil {
		return errors.Wrap(err, "chained check failed")
	}
	app, args, err := newApp(cmd.Context(), cmd, args)
	if err != nil {
		return errors.Wrapf(err, "new %s app failed", cmd.Name())
	}
	return errors.Wrap(app.Run(ctx, args), "run app failed")
}

func envCheck(ctx context.Context) error {
	err := internal.ValidateEnv()
	if err != nil {
		return errors.Wrap(err, "validate env failed")
	}
	level := internal.LogLevel
	if internal.Debug {
		level = "debug"
	}
	log.SetLogger(level)
	return nil
}

func chainedCheck(ctx context.Context, checks ...func(context.Context) error) error {
	for _, check := range checks {
		err := check(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	err := internal.RegisterCommandFlags(rootCmd, []*internal.Flag{
		&internal.EnvFlag,
		&internal.LogLevelFlag,
		&internal.DebugFlag,

		&internal.HostFlag,
		&internal.PortFlag,
		&internal.LogPathFlag,
		&internal.RunSecondsFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(clientCmd, []*internal.Flag{
		&internal.ClientIDFlag,
		&internal.ClientTimeoutMSFlag,
		&internal.ClientJitterMinMSFlag,
		&internal.ClientJitterMaxMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(serverCmd, []*internal.Flag{
		&internal.ServerKeepaliveMSFlag,
		&internal.ServerDelayMinMSFlag,
		&internal.ServerDelayMaxMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	rootCmd.AddCommand(
		clientCmd,
		serverCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
