package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidbalbert/routersim/api"
	"github.com/davidbalbert/routersim/config"
	"github.com/davidbalbert/routersim/events"
	"github.com/davidbalbert/routersim/shell"
	"github.com/davidbalbert/routersim/topology"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	version    = "dev"
	configPath string
	socketPath string
	logLevel   string
)

func main() {
	if err := root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// root returns the root cobra command.
func root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "routersim",
		Short:         "Simulate a network of statically routed IPv4 routers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}

			logrus.SetLevel(level)
			logrus.SetOutput(os.Stderr)

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a topology file")
	flags.StringVar(&socketPath, "socket", "/tmp/routersim.sock", "path to the API socket")
	flags.StringVar(&logLevel, "log-level", "warning", "log level (debug, info, warning, error)")

	cmd.AddCommand(shellCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(showCmd())
	cmd.AddCommand(monitorCmd())
	cmd.AddCommand(versionCmd())
	cmd.AddCommand(shutdownCmd())

	return cmd
}

// loadTopology builds a registry from --config, or an empty one if no config
// was given.
func loadTopology(pub events.Publisher) (*topology.Registry, error) {
	reg := topology.NewRegistry(pub, nil)

	if configPath == "" {
		return reg, nil
	}

	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := c.Apply(reg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	logrus.Infof("loaded %d routers and %d links from %s", len(c.Routers), len(c.Links), configPath)

	return reg, nil
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit a topology interactively",
		Long: `Shell starts an interactive command line on a topology loaded from --config.
When stdin is not a terminal, commands are read from it one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadTopology(nil)
			if err != nil {
				return err
			}

			cli := shell.New(reg)

			fd := int(os.Stdin.Fd())
			if !term.IsTerminal(fd) {
				return cli.Exec(os.Stdin, os.Stdout)
			}

			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("failed to make terminal raw: %w", err)
			}
			defer term.Restore(fd, oldState)

			cli.Run(os.Stdin)

			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve a topology over the API socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			bus := events.NewBus()

			reg, err := loadTopology(bus)
			if err != nil {
				return err
			}

			logrus.Infof("starting routersim %s with uid %d", version, os.Getuid())

			server := api.NewServer(reg, bus, socketPath, cancel, version)

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return server.Run(ctx)
			})

			g.Go(func() error {
				logEvents(ctx, bus)
				return nil
			})

			return g.Wait()
		},
	}
}

// logEvents logs every topology change until ctx is done.
func logEvents(ctx context.Context, bus *events.Bus) {
	tok := bus.Subscribe()
	defer bus.Unsubscribe(tok)

	for {
		e, ok := bus.Next(ctx, tok)
		if !ok {
			return
		}

		logrus.WithFields(logrus.Fields{
			"event":     e.Type,
			"router":    e.Router,
			"interface": e.Interface,
		}).Info(e.Detail)
	}
}
