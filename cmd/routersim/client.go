package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/davidbalbert/routersim/api"
	"github.com/davidbalbert/routersim/rpc"
	"github.com/spf13/cobra"
)

// withClient connects to the API socket for the duration of f.
func withClient(f func(client *api.Client) error) error {
	client, err := api.NewClient(socketPath)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	return f(client)
}

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)

	for i, h := range header {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)

	return tw
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the state of a running server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "routers",
		Short: "List routers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *api.Client) error {
				routers, err := client.GetRouters(cmd.Context())
				if err != nil {
					return err
				}

				w := table(cmd.OutOrStdout(), "Hostname", "Brand", "Model", "OS")
				for _, r := range routers {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Hostname, r.Brand, r.Model, r.OS)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "interfaces <router>",
		Short: "List a router's interfaces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *api.Client) error {
				ifaces, err := client.GetInterfaces(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				w := table(cmd.OutOrStdout(), "Interface", "Address", "Network", "Hosts")
				for _, iface := range ifaces {
					hosts := ""
					if iface.Network != "" {
						hosts = fmt.Sprint(iface.Hosts)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", iface.Name, iface.Address, iface.Network, hosts)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "routes <router>",
		Short: "Show a router's route table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *api.Client) error {
				routes, err := client.GetRoutes(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				w := table(cmd.OutOrStdout(), "Destination", "Next Hop")
				for _, r := range routes {
					fmt.Fprintf(w, "%s\t%s\n", r.Destination, r.NextHop)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "links <router>",
		Short: "Show a router's links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *api.Client) error {
				links, err := client.GetLinks(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				w := table(cmd.OutOrStdout(), "Interface", "Peer", "Peer Interface")
				for _, l := range links {
					fmt.Fprintf(w, "%s\t%s\t%s\n", l.Interface, l.Peer, l.PeerInterface)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Print topology changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			return withClient(func(client *api.Client) error {
				err := client.WatchEvents(ctx, func(e rpc.EventInfo) error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s %s %s\n", e.Type, e.Router, e.Interface, e.Detail)
					return err
				})
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "client: v%s\n", version)

			return withClient(func(client *api.Client) error {
				v, err := client.GetVersion(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "server: v%s\n", v)
				return nil
			})
		},
	}
}

func shutdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Stop a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *api.Client) error {
				return client.Shutdown(cmd.Context())
			})
		},
	}
}
