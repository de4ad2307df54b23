package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fearboard/internal/client"
	"github.com/jpalmerr/fearboard/internal/store"
)

const defaultAddr = "http://localhost:8080"

// ctlCmd groups commands that talk to a running server.
var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Read or adjust the value of a running server",
	Long: `Read or adjust the value of a running FearBoard server.

Every subcommand prints the resulting state as value/max.

Example:
  fearboard ctl get
  fearboard ctl inc
  fearboard ctl set 12 --addr http://stage-pc:8080`,
}

func init() {
	rootCmd.AddCommand(ctlCmd)

	ctlCmd.PersistentFlags().String("addr", defaultAddr, "base URL of the FearBoard server")

	ctlCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current value",
			Args:  cobra.NoArgs,
			RunE: runCtl(func(cmd *cobra.Command, c *client.Client, _ []string) (store.State, error) {
				return c.Get(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "inc",
			Short: "Raise the value by one",
			Args:  cobra.NoArgs,
			RunE: runCtl(func(cmd *cobra.Command, c *client.Client, _ []string) (store.State, error) {
				return c.Increment(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "dec",
			Short: "Lower the value by one",
			Args:  cobra.NoArgs,
			RunE: runCtl(func(cmd *cobra.Command, c *client.Client, _ []string) (store.State, error) {
				return c.Decrement(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "set N",
			Short: "Set the value (clamped by the server)",
			Args:  cobra.ExactArgs(1),
			RunE: runCtl(func(cmd *cobra.Command, c *client.Client, args []string) (store.State, error) {
				n, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return store.State{}, fmt.Errorf("value must be a number, got %q", args[0])
				}
				return c.Set(cmd.Context(), n)
			}),
		},
	)
}

type ctlFunc func(cmd *cobra.Command, c *client.Client, args []string) (store.State, error)

// runCtl wraps fn with client setup and output formatting.
func runCtl(fn ctlFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		c := client.New(addr, nil)
		defer c.Close()

		st, err := fn(cmd, c, args)
		if err != nil {
			if client.IsRateLimited(err) {
				return fmt.Errorf("too many changes, try again shortly: %w", err)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d\n", st.Value, st.Max)
		return nil
	}
}
