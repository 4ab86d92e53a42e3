package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/compose-network/ctf-client/configs"
	"github.com/compose-network/ctf-client/internal/ctf"
	"github.com/compose-network/ctf-client/internal/diagnostics"
	"github.com/compose-network/ctf-client/internal/network"
	"github.com/compose-network/ctf-client/internal/relay"
)

var (
	HolderCMD = &cobra.Command{
		Use:   "holder",
		Short: "Print the current flag holder",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			holder, err := c.CurrentFlagHolder(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), holder.Hex())
			return nil
		},
	}

	SignerCMD = &cobra.Command{
		Use:   "signer",
		Short: "Print the wallet account submissions are made from",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			signer, err := c.Signer(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signer.Hex())
			return nil
		},
	}

	CaptureCMD = &cobra.Command{
		Use:   "capture",
		Short: "Capture the flag through the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, err := cmd.Flags().GetBool("wait")
			if err != nil {
				return err
			}

			c, err := open(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			listeners, err := c.ListenToEvents(cmd.Context(), nil, func(p relay.Progress) {
				slog.With("step", p.Step).With("total", p.Total).With("relay_url", p.RelayURL).Info(string(p.Kind))
			})
			if err != nil {
				return err
			}
			defer c.StopListenToEvents(listeners)

			pending, err := c.Capture(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), pending.Hash.Hex())
			if !wait {
				return nil
			}

			receipt, err := pending.Wait(cmd.Context())
			if err != nil {
				return err
			}

			slog.With("tx_hash", pending.Hash.Hex()).With("block", receipt.BlockNumber.String()).Info("flag captured")
			return nil
		},
	}

	EventsCMD = &cobra.Command{
		Use:   "events",
		Short: "Print the earliest FlagCaptured events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			c, err := open(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			events, err := c.PastEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					return fmt.Errorf("failed to encode event: %w", err)
				}
			}
			return nil
		},
	}

	WatchCMD = &cobra.Command{
		Use:   "watch",
		Short: "Stream new FlagCaptured events and relay progress until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := open(ctx, configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			listeners, err := c.ListenToEvents(ctx,
				func(ev ctf.FlagEvent) {
					if err := enc.Encode(ev); err != nil {
						slog.With("err", err.Error()).Error("failed to encode event")
					}
				},
				func(p relay.Progress) {
					slog.With("step", p.Step).With("total", p.Total).Info(string(p.Kind))
				},
			)
			if err != nil {
				return err
			}
			defer c.StopListenToEvents(listeners)

			slog.With("ctf", c.Address().Hex()).With("network", c.Network().Name).Info("watching for flag captures")

			select {
			case <-ctx.Done():
				return nil
			case err := <-listeners.Flag.Err():
				if ctx.Err() != nil {
					return nil
				}
				if err == nil {
					return errors.New("event subscription closed")
				}
				return fmt.Errorf("event subscription failed: %w", err)
			}
		},
	}

	StatusCMD = &cobra.Command{
		Use:   "status",
		Short: "Check the balances a relayed capture depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer c.Close()

			signer, err := c.Signer(cmd.Context())
			if err != nil {
				return err
			}

			cfg := c.Relay()
			report := diagnostics.NewChecker(c.Chain()).Check(cmd.Context(), diagnostics.Targets{
				Signer:    signer,
				Worker:    cfg.RelayWorkerAddress,
				Paymaster: cfg.PaymasterAddress,
				Hub:       cfg.RelayHubAddress,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "network %s (chain id %d), relayer %s (version %s)\n", c.Network().Name, c.Network().ChainID, cfg.RelayURL, cfg.ServerVersion)
			for _, b := range report {
				fmt.Fprintln(out, diagnostics.Format(b))
			}
			return nil
		},
	}

	NetworksCMD = &cobra.Command{
		Use:   "networks",
		Short: "List the known deployments, or export them as a networks file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			registry, err := network.Load(configs.Values)
			if err != nil {
				return fmt.Errorf("failed to load network registry: %w", err)
			}

			if output != "" {
				if err := registry.WriteFile(output); err != nil {
					return err
				}
				slog.With("path", output).With("networks", registry.Names()).Info("networks file written")
				return nil
			}

			for _, n := range registry.Networks() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", n.ChainID, n.Name, n.ContractAddress.Hex(), n.PaymasterAddress.Hex())
			}
			return nil
		},
	}
)

func init() {
	CaptureCMD.Flags().Bool("wait", false, "Wait until the relayed transaction is mined")
	EventsCMD.Flags().Int("limit", ctf.DefaultPastEventsLimit, "Maximum number of events, counted from the oldest")
	NetworksCMD.Flags().String("output", "", "Write the registry to this JSON networks file")
}

// Commands returns every subcommand of the client.
func Commands() []*cobra.Command {
	return []*cobra.Command{HolderCMD, SignerCMD, CaptureCMD, EventsCMD, WatchCMD, StatusCMD, NetworksCMD}
}
