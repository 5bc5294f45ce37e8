package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/app/metrics"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Report summarises a simulation.
type Report struct {
	Dispatched int
	Delivered  int
	// Received is the number of messages in the inbox of every domain.
	Received map[uint32]uint64
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation described by the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}
			cfg, err := LoadConfig(home)
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m, err := metrics.NewRelayer(reg)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			simDone := make(chan struct{})

			if cfg.MetricsAddress != "" {
				srv := &http.Server{
					Addr:              cfg.MetricsAddress,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					logger.Info("serving metrics", "address", cfg.MetricsAddress)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					select {
					case <-ctx.Done():
					case <-simDone:
					}
					return srv.Close()
				})
			}

			var report Report
			g.Go(func() error {
				defer close(simDone)
				r, err := Simulate(ctx, logger, cfg, m)
				report = r
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d, delivered %d\n", report.Dispatched, report.Delivered)
			for _, chain := range cfg.Chains {
				fmt.Fprintf(cmd.OutOrStdout(), "domain %d received %d\n", chain.Domain, report.Received[chain.Domain])
			}
			return nil
		},
	}
}

// Simulate builds the chains of cfg and, for cfg.Rounds rounds, sends
// cfg.Messages messages over every route to the inbox of the destination
// before relaying them.
func Simulate(ctx context.Context, logger log.Logger, cfg Config, m *metrics.Relayer) (Report, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return Report{}, err
	}
	blockTime, err := cfg.blockTime()
	if err != nil {
		return Report{}, err
	}
	keys, err := cfg.validatorKeys()
	if err != nil {
		return Report{}, err
	}
	sender, err := util.DecodeHexAddress(cfg.Sender)
	if err != nil {
		return Report{}, err
	}
	relayerAddress, err := util.DecodeHexAddress(cfg.Relayer.Address)
	if err != nil {
		return Report{}, err
	}
	funds, ok := math.NewIntFromString(cfg.Funds)
	if !ok || funds.IsNegative() {
		return Report{}, fmt.Errorf("invalid funds %q", cfg.Funds)
	}

	chains := make([]*app.Chain, 0, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		chain, err := app.NewChain(logger, chainCfg)
		if err != nil {
			return Report{}, err
		}
		if funds.IsPositive() {
			if err := chain.Fund(chain.Context(), sender, funds); err != nil {
				return Report{}, err
			}
		}
		chains = append(chains, chain)
	}
	if err := app.Connect(chains...); err != nil {
		return Report{}, err
	}

	relayer, err := app.NewRelayer(logger, relayerAddress, chains, keys, m)
	if err != nil {
		return Report{}, err
	}

	report := Report{Received: make(map[uint32]uint64, len(chains))}
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		for _, origin := range chains {
			for _, destination := range chains {
				if origin.Domain() == destination.Domain() {
					continue
				}
				for i := 0; i < cfg.Messages; i++ {
					body := []byte(fmt.Sprintf("round %d message %d", round, i))
					if err := dispatch(origin, sender, destination, body); err != nil {
						return report, fmt.Errorf("dispatching from %d to %d: %w", origin.Domain(), destination.Domain(), err)
					}
					report.Dispatched++
				}
			}
		}

		delivered, err := relayer.Step(blockTime)
		if err != nil {
			return report, err
		}
		report.Delivered += delivered
		logger.Info("finished round", "round", round, "delivered", delivered, "pending", relayer.Pending())
	}

	for _, chain := range chains {
		count, err := chain.Inbox.Count(chain.Context())
		if err != nil {
			return report, err
		}
		report.Received[chain.Domain()] = count
	}
	return report, nil
}

func dispatch(origin *app.Chain, sender util.HexAddress, destination *app.Chain, body []byte) error {
	ctx := origin.Context()
	recipient := destination.Inbox.Address()

	quote, err := origin.Mailbox.QuoteDispatch(ctx, sender, destination.Domain(), recipient, body, nil, util.ZeroAddress)
	if err != nil {
		return err
	}
	_, err = origin.Mailbox.Dispatch(ctx, sender, quote, destination.Domain(), recipient, body, nil, util.ZeroAddress)
	return err
}
