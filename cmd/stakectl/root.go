package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/screwyprof/stakesync/pkg/endpoint"
	"github.com/screwyprof/stakesync/pkg/logger"
	"github.com/screwyprof/stakesync/pkg/zilrpc"
	"github.com/screwyprof/stakesync/syncer"
	"github.com/screwyprof/stakesync/syncer/config"
)

// flags are shared by every subcommand
type flags struct {
	networksFile string
	network      string
	endpoints    []string
	maxAttempts  int
	retryDelay   time.Duration
	timeout      time.Duration
	logLevel     string
}

// session is the wiring one command runs against
type session struct {
	network config.Network
	client  *zilrpc.Client
	querier *syncer.Querier
	reader  *syncer.Reader
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "stakectl",
		Short:        "Inspect staking contract state and the figures derived from it",
		Version:      version + " (" + date + ")",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.networksFile, "networks-file", "networks.yaml", "networks file with endpoints and contract addresses")
	pf.StringVarP(&f.network, "network", "n", "mainnet", "network name in the networks file")
	pf.StringSliceVarP(&f.endpoints, "endpoint", "e", nil, "RPC endpoint to use instead of the file's list (repeatable)")
	pf.IntVar(&f.maxAttempts, "max-attempts", syncer.DefaultMaxAttempts, "attempts per contract read")
	pf.DurationVar(&f.retryDelay, "retry-delay", syncer.DefaultRetryDelay, "wait between attempts")
	pf.DurationVar(&f.timeout, "timeout", 30*time.Second, "HTTP timeout of a single RPC call")
	pf.StringVar(&f.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newSubStateCmd(f),
		newBlockCmd(f),
		newLandingCmd(f),
		newOperatorCmd(f),
		newDelegatorCmd(f),
		newRewardsCmd(f),
		newWithdrawalsCmd(f),
		newVaultsCmd(f),
	)
	return root
}

// open builds the query stack for the selected network
func (f *flags) open(cmd *cobra.Command) (*session, error) {
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         f.logLevel,
		LogHumanFriendly: true,
		Output:           cmd.ErrOrStderr(),
	})

	networks, err := config.LoadNetworks(f.networksFile)
	if err != nil {
		return nil, err
	}
	network, err := networks.Get(f.network)
	if err != nil {
		return nil, err
	}

	endpoints := f.endpoints
	if len(endpoints) == 0 {
		endpoints = network.Endpoints
	}
	pool, err := endpoint.NewPool(endpoints)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", network.Name, err)
	}
	log.Debug("Endpoint pool ready", slog.String("network", network.Name), slog.Any("endpoints", pool.Endpoints()))

	client := zilrpc.NewClientWithHTTP(&http.Client{Timeout: f.timeout})
	querier := syncer.NewQuerier(pool, client,
		syncer.WithMaxAttempts(f.maxAttempts),
		syncer.WithRetryDelay(f.retryDelay),
	)

	return &session{
		network: network,
		client:  client,
		querier: querier,
		reader:  syncer.NewReader(querier, network.Contracts.Syncer()),
	}, nil
}

// run opens a session, runs fn and prints its result as indented JSON
func (f *flags) run(fn func(cmd *cobra.Command, s *session) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := f.open(cmd)
		if err != nil {
			return err
		}
		defer s.client.Close()

		out, err := fn(cmd, s)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
