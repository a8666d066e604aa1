package main

import (
	"github.com/spf13/cobra"

	"github.com/screwyprof/stakesync/staking"
	"github.com/screwyprof/stakesync/syncer"
)

func newSubStateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "substate <contract> <field> [indices...]",
		Short: "Read one field of a contract's state, with retries",
		Example: "  stakectl substate 0xa7c67d49c82c7dc1b73d231640b2cf5be0b4d5b3 lastrewardcycle\n" +
			"  stakectl substate 0xa7c67d49c82c7dc1b73d231640b2cf5be0b4d5b3 deposit_amt_deleg 0xc2035715831ab100ec42e562ce341b834bed1f4c",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(func(cmd *cobra.Command, s *session) (any, error) {
				return s.querier.FetchSubState(cmd.Context(), args[0], args[1], args[2:]...)
			})(cmd, args)
		},
	}
}

func newBlockCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "block",
		Short: "Print the latest and the current tx block numbers",
		Args:  cobra.NoArgs,
		RunE: f.run(func(cmd *cobra.Command, s *session) (any, error) {
			latest, err := s.querier.LatestBlock(cmd.Context())
			if err != nil {
				return nil, err
			}
			return map[string]uint64{"latest": latest, "current": staking.CurrentBlock(latest)}, nil
		}),
	}
}

func newLandingCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "landing",
		Short: "Print the network-wide staking figures",
		Args:  cobra.NoArgs,
		RunE: f.run(func(cmd *cobra.Command, s *session) (any, error) {
			return s.reader.LandingStats(cmd.Context())
		}),
	}
}

func newOperatorCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "operator <ssn>",
		Short: "Print a staked seed node and its delegator count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(func(cmd *cobra.Command, s *session) (any, error) {
				return s.reader.OperatorStats(cmd.Context(), args[0])
			})(cmd, args)
		},
	}
}

func newDelegatorCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "delegator <wallet>",
		Short: "Print a delegator's deposits, rewards and withdrawals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(func(cmd *cobra.Command, s *session) (any, error) {
				return s.reader.DelegatorStats(cmd.Context(), args[0])
			})(cmd, args)
		},
	}
}

func newRewardsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "rewards <ssn> <wallet>",
		Short: "Compute the unclaimed reward of a delegator at one node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(func(cmd *cobra.Command, s *session) (any, error) {
				reward, err := s.reader.DelegatorReward(cmd.Context(), args[0], args[1])
				if err != nil {
					return nil, err
				}
				return map[string]staking.Amount{"reward": reward}, nil
			})(cmd, args)
		},
	}
}

func newWithdrawalsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "withdrawals <wallet>",
		Short: "Print pending withdrawals with their unlock progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(func(cmd *cobra.Command, s *session) (any, error) {
				progress, current, err := s.reader.PendingWithdrawals(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return struct {
					CurrentBlock uint64                       `json:"currentBlock"`
					Withdrawals  []staking.WithdrawalProgress `json:"withdrawals"`
				}{current, progress}, nil
			})(cmd, args)
		},
	}
}

func newVaultsCmd(f *flags) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "vaults <owner>",
		Short: "Aggregate every vault an owner holds",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "vaults read at once")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return f.run(func(cmd *cobra.Command, s *session) (any, error) {
			return syncerAggregate(cmd, s, args[0], concurrency)
		})(cmd, args)
	}
	return cmd
}

func syncerAggregate(cmd *cobra.Command, s *session, owner string, concurrency int) (any, error) {
	agg := syncer.NewVaultAggregator(s.reader, syncer.WithVaultConcurrency(concurrency))
	return agg.Aggregate(cmd.Context(), owner)
}
