// Package staking decodes staking contract state and derives rewards, withdrawal
// progress and per-role statistics from it. Nothing in here does I/O.
package staking

// Staking contract fields
const (
	FieldTotalStakeAmount       = "totalstakeamount"
	FieldSSNList                = "ssnlist"
	FieldLastRewardCycle        = "lastrewardcycle"
	FieldMinDelegStake          = "mindelegstake"
	FieldBNumReq                = "bnum_req"
	FieldSSNDelegAmt            = "ssn_deleg_amt"
	FieldDepositAmtDeleg        = "deposit_amt_deleg"
	FieldBuffDepositDeleg       = "buff_deposit_deleg"
	FieldDirectDepositDeleg     = "direct_deposit_deleg"
	FieldLastWithdrawCycleDeleg = "last_withdraw_cycle_deleg"
	FieldLastBufDepositCycle    = "last_buf_deposit_cycle_deleg"
	FieldDelegStakePerCycle     = "deleg_stake_per_cycle"
	FieldStakeSSNPerCycle       = "stake_ssn_per_cycle"
	FieldWithdrawalPending      = "withdrawal_pending"
)

// Vault factory, vault and token contract fields
const (
	FieldOwnedVaults = "owned_vaults"
	FieldBalance     = "_balance"
	FieldBalances    = "balances"
)
