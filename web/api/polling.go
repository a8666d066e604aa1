package api

import "github.com/screwyprof/stakesync/staking"

// PollingStatus is the response of the polling routes
type PollingStatus struct {
	Active bool     `json:"active"`
	Role   string   `json:"role,omitempty"`
	Wallet string   `json:"wallet,omitempty"`
	Loops  []string `json:"loops"`
}

// Committed is the last value a polling loop committed
type Committed struct {
	Key         string `json:"key"`
	Role        string `json:"role"`
	Class       string `json:"class"`
	Wallet      string `json:"wallet"`
	Iteration   uint64 `json:"iteration"`
	CommittedAt string `json:"committedAt"`
	Fallback    bool   `json:"fallback"`
	Error       string `json:"error,omitempty"`
	Value       any    `json:"value"`
}

// VaultsResponse is the response of GET /vaults/{owner}
type VaultsResponse struct {
	Owner string              `json:"owner"`
	Data  []staking.VaultView `json:"data"`
}
