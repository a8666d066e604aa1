package bind

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/screwyprof/stakesync/staking"
	"github.com/screwyprof/stakesync/syncer"
	"github.com/screwyprof/stakesync/web/api"
)

// Sentinel errors for request binding
var (
	ErrInvalidRole    = errors.New("invalid role parameter")
	ErrInvalidClass   = errors.New("invalid class parameter")
	ErrInvalidWallet  = errors.New("invalid wallet parameter")
	ErrInvalidOwner   = errors.New("invalid owner parameter")
	ErrMissingWallet  = errors.New("wallet parameter is required")
	ErrClassNotInRole = errors.New("data class is not polled for this role")
)

// StartPollingRequest binds POST /polling/{role}?wallet=
func StartPollingRequest(r *http.Request) (syncer.Role, string, error) {
	role, err := RoleParam(r)
	if err != nil {
		return "", "", err
	}

	raw := r.URL.Query().Get("wallet")
	if raw == "" {
		return "", "", ErrMissingWallet
	}
	wallet, err := staking.NormalizeAddress(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidWallet, err)
	}
	return role, wallet, nil
}

// RoleParam binds the {role} path parameter
func RoleParam(r *http.Request) (syncer.Role, error) {
	role, err := syncer.ParseRole(r.PathValue("role"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRole, err)
	}
	return role, nil
}

// StateKey binds GET /state/{role}/{class}
func StateKey(r *http.Request) (syncer.Key, error) {
	role, err := RoleParam(r)
	if err != nil {
		return syncer.Key{}, err
	}
	class, err := syncer.ParseDataClass(r.PathValue("class"))
	if err != nil {
		return syncer.Key{}, fmt.Errorf("%w: %w", ErrInvalidClass, err)
	}

	key := syncer.Key{Role: role, Class: class}
	if !slices.Contains(syncer.Keys(role), key) {
		return syncer.Key{}, fmt.Errorf("%w: %s", ErrClassNotInRole, key)
	}
	return key, nil
}

// OwnerParam binds the {owner} path parameter
func OwnerParam(r *http.Request) (string, error) {
	owner, err := staking.NormalizeAddress(r.PathValue("owner"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOwner, err)
	}
	return owner, nil
}

// PollingStatusResponse describes the running role
func PollingStatusResponse(role syncer.Role, wallet string, active bool) api.PollingStatus {
	status := api.PollingStatus{Active: active, Loops: []string{}}
	if !active {
		return status
	}

	status.Role = string(role)
	status.Wallet = wallet
	for _, key := range syncer.Keys(role) {
		status.Loops = append(status.Loops, key.String())
	}
	return status
}

// CommittedResponse binds a committed value to the API format
func CommittedResponse(c syncer.Committed) api.Committed {
	return api.Committed{
		Key:         c.Key.String(),
		Role:        string(c.Key.Role),
		Class:       string(c.Key.Class),
		Wallet:      c.Wallet,
		Iteration:   c.Iteration,
		CommittedAt: c.CommittedAt.UTC().Format(time.RFC3339),
		Fallback:    c.Fallback,
		Error:       c.Err,
		Value:       c.Value,
	}
}

// VaultsResponse lists the vault views ordered by vault id
func VaultsResponse(owner string, views map[staking.VaultID]staking.VaultView) api.VaultsResponse {
	data := slices.SortedFunc(maps.Values(views), func(a, b staking.VaultView) int {
		return cmp.Compare(a.ID, b.ID)
	})
	if data == nil {
		data = []staking.VaultView{}
	}
	return api.VaultsResponse{Owner: owner, Data: data}
}
