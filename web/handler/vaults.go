package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/screwyprof/stakesync/pkg/httpkit"
	"github.com/screwyprof/stakesync/staking"
	"github.com/screwyprof/stakesync/syncer"
	"github.com/screwyprof/stakesync/web/api"
	"github.com/screwyprof/stakesync/web/handler/bind"
)

const GetVaultsRoute = http.MethodGet + " " + "/vaults/{owner}"

var ErrAggregateFailed = errors.New("failed to aggregate vaults")

// Aggregator merges the vaults of an owner
type Aggregator interface {
	Aggregate(ctx context.Context, owner string) (map[staking.VaultID]staking.VaultView, error)
}

type Vaults struct {
	aggregator Aggregator
}

func NewVaults(aggregator Aggregator) *Vaults {
	return &Vaults{aggregator: aggregator}
}

func (h *Vaults) AddRoutes(m *http.ServeMux) {
	m.Handle(GetVaultsRoute, httpkit.HandlerFunc(h.GetVaults))
}

func (h *Vaults) GetVaults(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	owner, err := bind.OwnerParam(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	views, err := h.aggregator.Aggregate(r.Context(), owner)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAggregateFailed, err)
		if errors.Is(err, syncer.ErrRetriesExhausted) {
			return httpkit.JsonError(api.BadGateway(err))
		}
		return httpkit.JsonError(api.InternalServerError(err))
	}
	return httpkit.JSON(bind.VaultsResponse(owner, views))
}
