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

const (
	StartPollingRoute  = http.MethodPost + " " + "/polling/{role}"
	StopPollingRoute   = http.MethodDelete + " " + "/polling/{role}"
	PollingStatusRoute = http.MethodGet + " " + "/polling"
	GetStateRoute      = http.MethodGet + " " + "/state/{role}/{class}"
)

// Sentinel errors
var (
	ErrNothingCommitted = errors.New("nothing committed yet")
	ErrStartFailed      = errors.New("failed to start polling")
	ErrStopFailed       = errors.New("failed to stop polling")
)

// Poller is the polling scheduler as seen by the web API
type Poller interface {
	StartPolling(role syncer.Role, wallet string) error
	StopPolling(role syncer.Role) error
	Committed(key syncer.Key) (syncer.Committed, bool)
	Active() (syncer.Role, string, bool)
}

type Polling struct {
	poller Poller
}

func NewPolling(poller Poller) *Polling {
	return &Polling{poller: poller}
}

func (h *Polling) AddRoutes(m *http.ServeMux) {
	m.Handle(StartPollingRoute, httpkit.HandlerFunc(h.StartPolling))
	m.Handle(StopPollingRoute, httpkit.HandlerFunc(h.StopPolling))
	m.Handle(PollingStatusRoute, httpkit.HandlerFunc(h.Status))
	m.Handle(GetStateRoute, httpkit.HandlerFunc(h.GetState))
}

func (h *Polling) StartPolling(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	role, wallet, err := bind.StartPollingRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	if err := h.poller.StartPolling(role, wallet); err != nil {
		return httpkit.JsonError(pollingError(fmt.Errorf("%w: %w", ErrStartFailed, err)))
	}
	return httpkit.JSONStatus(http.StatusAccepted, h.status())
}

func (h *Polling) StopPolling(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	role, err := bind.RoleParam(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	if err := h.poller.StopPolling(role); err != nil {
		return httpkit.JsonError(pollingError(fmt.Errorf("%w: %w", ErrStopFailed, err)))
	}
	return httpkit.NoContent()
}

func (h *Polling) Status(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return httpkit.JSON(h.status())
}

func (h *Polling) GetState(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	key, err := bind.StateKey(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	c, ok := h.poller.Committed(key)
	if !ok {
		return httpkit.JsonError(api.NotFound(fmt.Errorf("%w for %s", ErrNothingCommitted, key)))
	}
	return httpkit.JSON(bind.CommittedResponse(c))
}

func (h *Polling) status() api.PollingStatus {
	return bind.PollingStatusResponse(h.poller.Active())
}

func pollingError(err error) *api.Error {
	switch {
	case errors.Is(err, syncer.ErrUnknownRole), errors.Is(err, staking.ErrInvalidAddress):
		return api.BadRequest(err)
	case errors.Is(err, syncer.ErrNotStarted), errors.Is(err, context.Canceled):
		return api.ServiceUnavailable(err)
	default:
		return api.InternalServerError(err)
	}
}
