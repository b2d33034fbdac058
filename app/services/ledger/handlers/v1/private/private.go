// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// ProposeBlock takes a block mined elsewhere, validates it and if that
// passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "block", block.Index, "hash", block.Hash)

	if _, err := h.State.AppendBlock(block); err != nil {
		if errors.Is(err, state.ErrInvalidBlock) {
			return v1.NewRequestError(err, http.StatusNotAcceptable)
		}
		if !errors.Is(err, state.ErrNotDurable) {
			return err
		}
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := strconv.ParseUint(web.Param(r, "from"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid from: %w", err), http.StatusBadRequest)
	}

	to, err := strconv.ParseUint(web.Param(r, "to"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid to: %w", err), http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from is greater than to"), http.StatusBadRequest)
	}

	var out []database.Block
	for _, block := range h.State.Blocks() {
		if block.Index >= from && block.Index <= to {
			out = append(out, block)
		}
	}

	if len(out) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Save writes the chain to storage.
func (h Handlers) Save(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Save(); err != nil {
		return v1.NewRequestError(err, http.StatusInternalServerError)
	}

	resp := struct {
		Status string `json:"status"`
		Blocks int    `json:"blocks"`
	}{
		Status: "saved",
		Blocks: len(h.State.Blocks()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Purge deletes the chain and starts over from the genesis block.
func (h Handlers) Purge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.Log.Infow("purge chain", "traceid", v.TraceID)

	if err := h.State.Purge(); err != nil {
		return v1.NewRequestError(err, http.StatusInternalServerError)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "chain purged",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
