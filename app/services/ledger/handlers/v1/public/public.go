// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()

	// The signing key stays on the server.
	gen.SignKey = ""

	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.State.Blocks()

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LatestBlock returns the last block in the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlock(h.State.LatestBlock()), http.StatusOK)
}

// ValidateChain reports whether every block links to and is solved on top
// of its predecessor.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{
		Valid:  true,
		Blocks: len(h.State.Blocks()),
	}

	if err := h.State.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the current balances for all accounts or the specified
// account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := balances{
		LatestBlock: h.State.LatestBlock().Hash,
	}

	switch account := web.Param(r, "account"); account {
	case "":
		for acct, bal := range h.State.Balances() {
			resp.Balances = append(resp.Balances, balance{Account: acct, Balance: bal})
		}
		sort.Slice(resp.Balances, func(i, j int) bool {
			return resp.Balances[i].Account < resp.Balances[j].Account
		})

	default:
		resp.Balances = []balance{{Account: account, Balance: h.State.Balance(account)}}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// History returns a description of every contract touching the account.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	resp := history{
		Account: account,
		Entries: h.State.History(account),
	}
	if resp.Entries == nil {
		resp.Entries = []string{}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddBlock mines a block holding the provided data.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nb newBlock
	if err := web.Decode(r, &nb); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nb); err != nil {
		return err
	}

	h.Log.Infow("add block", "traceid", v.TraceID, "payload", nb.Payload)

	blk, err := h.State.AddBlock(ctx, nb.Payload)
	return h.respondAdded(ctx, w, blk, err)
}

// AddContract mines a block holding the encoded contract.
func (h Handlers) AddContract(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nc newContract
	if err := web.Decode(r, &nc); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nc); err != nil {
		return err
	}

	var amount int64
	switch {
	case nc.Amount != nil:
		amount = *nc.Amount
	case nc.Type != contract.KindMessage:
		return v1.NewRequestError(fmt.Errorf("%s requires an amount", nc.Type), http.StatusBadRequest)
	}

	c, err := contract.New(nc.Type, nc.From, nc.To, amount, nc.Text)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("add contract", "traceid", v.TraceID, "contract", contract.Describe(c))

	blk, err := h.State.AddContractBlock(ctx, c)
	return h.respondAdded(ctx, w, blk, err)
}

// respondAdded maps the result of adding a block to a response.
func (h Handlers) respondAdded(ctx context.Context, w http.ResponseWriter, blk database.Block, err error) error {
	switch {
	case err == nil:
		return web.Respond(ctx, w, added{Status: "block added", Block: toBlock(blk)}, http.StatusOK)

	case errors.Is(err, state.ErrNotDurable):
		return web.Respond(ctx, w, added{Status: "block added but not persisted", Block: toBlock(blk)}, http.StatusAccepted)

	case errors.Is(err, state.ErrInvalidBlock):
		return v1.NewRequestError(err, http.StatusConflict)

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return v1.NewRequestError(err, http.StatusServiceUnavailable)
	}

	return err
}
