package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers"
	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type ledgerTests struct {
	public  http.Handler
	private http.Handler
	debug   http.Handler
}

func newLedgerTests(t *testing.T) ledgerTests {
	storage, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct storage: %s", err)
	}

	log := zap.NewNop().Sugar()
	evts := events.New()
	mtrcs := metrics.New()

	st, err := state.New(state.Config{
		Storage: storage,
		Genesis: genesis.Genesis{
			Payload:    genesis.DefaultPayload,
			Difficulty: 1,
			SignKey:    "test-key",
		},
		EvHandler: evts.Handler(log),
		Metrics:   mtrcs,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		State:    st,
		Evts:     evts,
		Metrics:  mtrcs,
	}

	return ledgerTests{
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		debug:   handlers.DebugMux("test", cfg),
	}
}

func call(h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// =============================================================================

func Test_Ledger(t *testing.T) {
	lt := newLedgerTests(t)

	t.Log("Given the need to work with the ledger through the web api.")
	{
		t.Logf("\tTest 0:\tWhen adding data and contracts.")
		{
			w := call(lt.public, http.MethodPost, "/v1/blocks/add", `{"payload":"hello world"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a data block: %d %s", failed, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add a data block.", success)

			for _, body := range []string{
				`{"type":"mint","to":"alice","amount":100}`,
				`{"type":"transfer","from":"alice","to":"bob","amount":30}`,
				`{"type":"message","from":"alice","text":"hi"}`,
			} {
				w := call(lt.public, http.MethodPost, "/v1/contracts/add", body)
				if w.Code != http.StatusOK {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add contract %s: %d %s", failed, body, w.Code, w.Body)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add contracts.", success)

			w = call(lt.public, http.MethodGet, "/v1/balances/list/alice", "")
			var bals struct {
				Balances []struct {
					Account string `json:"account"`
					Balance int64  `json:"balance"`
				} `json:"balances"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &bals); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to unmarshal the balances: %s", failed, err)
			}
			if len(bals.Balances) != 1 || bals.Balances[0].Balance != 70 {
				t.Fatalf("\t%s\tTest 0:\tShould have a balance of 70 for alice: %s", failed, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould have a balance of 70 for alice.", success)

			w = call(lt.public, http.MethodGet, "/v1/history/bob", "")
			var hist struct {
				Entries []string `json:"entries"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to unmarshal the history: %s", failed, err)
			}
			if len(hist.Entries) != 1 || hist.Entries[0] != "block 3: transfer 30 from alice to bob" {
				t.Fatalf("\t%s\tTest 0:\tShould get back the history for bob: %v", failed, hist.Entries)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the history for bob.", success)

			w = call(lt.public, http.MethodGet, "/v1/blocks/validate", "")
			var val struct {
				Valid  bool `json:"valid"`
				Blocks int  `json:"blocks"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &val); err != nil || !val.Valid || val.Blocks != 5 {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid chain of 5 blocks: %s", failed, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid chain of 5 blocks.", success)
		}

		t.Logf("\tTest 1:\tWhen sending bad requests.")
		{
			tt := []string{
				`{"type":"steal","to":"alice","amount":1}`,
				`{"type":"mint","to":"alice"}`,
				`{"type":"transfer","to":"bob","amount":1}`,
				`not json`,
			}
			for _, body := range tt {
				w := call(lt.public, http.MethodPost, "/v1/contracts/add", body)
				if w.Code != http.StatusBadRequest {
					t.Fatalf("\t%s\tTest 1:\tShould get back a 400 for %s, got %d", failed, body, w.Code)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject malformed contracts.", success)

			w := call(lt.public, http.MethodPost, "/v1/blocks/add", `{"payload":""}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 1:\tShould accept an empty payload like the ledger does, got %d %s", failed, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest 1:\tShould accept an empty payload like the ledger does.", success)

			w = call(lt.private, http.MethodPost, "/v1/node/block/propose", `{"index":99,"hash":"00","previousHash":"x"}`)
			if w.Code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tTest 1:\tShould get back a 406 for a bad block, got %d", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a block that doesn't link to the chain.", success)
		}

		t.Logf("\tTest 2:\tWhen purging the chain.")
		{
			w := call(lt.private, http.MethodPost, "/v1/chain/purge", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 2:\tShould be able to purge: %d %s", failed, w.Code, w.Body)
			}

			w = call(lt.public, http.MethodGet, "/v1/blocks/list", "")
			var blocks []struct {
				Index uint64 `json:"index"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &blocks); err != nil || len(blocks) != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould only have the genesis block: %s", failed, w.Body)
			}
			t.Logf("\t%s\tTest 2:\tShould only have the genesis block.", success)
		}

		t.Logf("\tTest 3:\tWhen checking the debug endpoints.")
		{
			w := call(lt.debug, http.MethodGet, "/debug/readiness", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 3:\tShould be ready: %d", failed, w.Code)
			}

			w = call(lt.debug, http.MethodGet, "/metrics", "")
			if !strings.Contains(w.Body.String(), "ledger_blocks_added_total 5") {
				t.Fatalf("\t%s\tTest 3:\tShould expose the block metrics.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould expose the block metrics.", success)
		}
	}
}
