package contract_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEncode(t *testing.T) {
	type table struct {
		name     string
		contract contract.Contract
		payload  string
	}

	tt := []table{
		{
			name:     "transfer",
			contract: contract.Transfer{From: "alice", To: "bob", Amount: 30},
			payload:  `{"amount":30,"from":"alice","to":"bob","type":"transfer"}`,
		},
		{
			name:     "mint",
			contract: contract.Mint{To: "alice", Amount: 100},
			payload:  `{"amount":100,"to":"alice","type":"mint"}`,
		},
		{
			name:     "burn",
			contract: contract.Burn{From: "bob", Amount: 10},
			payload:  `{"amount":10,"from":"bob","type":"burn"}`,
		},
		{
			name:     "message",
			contract: contract.Message{From: "alice", Text: "hi"},
			payload:  `{"from":"alice","text":"hi","type":"message"}`,
		},
		{
			name:     "zero",
			contract: contract.Mint{To: "alice"},
			payload:  `{"amount":0,"to":"alice","type":"mint"}`,
		},
	}

	t.Log("Given the need to encode contracts canonically.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s contract.", testID, tst.name)
				{
					payload, err := contract.Encode(tst.contract)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to encode the contract: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to encode the contract.", success, testID)

					if payload != tst.payload {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, payload)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.payload)
						t.Fatalf("\t%s\tTest %d:\tShould get back the canonical payload.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the canonical payload.", success, testID)

					c, err := contract.Decode(payload)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to decode the payload: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to decode the payload.", success, testID)

					if c != tst.contract {
						t.Logf("\t%s\tTest %d:\tgot: %#v", failed, testID, c)
						t.Logf("\t%s\tTest %d:\texp: %#v", failed, testID, tst.contract)
						t.Fatalf("\t%s\tTest %d:\tShould get back the same contract.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the same contract.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestDecodeFailures(t *testing.T) {
	type table struct {
		name    string
		payload string
		err     error
	}

	tt := []table{
		{name: "text", payload: "hello world", err: contract.ErrNotJSON},
		{name: "empty", payload: "", err: contract.ErrNotJSON},
		{name: "array", payload: `[1,2,3]`, err: contract.ErrInvalidShape},
		{name: "number", payload: `42`, err: contract.ErrInvalidShape},
		{name: "untyped", payload: `{"from":"alice","to":"bob","amount":1}`, err: contract.ErrInvalidShape},
		{name: "unknown", payload: `{"type":"swap","from":"alice","to":"bob","amount":1}`, err: contract.ErrInvalidShape},
		{name: "transfer-no-amount", payload: `{"type":"transfer","from":"alice","to":"bob"}`, err: contract.ErrInvalidShape},
		{name: "transfer-no-to", payload: `{"type":"transfer","from":"alice","amount":5}`, err: contract.ErrInvalidShape},
		{name: "mint-no-to", payload: `{"type":"mint","amount":5}`, err: contract.ErrInvalidShape},
		{name: "burn-no-from", payload: `{"type":"burn","amount":5}`, err: contract.ErrInvalidShape},
		{name: "message-no-text", payload: `{"type":"message","from":"alice"}`, err: contract.ErrInvalidShape},
		{name: "string-amount", payload: `{"type":"mint","to":"alice","amount":"5"}`, err: contract.ErrInvalidShape},
		{name: "float-amount", payload: `{"type":"mint","to":"alice","amount":1.5}`, err: contract.ErrInvalidShape},
	}

	t.Log("Given the need to reject payloads that are not contracts.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling payload %q.", testID, tst.payload)
				{
					_, err := contract.Decode(tst.payload)
					if !errors.Is(err, tst.err) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right decode error.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right decode error.", success, testID)

					if _, ok := contract.Parse(tst.payload); ok {
						t.Fatalf("\t%s\tTest %d:\tShould not parse as a contract.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not parse as a contract.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestDecodeIgnoresExtraFields(t *testing.T) {
	payload := `{"type":"mint","to":"alice","amount":7,"from":"ignored","memo":"x"}`

	c, err := contract.Decode(payload)
	if err != nil {
		t.Fatalf("Should be able to decode a contract with extra fields: %s", err)
	}

	exp := contract.Mint{To: "alice", Amount: 7}
	if c != exp {
		t.Logf("got: %#v", c)
		t.Logf("exp: %#v", exp)
		t.Fatalf("Should get back the mint contract.")
	}
}

func TestNew(t *testing.T) {
	c, err := contract.New(contract.KindTransfer, "alice", "bob", 30, "")
	if err != nil {
		t.Fatalf("Should be able to construct a transfer: %s", err)
	}

	if exp := (contract.Transfer{From: "alice", To: "bob", Amount: 30}); c != exp {
		t.Fatalf("Should get back the transfer, got %#v", c)
	}

	if _, err := contract.New(contract.KindTransfer, "alice", "", 30, ""); !errors.Is(err, contract.ErrInvalidShape) {
		t.Fatalf("Should not construct a transfer without a receiver: %v", err)
	}

	if _, err := contract.New("swap", "alice", "bob", 30, ""); !errors.Is(err, contract.ErrInvalidShape) {
		t.Fatalf("Should not construct an unknown contract kind: %v", err)
	}

	if _, err := contract.Encode(contract.Burn{Amount: 3}); !errors.Is(err, contract.ErrInvalidShape) {
		t.Fatalf("Should not encode a burn without a sender: %v", err)
	}
}

func TestSignature(t *testing.T) {
	c := contract.Transfer{From: "alice", To: "bob", Amount: 30}

	signed, err := contract.Sign(c, signature.DefaultKey)
	if err != nil {
		t.Fatalf("Should be able to sign the contract: %s", err)
	}

	if signed.Sig() == "" {
		t.Fatalf("Should get back a signature.")
	}

	if !contract.Verify(signed, signature.DefaultKey) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if contract.Verify(c, signature.DefaultKey) {
		t.Fatalf("Should not verify an unsigned contract.")
	}

	tampered := signed.(contract.Transfer)
	tampered.Amount = 3000
	if contract.Verify(tampered, signature.DefaultKey) {
		t.Fatalf("Should not verify a contract changed after signing.")
	}

	payload, err := contract.Encode(signed)
	if err != nil {
		t.Fatalf("Should be able to encode the signed contract: %s", err)
	}

	decoded, err := contract.Decode(payload)
	if err != nil {
		t.Fatalf("Should be able to decode the signed contract: %s", err)
	}

	if decoded != signed {
		t.Logf("got: %#v", decoded)
		t.Logf("exp: %#v", signed)
		t.Fatalf("Should keep the signature through encoding.")
	}
}

func TestReferences(t *testing.T) {
	type table struct {
		contract contract.Contract
		account  string
		exp      bool
	}

	tt := []table{
		{contract.Transfer{From: "alice", To: "bob", Amount: 1}, "alice", true},
		{contract.Transfer{From: "alice", To: "bob", Amount: 1}, "bob", true},
		{contract.Transfer{From: "alice", To: "bob", Amount: 1}, "carol", false},
		{contract.Mint{To: "alice", Amount: 1}, "alice", true},
		{contract.Mint{To: "alice", Amount: 1}, "bob", false},
		{contract.Burn{From: "bob", Amount: 1}, "bob", true},
		{contract.Burn{From: "bob", Amount: 1}, "alice", false},
		{contract.Message{From: "alice", Text: "hi"}, "alice", true},
		{contract.Message{From: "alice", Text: "bob"}, "bob", false},
	}

	for i, tst := range tt {
		if got := tst.contract.References(tst.account); got != tst.exp {
			t.Errorf("Test %d: Should get %v for %s in %s, got %v", i, tst.exp, tst.account, contract.Describe(tst.contract), got)
		}
	}
}
