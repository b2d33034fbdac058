// Package contract defines the structured instructions that can be carried in
// a block payload and their canonical serialization.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/go-playground/validator/v10"
)

// Set of errors describing why a payload is not a contract.
var (
	ErrNotJSON      = errors.New("payload is not json")
	ErrInvalidShape = errors.New("payload is not a recognized contract")
)

// validate holds the settings and caches for validating contract values.
var validate = validator.New()

// =============================================================================

// Kind represents the type tag of a contract.
type Kind string

// Set of contract kinds that are understood by the ledger.
const (
	KindTransfer Kind = "transfer"
	KindMint     Kind = "mint"
	KindBurn     Kind = "burn"
	KindMessage  Kind = "message"
)

// Contract is implemented by the four contract variants. The set is closed,
// consumers are expected to type switch over Transfer, Mint, Burn and Message.
type Contract interface {
	Kind() Kind
	References(account string) bool
	Sig() string
	contract()
}

// Transfer debits the from account and credits the to account.
type Transfer struct {
	From      string `validate:"required"`
	To        string `validate:"required"`
	Amount    int64
	Signature string
}

// Mint credits the to account out of nothing.
type Mint struct {
	To        string `validate:"required"`
	Amount    int64
	Signature string
}

// Burn debits the from account into nothing.
type Burn struct {
	From      string `validate:"required"`
	Amount    int64
	Signature string
}

// Message is informational and has no balance effect.
type Message struct {
	From      string `validate:"required"`
	Text      string `validate:"required"`
	Signature string
}

func (Transfer) Kind() Kind { return KindTransfer }
func (Mint) Kind() Kind     { return KindMint }
func (Burn) Kind() Kind     { return KindBurn }
func (Message) Kind() Kind  { return KindMessage }

func (c Transfer) Sig() string { return c.Signature }
func (c Mint) Sig() string     { return c.Signature }
func (c Burn) Sig() string     { return c.Signature }
func (c Message) Sig() string  { return c.Signature }

// References reports if the account is the sender or the receiver.
func (c Transfer) References(account string) bool {
	return c.From == account || c.To == account
}

// References reports if the account is the receiver.
func (c Mint) References(account string) bool {
	return c.To == account
}

// References reports if the account is the sender.
func (c Burn) References(account string) bool {
	return c.From == account
}

// References reports if the account is the author.
func (c Message) References(account string) bool {
	return c.From == account
}

func (Transfer) contract() {}
func (Mint) contract()     {}
func (Burn) contract()     {}
func (Message) contract()  {}

// =============================================================================

// New constructs a contract of the specified kind from its parts. Fields that
// do not belong to the kind are ignored.
func New(kind Kind, from string, to string, amount int64, text string) (Contract, error) {
	r := record{
		Type: kind,
		From: from,
		To:   to,
		Text: text,
	}

	switch kind {
	case KindTransfer, KindMint, KindBurn:
		r.Amount = &amount
	}

	return r.toContract()
}

// Encode produces the canonical serialization of the contract. The keys are
// written in sorted order so the same contract always produces the same
// payload and therefore the same block hash. A contract missing a field its
// variant requires is rejected since it would not decode back.
func Encode(c Contract) (string, error) {
	r, err := toRecord(c)
	if err != nil {
		return "", err
	}

	if err := validate.Struct(c); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidShape, err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Decode parses the payload into a contract. The error wraps ErrNotJSON when
// the payload is not valid json and ErrInvalidShape when the json does not
// describe a known contract with all of its required fields.
func Decode(payload string) (Contract, error) {
	if !json.Valid([]byte(payload)) {
		return nil, ErrNotJSON
	}

	var r record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, err)
	}

	return r.toContract()
}

// Parse is Decode with the failure reasons collapsed. A payload that is not a
// contract is treated as plain data.
func Parse(payload string) (Contract, bool) {
	c, err := Decode(payload)
	if err != nil {
		return nil, false
	}

	return c, true
}

// Sign returns a copy of the contract carrying the signature produced with
// the specified shared key.
func Sign(c Contract, key string) (Contract, error) {
	r, err := toRecord(c)
	if err != nil {
		return nil, err
	}
	r.Signature = ""

	sig, err := signature.Sign(r, key)
	if err != nil {
		return nil, err
	}

	switch v := c.(type) {
	case Transfer:
		v.Signature = sig
		return v, nil
	case Mint:
		v.Signature = sig
		return v, nil
	case Burn:
		v.Signature = sig
		return v, nil
	case Message:
		v.Signature = sig
		return v, nil
	}

	return nil, fmt.Errorf("unknown contract type %T", c)
}

// Verify checks the contract signature was produced with the specified key.
// The ledger itself never consults this when applying contracts.
func Verify(c Contract, key string) bool {
	if c.Sig() == "" {
		return false
	}

	r, err := toRecord(c)
	if err != nil {
		return false
	}
	r.Signature = ""

	return signature.Verify(r, key, c.Sig())
}

// Describe returns a human readable description of the contract.
func Describe(c Contract) string {
	switch v := c.(type) {
	case Transfer:
		return fmt.Sprintf("transfer %d from %s to %s", v.Amount, v.From, v.To)
	case Mint:
		return fmt.Sprintf("mint %d to %s", v.Amount, v.To)
	case Burn:
		return fmt.Sprintf("burn %d from %s", v.Amount, v.From)
	case Message:
		return fmt.Sprintf("message from %s: %q", v.From, v.Text)
	}

	return "unknown contract"
}

// =============================================================================

// record is the wire form of a contract. Fields are declared in sorted key
// order since encoding/json writes them in declaration order.
type record struct {
	Amount    *int64 `json:"amount,omitempty"`
	From      string `json:"from,omitempty"`
	Signature string `json:"signature,omitempty"`
	Text      string `json:"text,omitempty"`
	To        string `json:"to,omitempty"`
	Type      Kind   `json:"type" validate:"required,oneof=transfer mint burn message"`
}

// toContract converts the wire form into its variant, checking the fields
// required by that variant are present.
func (r record) toContract() (Contract, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, err)
	}

	var c Contract
	switch r.Type {
	case KindTransfer:
		if r.Amount == nil {
			return nil, fmt.Errorf("%w: transfer requires an amount", ErrInvalidShape)
		}
		c = Transfer{From: r.From, To: r.To, Amount: *r.Amount, Signature: r.Signature}

	case KindMint:
		if r.Amount == nil {
			return nil, fmt.Errorf("%w: mint requires an amount", ErrInvalidShape)
		}
		c = Mint{To: r.To, Amount: *r.Amount, Signature: r.Signature}

	case KindBurn:
		if r.Amount == nil {
			return nil, fmt.Errorf("%w: burn requires an amount", ErrInvalidShape)
		}
		c = Burn{From: r.From, Amount: *r.Amount, Signature: r.Signature}

	case KindMessage:
		c = Message{From: r.From, Text: r.Text, Signature: r.Signature}
	}

	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, err)
	}

	return c, nil
}

// toRecord converts a variant into its wire form.
func toRecord(c Contract) (record, error) {
	switch v := c.(type) {
	case Transfer:
		return record{Type: KindTransfer, From: v.From, To: v.To, Amount: &v.Amount, Signature: v.Signature}, nil
	case Mint:
		return record{Type: KindMint, To: v.To, Amount: &v.Amount, Signature: v.Signature}, nil
	case Burn:
		return record{Type: KindBurn, From: v.From, Amount: &v.Amount, Signature: v.Signature}, nil
	case Message:
		return record{Type: KindMessage, From: v.From, Text: v.Text, Signature: v.Signature}, nil
	}

	return record{}, fmt.Errorf("unknown contract type %T", c)
}
