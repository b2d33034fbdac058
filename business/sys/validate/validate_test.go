package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/business/sys/validate"
)

type newContract struct {
	Type   string `json:"type" validate:"required,oneof=transfer mint burn message"`
	From   string `json:"from"`
	Amount int64  `json:"amount"`
}

func TestCheck(t *testing.T) {
	if err := validate.Check(newContract{Type: "mint"}); err != nil {
		t.Fatalf("Should be able to validate a good model: %s", err)
	}

	err := validate.Check(newContract{Type: "steal"})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get back field errors for a bad model: %v", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	if _, exists := fields["type"]; !exists {
		t.Fatalf("Should get back the json name of the failing field: %v", fields)
	}
}
