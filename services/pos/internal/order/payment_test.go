package order

import (
	"errors"
	"testing"

	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/google/uuid"
)

func TestLedgerRecordCashChange(t *testing.T) {
	o := &Order{ID: uuid.New(), Total: dec("150"), BillStatus: BillUnpaid}
	l := NewLedger(o.ID, o.Total, nil)

	p, recorded, err := l.Record(PaymentInput{Amount: dec("200"), Method: "cash"}, auth.System, t0)
	if err != nil || !recorded {
		t.Fatalf("Record() = %v, %v", recorded, err)
	}
	if !p.Amount.Equal(dec("150")) || !p.Change.Equal(dec("50")) || !p.Tendered.Equal(dec("200")) {
		t.Errorf("payment = amount %s change %s tendered %s", p.Amount, p.Change, p.Tendered)
	}
	if !o.Reconcile(l, t0) || o.BillStatus != BillPaid {
		t.Errorf("bill = %s, want PAID", o.BillStatus)
	}
	if !l.Balance().IsZero() {
		t.Errorf("balance = %s, want 0", l.Balance())
	}
}

func TestLedgerRecord(t *testing.T) {
	tests := []struct {
		name     string
		prior    []string
		in       PaymentInput
		wantErr  error
		wantPaid bool
	}{
		{"partialCard", nil, PaymentInput{Amount: dec("100"), Method: "card"}, nil, false},
		{"splitCompletes", []string{"100"}, PaymentInput{Amount: dec("50"), Method: "qr"}, nil, true},
		{"cardOverpay", nil, PaymentInput{Amount: dec("151"), Method: "card"}, ErrOverpayment, false},
		{"transferExact", nil, PaymentInput{Amount: dec("150"), Method: "Transfer"}, nil, true},
		{"zeroAmount", nil, PaymentInput{Amount: dec("0"), Method: "cash"}, ErrInvalidAmount, false},
		{"negativeAmount", nil, PaymentInput{Amount: dec("-5"), Method: "cash"}, ErrInvalidAmount, false},
		{"unknownMethod", nil, PaymentInput{Amount: dec("10"), Method: "cheque"}, ErrInvalidMethod, false},
		{"alreadyPaid", []string{"150"}, PaymentInput{Amount: dec("10"), Method: "cash"}, ErrAlreadyPaid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderID := uuid.New()
			var prior []*Payment
			for _, a := range tt.prior {
				prior = append(prior, &Payment{ID: uuid.New(), OrderID: orderID, Amount: dec(a)})
			}
			l := NewLedger(orderID, dec("150"), prior)

			_, _, err := l.Record(tt.in, auth.System, t0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Record() error = %v, want %v", err, tt.wantErr)
			}
			if l.IsPaid() != tt.wantPaid {
				t.Errorf("IsPaid() = %v, want %v", l.IsPaid(), tt.wantPaid)
			}
			if l.Paid().GreaterThan(dec("150")) {
				t.Errorf("paid %s exceeds total", l.Paid())
			}
		})
	}
}

func TestLedgerRecordIsIdempotent(t *testing.T) {
	l := NewLedger(uuid.New(), dec("150"), nil)
	id := uuid.New()

	first, recorded, err := l.Record(PaymentInput{ID: id, Amount: dec("60"), Method: "cash"}, auth.System, t0)
	if err != nil || !recorded {
		t.Fatal(err)
	}
	again, recorded, err := l.Record(PaymentInput{ID: id, Amount: dec("60"), Method: "cash"}, auth.System, t0)
	if err != nil || recorded {
		t.Fatalf("replay = %v, %v", recorded, err)
	}
	if again != first || len(l.Payments()) != 1 {
		t.Error("replayed payment was recorded twice")
	}
	if !l.Balance().Equal(dec("90")) {
		t.Errorf("balance = %s, want 90", l.Balance())
	}
}

func TestReconcileFollowsLedger(t *testing.T) {
	o := &Order{ID: uuid.New(), Total: dec("80"), BillStatus: BillPaid}
	l := NewLedger(o.ID, o.Total, []*Payment{{Amount: dec("30")}})
	o.Reconcile(l, t0)
	if o.BillStatus != BillUnpaid {
		t.Errorf("bill = %s, want UNPAID", o.BillStatus)
	}
	if o.Reconcile(l, t0) {
		t.Error("second Reconcile() reported a change")
	}
}
