package cryptotax

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/oracle"
	"github.com/shopspring/decimal"
)

func TestEngine_Process(t *testing.T) {
	// Acquire 1.0 BTC at 100,000,000 then 0.5 BTC at 120,000,000, and
	// dispose 1.2 BTC at 150,000,000.
	events := []Event{
		acquire(1, "bitcoin", "2024-01-01", "1.0", "100000000"),
		acquire(2, "bitcoin", "2024-01-05", "0.5", "120000000"),
		dispose(3, "bitcoin", "2024-01-10", "1.2", "150000000"),
	}
	var e Engine
	report := e.Process(context.Background(), events)
	if err := report.Err(); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if report.Currency != "UGX" {
		t.Errorf("Currency = %q, want UGX", report.Currency)
	}
	if len(report.Realizations) != 1 {
		t.Fatalf("Realizations len = %d, want 1", len(report.Realizations))
	}
	r := report.Realizations[0]
	if r.DisposalID != 3 {
		t.Errorf("DisposalID = %d, want 3", r.DisposalID)
	}
	assertDecimal(t, "CostBasis", r.CostBasis, "124000000")
	assertDecimal(t, "Proceeds", r.Proceeds, "180000000")
	assertDecimal(t, "Gain", r.Gain, "56000000")

	if len(r.Matches) != 2 {
		t.Fatalf("Matches len = %d, want 2", len(r.Matches))
	}
	assertDecimal(t, "Matches[0].Quantity", r.Matches[0].Quantity, "1")
	assertDecimal(t, "Matches[0].Cost()", r.Matches[0].Cost(), "100000000")
	assertDecimal(t, "Matches[1].Quantity", r.Matches[1].Quantity, "0.2")
	assertDecimal(t, "Matches[1].Cost()", r.Matches[1].Cost(), "24000000")

	open := report.Lots["bitcoin"]
	if len(open) != 1 {
		t.Fatalf("open lots = %d, want 1", len(open))
	}
	if open[0].AcquisitionID != 2 {
		t.Errorf("open lot acquisition = %d, want 2", open[0].AcquisitionID)
	}
	assertDecimal(t, "Remaining", open[0].Remaining, "0.3")
	assertDecimal(t, "UnitCost", open[0].UnitCost, "120000000")
	assertDecimal(t, "Cost()", open[0].Cost(), "36000000")
}

func TestEngine_FIFOCostBasis(t *testing.T) {
	tests := []struct {
		name     string
		dispose  string
		wantCost string
		wantLots int
	}{
		{"within first lot", "2", "20", 3},
		{"exactly first lot", "3", "30", 2},
		{"across lots", "4", "50", 2},
		{"everything", "6", "110", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []Event{
				acquire(1, "eth", "2024-01-01", "3", "10"),
				acquire(2, "eth", "2024-01-02", "2", "20"),
				acquire(3, "eth", "2024-01-03", "1", "40"),
				dispose(4, "eth", "2024-01-04", tt.dispose, "50"),
			}
			report := (&Engine{}).Process(context.Background(), events)
			if err := report.Err(); err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			assertDecimal(t, "CostBasis", report.Realizations[0].CostBasis, tt.wantCost)
			if got := len(report.Lots["eth"]); got != tt.wantLots {
				t.Errorf("open lots = %d, want %d", got, tt.wantLots)
			}
		})
	}
}

func TestEngine_InsufficientLots(t *testing.T) {
	events := []Event{
		acquire(1, "eth", "2024-01-01", "1", "10"),
		dispose(2, "eth", "2024-01-02", "0.4", "20"),
		acquire(3, "eth", "2024-01-03", "1", "30"),
		dispose(4, "eth", "2024-01-04", "2", "40"),
		acquire(5, "eth", "2024-01-05", "10", "50"),
	}
	report := (&Engine{}).Process(context.Background(), events)

	var ierr *InsufficientLotError
	if !errors.As(report.Err(), &ierr) {
		t.Fatalf("Process() error = %v, want an InsufficientLotError", report.Err())
	}
	if ierr.EventID != 4 || ierr.Asset != "eth" || ierr.Date != day("2024-01-04") {
		t.Errorf("error does not name the disposal: %+v", ierr)
	}
	assertDecimal(t, "Requested", ierr.Requested, "2")
	assertDecimal(t, "Available", ierr.Available, "1.6")
	assertDecimal(t, "Shortfall()", ierr.Shortfall(), "0.4")

	// the first disposal is kept, the failing one consumed nothing and
	// processing stopped there.
	if len(report.Realizations) != 1 || report.Realizations[0].DisposalID != 2 {
		t.Errorf("Realizations = %+v, want only the first disposal", report.Realizations)
	}
	open := report.Lots["eth"]
	if len(open) != 2 {
		t.Fatalf("open lots = %d, want 2", len(open))
	}
	assertDecimal(t, "lot 1 Remaining", open[0].Remaining, "0.6")
	assertDecimal(t, "lot 3 Remaining", open[1].Remaining, "1")
}

func TestLots_InsufficientLeavesQueueUnchanged(t *testing.T) {
	q := lots{
		{AcquisitionID: 1, Remaining: dec("1"), UnitCost: dec("10")},
		{AcquisitionID: 2, Remaining: dec("2"), UnitCost: dec("20")},
	}
	before := append(lots(nil), q...)
	report := (&Engine{}).Process(context.Background(), []Event{
		acquire(1, "a", "2024-01-01", "1", "10"),
		acquire(2, "a", "2024-01-02", "2", "20"),
		dispose(3, "a", "2024-01-03", "3.5", "1"),
	})
	if report.Err() == nil {
		t.Fatal("Process() expected an error")
	}
	got := report.Lots["a"]
	if len(got) != len(before) {
		t.Fatalf("open lots = %d, want %d", len(got), len(before))
	}
	for i := range before {
		if !got[i].Remaining.Equal(before[i].Remaining) || got[i].AcquisitionID != before[i].AcquisitionID {
			t.Errorf("lot %d = %+v, want %+v", i, got[i], before[i])
		}
	}

	// consume never touches the lots it was given.
	matches := q.consume(dec("1.5"))
	if len(matches) != 2 || len(q) != 1 {
		t.Fatalf("consume() matches = %d lots = %d, want 2 and 1", len(matches), len(q))
	}
	assertDecimal(t, "before[1].Remaining", before[1].Remaining, "2")
	assertDecimal(t, "q[0].Remaining", q[0].Remaining, "1.5")
}

func TestEngine_Idempotent(t *testing.T) {
	events := []Event{
		acquire(1, "bitcoin", "2024-01-01", "1", ""),
		acquire(2, "ethereum", "2024-01-01", "3", "10"),
		dispose(3, "bitcoin", "2024-02-01", "0.25", ""),
		dispose(4, "ethereum", "2024-02-01", "1", "12"),
	}
	var prices oracle.Table
	prices.Set("bitcoin", day("2024-01-01"), "UGX", dec("100"))
	prices.Set("bitcoin", day("2024-02-01"), "UGX", dec("140"))

	e := Engine{Oracle: &prices, Parallelism: 4}
	first := e.Process(context.Background(), events)
	second := e.Process(context.Background(), events)
	if first.Err() != nil {
		t.Fatalf("Process() error = %v", first.Err())
	}
	if !reflect.DeepEqual(first.Realizations, second.Realizations) {
		t.Errorf("Process() is not idempotent:\n%+v\n%+v", first.Realizations, second.Realizations)
	}
	if !reflect.DeepEqual(first.Lots, second.Lots) {
		t.Errorf("Process() lots differ:\n%+v\n%+v", first.Lots, second.Lots)
	}
	if events[0].Valuation.Valid {
		t.Error("Process() modified its input events")
	}
	assertDecimal(t, "bitcoin gain", first.Realizations[0].Gain, "10")
}

func TestEngine_OracleFailureIsolation(t *testing.T) {
	var calls atomic.Int32
	failing := oracle.Func(func(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
		calls.Add(1)
		return decimal.Zero, &oracle.Error{Kind: oracle.Unreachable, Asset: asset, Date: on, Currency: currency}
	})
	events := []Event{
		acquire(1, "dogecoin", "2024-01-01", "100", ""), // needs the oracle
		acquire(2, "bitcoin", "2024-01-01", "1", "100"),
		dispose(3, "dogecoin", "2024-01-02", "50", "2"),
		dispose(4, "bitcoin", "2024-01-03", "1", "150"),
	}
	report := (&Engine{Oracle: failing, Parallelism: 2}).Process(context.Background(), events)

	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", report.Errors)
	}
	aerr := report.Errors[0]
	if aerr.Asset != "dogecoin" {
		t.Errorf("failing asset = %q, want dogecoin", aerr.Asset)
	}
	var perr *PricingError
	if !errors.As(aerr, &perr) || perr.EventID != 1 {
		t.Errorf("error = %v, want a PricingError on event 1", aerr)
	}
	if !errors.Is(report.Err(), oracle.ErrUnreachable) {
		t.Errorf("error does not wrap the oracle failure: %v", report.Err())
	}
	if id, ok := EventIDOf(aerr); !ok || id != 1 {
		t.Errorf("EventIDOf() = %d, %v, want 1", id, ok)
	}

	if len(report.Realizations) != 1 || report.Realizations[0].DisposalID != 4 {
		t.Fatalf("Realizations = %+v, want the bitcoin disposal", report.Realizations)
	}
	assertDecimal(t, "bitcoin gain", report.Realizations[0].Gain, "50")
	if calls.Load() != 1 {
		t.Errorf("oracle calls = %d, want 1", calls.Load())
	}
}

func TestEngine_NoOracle(t *testing.T) {
	report := (&Engine{}).Process(context.Background(), []Event{acquire(1, "bitcoin", "2024-01-01", "1", "")})
	var perr *PricingError
	if !errors.As(report.Err(), &perr) {
		t.Errorf("Process() error = %v, want a PricingError", report.Err())
	}
}

func TestEngine_OrderingAndReceipts(t *testing.T) {
	events := []Event{
		// same day: the acquisition recorded first is consumed first.
		acquire(5, "sol", "2024-03-01", "1", "30"),
		acquire(2, "sol", "2024-03-01", "1", "10"),
		dispose(1, "sol", "2024-03-02", "1", "50"),
		{ID: 3, Category: Staking, Kind: Receipt, Asset: "sol", Quantity: dec("100"), Date: day("2024-01-01"), Details: StakingDetails{}},
		acquire(4, "sol", "2024-03-03", "0", "1"),
		acquire(6, "ada", "2024-01-01", "1", "1"),
	}
	report := (&Engine{Parallelism: 8}).Process(context.Background(), events)
	if err := report.Err(); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	r := report.Realizations[0]
	if r.Matches[0].AcquisitionID != 2 {
		t.Errorf("first matched lot = %d, want 2", r.Matches[0].AcquisitionID)
	}
	assertDecimal(t, "Gain", r.Gain, "40")
	if got := len(report.Lots["sol"]); got != 1 {
		t.Errorf("open sol lots = %d, want 1 (receipts and empty acquisitions open none)", got)
	}
	if got := len(report.Lots["ada"]); got != 1 {
		t.Errorf("open ada lots = %d, want 1", got)
	}
}

func TestEngine_DeterministicOrder(t *testing.T) {
	var events []Event
	assets := []string{"a", "b", "c", "d", "e", "f"}
	id := EventID(1)
	for _, a := range assets {
		events = append(events, acquire(id, a, "2024-01-01", "2", "1"))
		id++
	}
	for _, a := range assets {
		events = append(events, dispose(id, a, "2024-01-02", "1", "2"))
		id++
		events = append(events, dispose(id, a, "2024-01-03", "1", "3"))
		id++
	}
	report := (&Engine{Parallelism: 3}).Process(context.Background(), events)
	var got []string
	for _, r := range report.Realizations {
		got = append(got, r.Asset+r.Date.String())
	}
	var want []string
	for _, a := range assets {
		want = append(want, a+"2024-01-02", a+"2024-01-03")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Realizations order = %v, want %v", got, want)
	}
}

func TestReport_Within(t *testing.T) {
	events := []Event{
		acquire(1, "bitcoin", "2023-06-01", "2", "100"),
		dispose(2, "bitcoin", "2023-12-31", "1", "150"),
		dispose(3, "bitcoin", "2024-01-01", "0.5", "200"),
	}
	var e Engine
	report := e.Process(context.Background(), events)
	got := report.Within(date.Year(2024))
	if len(got.Realizations) != 1 || got.Realizations[0].DisposalID != 3 {
		t.Fatalf("Within(2024) realizations = %+v, want only #3", got.Realizations)
	}
	if len(report.Realizations) != 2 {
		t.Errorf("Within() modified the report: %d realizations left", len(report.Realizations))
	}
	assertDecimal(t, "Remaining", got.Lots["bitcoin"][0].Remaining, "0.5")
}

func TestProcess_DeclaredTotals(t *testing.T) {
	// declared values that do not divide evenly by the quantity are kept
	// exact in proceeds and cost basis.
	valued := func(id EventID, kind Kind, typ TradeType, qty, value string) Event {
		return Event{ID: id, Category: Trading, Kind: kind, Asset: "sol", Quantity: dec(qty), Date: day("2024-03-01"),
			Details: TradingDetails{Type: typ, Value: nd(value)}}
	}

	report := (&Engine{}).Process(context.Background(), []Event{
		valued(1, Acquisition, Buy, "3", "300"),
		valued(2, Disposal, Sell, "3", "100"),
	})
	if err := report.Err(); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	r := report.Realizations[0]
	assertDecimal(t, "Proceeds", r.Proceeds, "100")
	assertDecimal(t, "CostBasis", r.CostBasis, "300")
	assertDecimal(t, "Gain", r.Gain, "-200")

	// a lot consumed in two steps charges its whole declared cost.
	report = (&Engine{}).Process(context.Background(), []Event{
		valued(1, Acquisition, Buy, "3", "100"),
		valued(2, Disposal, Sell, "1", "50"),
		valued(3, Disposal, Sell, "2", "100"),
	})
	if err := report.Err(); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(report.Realizations) != 2 {
		t.Fatalf("Realizations = %d, want 2", len(report.Realizations))
	}
	total := report.Realizations[0].CostBasis.Add(report.Realizations[1].CostBasis)
	assertDecimal(t, "total CostBasis", total, "100")
	assertDecimal(t, "second Proceeds", report.Realizations[1].Proceeds, "100")
	if len(report.Lots["sol"]) != 0 {
		t.Errorf("open lots = %+v, want none", report.Lots["sol"])
	}
}
