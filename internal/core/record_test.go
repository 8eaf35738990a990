package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRecord(t *testing.T) {
	good := Record{
		ID:       "e1",
		Title:    "Lunch",
		Amount:   12.5,
		Category: "Food",
		Date:     "2025-03-04",
		Notes:    "with team",
		UserID:   "u1",
	}
	e, err := ParseRecord(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Amount.Cents != 1250 || e.Date.String() != "2025-03-04" || e.Notes != "with team" {
		t.Fatalf("unexpected expense: %+v", e)
	}

	cases := map[string]func(r *Record){
		"missing id":      func(r *Record) { r.ID = nil },
		"numeric title":   func(r *Record) { r.Title = 5.0 },
		"text amount":     func(r *Record) { r.Amount = "lots" },
		"negative amount": func(r *Record) { r.Amount = -3.0 },
		"nil amount":      func(r *Record) { r.Amount = nil },
		"bad date":        func(r *Record) { r.Date = "03/04/2025" },
		"numeric date":    func(r *Record) { r.Date = 20250304.0 },
		"list category":   func(r *Record) { r.Category = []any{"Food"} },
		"missing owner":   func(r *Record) { r.UserID = "" },
	}
	for name, mutate := range cases {
		r := good
		mutate(&r)
		_, err := ParseRecord(r)
		var re *RecordError
		if !errors.As(err, &re) {
			t.Fatalf("%s: expected RecordError, got %v", name, err)
		}
	}
}

func TestParseRecord_AmountForms(t *testing.T) {
	for _, v := range []any{"7.25", json.Number("7.25"), 7.25} {
		r := Record{ID: "x", Title: "t", Amount: v, Category: "Other", Date: "2025-01-01", UserID: "u"}
		e, err := ParseRecord(r)
		if err != nil || e.Amount.Cents != 725 {
			t.Fatalf("%T %v: got %d, %v", v, v, e.Amount.Cents, err)
		}
	}
}

func TestParseRecord_StringAmountsAreExact(t *testing.T) {
	parse := func(v any) (Money, error) {
		e, err := ParseRecord(Record{ID: "x", Title: "t", Amount: v, Category: "Other", Date: "2025-01-01", UserID: "u"})
		return e.Amount, err
	}

	for _, tc := range []struct {
		in   any
		want int64
	}{
		{"0.1", 10},
		{" 12.345 ", 1235},
		{"0", 0},
		{"70368744177.64", 7036874417764},
		{json.Number("1e3"), 100000},
	} {
		got, err := parse(tc.in)
		if err != nil || got.Cents != tc.want {
			t.Fatalf("%T %q: got %d, %v; want %d", tc.in, tc.in, got.Cents, err, tc.want)
		}
	}

	for _, in := range []any{"1e3", " +5", "-1", "0x10", "Inf", "1.2.3", "", json.Number("-2")} {
		if _, err := parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%T %q: err = %v, want ErrInvalidAmount", in, in, err)
		}
	}
}

func TestQuarantine(t *testing.T) {
	records := []Record{
		{ID: "1", Title: "a", Amount: 1.0, Category: "Food", Date: "2025-02-01", UserID: "u"},
		{ID: "2", Title: "b", Amount: "NaN?", Category: "Food", Date: "2025-01-31", UserID: "u"},
		{ID: "3", Title: "c", Amount: 2.0, Category: "Rent", Date: "2025-01-30", UserID: "u"},
	}
	var rejected []string
	got := Quarantine(records, func(r Record, err error) {
		rejected = append(rejected, r.ID.(string))
	})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("kept = %+v", got)
	}
	if len(rejected) != 1 || rejected[0] != "2" {
		t.Fatalf("rejected = %v", rejected)
	}
}

func TestToRecordRoundTrip(t *testing.T) {
	e := exp("r", 4321, "Utilities", 2025, 6, 30)
	e.Notes = "power"
	back, err := ParseRecord(e.ToRecord())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.ID != e.ID || back.Amount != e.Amount || !back.Date.Equal(e.Date.Time) || back.Notes != e.Notes {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, e)
	}
}
