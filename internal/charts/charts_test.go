package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"trackex/internal/core"
)

func TestCategoryPie(t *testing.T) {
	var buf bytes.Buffer
	cats := []core.CategoryAmount{
		{Name: "Food", Color: "#EF4444", Amount: core.Money{Cents: 3000}},
		{Name: "Rent", Color: "#3B82F6", Amount: core.Money{Cents: 90000}},
		{Name: "Other", Color: "#8B5CF6", Amount: core.Money{}},
	}
	if err := CategoryPie(&buf, cats, DefaultWidth, DefaultHeight); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("output is not svg")
	}
}

func TestCategoryPieEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := CategoryPie(&buf, []core.CategoryAmount{{Name: "Food", Amount: core.Money{}}}, DefaultWidth, DefaultHeight)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestTrendLine(t *testing.T) {
	var buf bytes.Buffer
	trend := []core.MonthlyAmount{
		{Month: "Feb 2025", Amount: core.Money{Cents: 1000}},
		{Month: "Jan 2025", Amount: core.Money{Cents: 1000}},
	}
	if err := TrendLine(&buf, trend, DefaultWidth, DefaultHeight); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("output is not svg")
	}
}

func TestTrendLineNeedsTwoPoints(t *testing.T) {
	var buf bytes.Buffer
	err := TrendLine(&buf, []core.MonthlyAmount{{Month: "Jan 2025"}}, DefaultWidth, DefaultHeight)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestColorOfFallback(t *testing.T) {
	if colorOf("") != colorOf(core.FallbackColor) {
		t.Fatalf("empty color should use the fallback")
	}
}
