package pricing

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nullDec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func TestCalculateReferenceTable(t *testing.T) {
	table := Calculate(Input{
		Base6ml:             dec("1000"),
		DiscountPercentages: DiscountPercentages{Base: nullDec("10")},
	})
	if table == nil {
		t.Fatalf("expected table")
	}

	cases := []struct {
		label      string
		original   string
		discounted string
	}{
		{"3", "700", ""},
		{"6", "1000", "900"},
		{"12", "1350", ""},
	}
	for _, tc := range cases {
		got, ok := table[tc.label]
		if !ok {
			t.Fatalf("missing size %s", tc.label)
		}
		if !got.Original.Equal(dec(tc.original)) {
			t.Fatalf("size %s original: want %s got %s", tc.label, tc.original, got.Original)
		}
		if tc.discounted == "" {
			if got.Discounted != nil {
				t.Fatalf("size %s: expected no discount, got %s", tc.label, got.Discounted)
			}
			continue
		}
		if got.Discounted == nil || !got.Discounted.Equal(dec(tc.discounted)) {
			t.Fatalf("size %s discounted: want %s got %v", tc.label, tc.discounted, got.Discounted)
		}
	}
}

func TestCalculateMissingBase(t *testing.T) {
	if Calculate(Input{}) != nil {
		t.Fatalf("expected nil table without base price")
	}
}

func TestCalculateRoundsEachStageHalfUp(t *testing.T) {
	// 3ml: 555 - 30% = 388.5 -> 389; discount 15% on 389 = 330.65 -> 331
	table := Calculate(Input{
		Base6ml: dec("555"),
		DiscountPercentages: DiscountPercentages{
			Size3: nullDec("15"),
		},
	})
	p3 := table["3"]
	if !p3.Original.Equal(dec("389")) {
		t.Fatalf("expected 389, got %s", p3.Original)
	}
	if p3.Discounted == nil || !p3.Discounted.Equal(dec("331")) {
		t.Fatalf("expected 331, got %v", p3.Discounted)
	}
}

func TestCalculateCustomPercentages(t *testing.T) {
	table := Calculate(Input{
		Base6ml:         dec("200"),
		SizePercentages: &SizePercentages{Size3: dec("-50"), Size12: dec("100")},
	})
	if !table["3"].Original.Equal(dec("100")) || !table["12"].Original.Equal(dec("400")) {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestCalculateDeterministicAndDiscountNotAboveOriginal(t *testing.T) {
	in := Input{
		Base6ml:         dec("777"),
		SizePercentages: &SizePercentages{Size3: dec("-33"), Size12: dec("41")},
		DiscountPercentages: DiscountPercentages{
			Base:   nullDec("7.5"),
			Size3:  nullDec("0"),
			Size12: nullDec("99"),
		},
	}
	first := Calculate(in)
	second := Calculate(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic output")
	}
	for label, p := range first {
		if p.Discounted != nil && p.Discounted.GreaterThan(p.Original) {
			t.Fatalf("size %s: discounted %s above original %s", label, p.Discounted, p.Original)
		}
	}
}

func TestTableLookupAndEffective(t *testing.T) {
	table := Calculate(Input{
		Base6ml:             dec("500"),
		DiscountPercentages: DiscountPercentages{Base: nullDec("20")},
	})
	p, ok := table.Lookup(Size6ml)
	if !ok || !p.Effective().Equal(dec("400")) {
		t.Fatalf("expected effective 400, got %v ok=%v", p.Effective(), ok)
	}
	p12, _ := table.Lookup(Size12ml)
	if !p12.Effective().Equal(p12.Original) {
		t.Fatalf("expected original price without discount")
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]int{"6ml": 6, "3": 3, " 12 ML ": 12}
	for in, want := range cases {
		got, ok := ParseSize(in)
		if !ok || got != want {
			t.Fatalf("ParseSize(%q) = %d,%v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "manual", "5ml", "ml"} {
		if _, ok := ParseSize(bad); ok {
			t.Fatalf("ParseSize(%q) should fail", bad)
		}
	}
}
