package matching

import (
	"reflect"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestScoreStrongMatch(t *testing.T) {
	lost := Input{
		ItemName:    "Black wallet with student ID",
		Description: "Leather wallet, lost near the cafeteria",
		CategoryID:  2,
		LocationID:  5,
		Date:        date("2026-01-28"),
	}
	found := Input{
		ItemName:    "Black Wallet",
		Description: "Handed in at the cafeteria counter",
		CategoryID:  2,
		LocationID:  5,
		Date:        date("2026-01-29"),
	}

	res := Score(lost, found)
	if res.Score < 40 {
		t.Errorf("expected strong score >= 40, got %v", res.Score)
	}
	if len(res.Reasons) == 0 || res.Reasons[0] != "Same category" {
		t.Errorf("expected 'Same category' as top reason, got %v", res.Reasons)
	}
}

func TestScoreDeterministic(t *testing.T) {
	lost := Input{ItemName: "Blue umbrella", Description: "small folding umbrella", CategoryID: 1, LocationID: 2, Date: date("2026-02-01")}
	found := Input{ItemName: "Folding umbrella", Description: "blue, left in lecture hall", CategoryID: 1, LocationID: 3, Date: date("2026-02-04")}

	first := Score(lost, found)
	for range 10 {
		again := Score(lost, found)
		if again.Score != first.Score {
			t.Fatalf("score not deterministic: %v vs %v", again.Score, first.Score)
		}
		if !reflect.DeepEqual(again.Reasons, first.Reasons) {
			t.Fatalf("reasons not deterministic: %v vs %v", again.Reasons, first.Reasons)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []struct{ lost, found Input }{
		{Input{}, Input{}},
		{
			Input{ItemName: "Phone", CategoryID: 1, LocationID: 1, Date: date("2026-01-01")},
			Input{ItemName: "Phone", CategoryID: 1, LocationID: 1, Date: date("2026-01-01")},
		},
		{
			Input{ItemName: "Keys", CategoryID: 9, LocationID: 9, Date: date("2026-01-01")},
			Input{ItemName: "Jacket", CategoryID: 3, LocationID: 4, Date: date("2026-06-01")},
		},
	}
	for i, in := range inputs {
		res := Score(in.lost, in.found)
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("case %d: score %v out of bounds", i, res.Score)
		}
	}
}

func TestScoreZeroIDsNeverMatch(t *testing.T) {
	lost := Input{ItemName: "Scarf", Date: date("2026-01-01")}
	found := Input{ItemName: "Hat", Date: date("2026-01-01")}

	res := Score(lost, found)
	for _, r := range res.Reasons {
		if r == "Same category" || r == "Same location" {
			t.Errorf("zero ids must not match, got reason %q", r)
		}
	}
}

func TestScoreIdenticalInputs(t *testing.T) {
	lost := Input{ItemName: "Calculator", CategoryID: 1, LocationID: 1, Date: date("2026-01-01")}
	found := Input{ItemName: "Calculator", CategoryID: 1, LocationID: 1, Date: date("2026-01-01")}

	res := Score(lost, found)
	// 40 + 25 + 15 + keyword overlap (full ratio, capped at 20).
	if res.Score != 100 {
		t.Errorf("expected 100 for identical inputs, got %v", res.Score)
	}
}

func TestScoreEmptyDescriptionContributesZero(t *testing.T) {
	lost := Input{ItemName: "", Description: "", CategoryID: 1, LocationID: 2, Date: date("2026-01-01")}
	found := Input{ItemName: "Calculator", CategoryID: 1, LocationID: 9, Date: date("2026-06-01")}

	res := Score(lost, found)
	if res.Score != 40 {
		t.Errorf("expected only the category weight, got %v", res.Score)
	}
}

func TestScoreDateTaper(t *testing.T) {
	base := Input{ItemName: "Bottle", CategoryID: 1, LocationID: 2, Date: date("2026-03-10")}

	cases := []struct {
		found string
		want  float64
	}{
		{"2026-03-10", 15},
		{"2026-03-11", 15},
		{"2026-03-13", 10},
		{"2026-03-17", 5},
		{"2026-03-30", 0},
	}
	for _, c := range cases {
		other := Input{ItemName: "Bag", CategoryID: 1, LocationID: 9, Date: date(c.found)}
		res := Score(base, other)
		// Category contributes 40; everything above that is the date component.
		got := res.Score - 40
		if got != c.want {
			t.Errorf("date %s: expected date component %v, got %v", c.found, c.want, got)
		}
	}
}

func TestScoreReasonsOrderedAndCapped(t *testing.T) {
	lost := Input{
		ItemName:    "Red backpack laptop charger",
		Description: "contains laptop charger and notebooks",
		CategoryID:  4,
		LocationID:  7,
		Date:        date("2026-04-01"),
	}
	found := Input{
		ItemName:    "Red backpack",
		Description: "laptop charger inside",
		CategoryID:  4,
		LocationID:  7,
		Date:        date("2026-04-01"),
	}

	res := Score(lost, found)
	if len(res.Reasons) > 3 {
		t.Errorf("expected at most 3 reasons, got %d: %v", len(res.Reasons), res.Reasons)
	}
	if res.Reasons[0] != "Same category" || res.Reasons[1] != "Same location" {
		t.Errorf("reasons not ordered by contribution: %v", res.Reasons)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("The Black wallet, with my ID card!")
	want := []string{"black", "wallet", "card"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize: expected %v, got %v", want, got)
	}
}

func TestDaysBetweenCalendarDays(t *testing.T) {
	// 23:30 vs 00:30 the next day is one calendar day apart even though the
	// wall-clock gap is only an hour.
	a := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2026, 1, 2, 0, 30, 0, 0, time.UTC)
	if d := daysBetween(a, b); d != 1 {
		t.Errorf("expected 1 day, got %d", d)
	}
	if d := daysBetween(b, a); d != 1 {
		t.Errorf("expected symmetric result, got %d", d)
	}
}
