package state

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func filledRequest() TravelRequest {
	dep := day(2025, time.March, 10)
	ret := day(2025, time.March, 13)
	return TravelRequest{
		Origin:        ptr("Porto"),
		Destination:   ptr("London"),
		DepartureDate: &dep,
		ReturnDate:    &ret,
		DurationDays:  ptr(3),
		Passengers:    2,
		Budget:        ptr(500.0),
		UserEmail:     ptr("a@b.co"),
	}
}

func TestMergeNullPatchKeepsEverything(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	got := Merge(base, Patch{})
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIsMonotonic(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	got := Merge(base, Patch{Destination: ptr("Paris")})

	want := filledRequest()
	want.Destination = ptr("Paris")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	_ = Merge(base, Patch{
		Origin:     ptr("Madrid"),
		Passengers: ptr(5),
		Budget:     ptr(900.0),
	})
	if diff := cmp.Diff(filledRequest(), base); diff != "" {
		t.Fatalf("base mutated (-want +got):\n%s", diff)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	patch := Patch{
		Origin:        ptr("Porto"),
		Destination:   ptr("London"),
		DepartureDate: ptr("2025-03-10"),
		DurationDays:  ptr(3),
		Budget:        ptr(500.0),
	}
	once := Merge(NewTravelRequest(), patch)
	twice := Merge(once, patch)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("Merge() not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeDerivesReturnDateFromDuration(t *testing.T) {
	t.Parallel()

	got := Merge(NewTravelRequest(), Patch{
		DepartureDate: ptr("2025-03-10"),
		DurationDays:  ptr(3),
	})
	want := day(2025, time.March, 13)
	if got.ReturnDate == nil || *got.ReturnDate != want {
		t.Fatalf("ReturnDate = %v, want %v", got.ReturnDate, want)
	}
}

func TestMergeDerivesDurationFromReturnDate(t *testing.T) {
	t.Parallel()

	got := Merge(NewTravelRequest(), Patch{
		DepartureDate: ptr("2025-03-10"),
		ReturnDate:    ptr("2025-03-17"),
	})
	if got.DurationDays == nil || *got.DurationDays != 7 {
		t.Fatalf("DurationDays = %v, want 7", got.DurationDays)
	}
}

func TestMergeNeverRederivesPresentFields(t *testing.T) {
	t.Parallel()

	// Both sides present after the overwrite: neither is recomputed even
	// though they disagree.
	base := filledRequest()
	got := Merge(base, Patch{DurationDays: ptr(10)})

	if *got.DurationDays != 10 {
		t.Fatalf("DurationDays = %d, want 10", *got.DurationDays)
	}
	if want := day(2025, time.March, 13); *got.ReturnDate != want {
		t.Fatalf("ReturnDate = %v, want %v", *got.ReturnDate, want)
	}
}

func TestMergeSkipsNegativeDerivedDuration(t *testing.T) {
	t.Parallel()

	got := Merge(NewTravelRequest(), Patch{
		DepartureDate: ptr("2025-03-10"),
		ReturnDate:    ptr("2025-03-01"),
	})
	if got.DurationDays != nil {
		t.Fatalf("DurationDays = %d, want nil", *got.DurationDays)
	}
	if got.ReturnDate == nil {
		t.Fatal("literal return date dropped")
	}
}

func TestMergeIgnoresMalformedDate(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	got := Merge(base, Patch{
		DepartureDate: ptr("next friday"),
		ReturnDate:    ptr("2025-02-30"),
		Origin:        ptr("Lisbon"),
	})

	if *got.DepartureDate != *base.DepartureDate {
		t.Fatalf("DepartureDate = %v, want %v", *got.DepartureDate, *base.DepartureDate)
	}
	if *got.ReturnDate != *base.ReturnDate {
		t.Fatalf("ReturnDate = %v, want %v", *got.ReturnDate, *base.ReturnDate)
	}
	if *got.Origin != "Lisbon" {
		t.Fatalf("Origin = %q, merge stopped at malformed date", *got.Origin)
	}
}

func TestMergeIgnoresInvalidNumbers(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	got := Merge(base, Patch{
		DurationDays: ptr(-2),
		Passengers:   ptr(0),
		Budget:       ptr(-10.0),
	})
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeTreatsBlankAndNullStringsAsAbsent(t *testing.T) {
	t.Parallel()

	base := filledRequest()
	got := Merge(base, Patch{
		Origin:      ptr("  "),
		Destination: ptr("null"),
		UserEmail:   ptr("NULL"),
	})
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeTrimsText(t *testing.T) {
	t.Parallel()

	got := Merge(NewTravelRequest(), Patch{Origin: ptr("  Porto ")})
	if *got.Origin != "Porto" {
		t.Fatalf("Origin = %q, want %q", *got.Origin, "Porto")
	}
}

func TestPatchIsEmpty(t *testing.T) {
	t.Parallel()

	if !(Patch{}).IsEmpty() {
		t.Fatal("IsEmpty() = false for zero patch")
	}
	if (Patch{Budget: ptr(0.0)}).IsEmpty() {
		t.Fatal("IsEmpty() = true for patch with budget")
	}
}
