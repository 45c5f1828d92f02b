package state

import (
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func ptr[T any](v T) *T {
	return &v
}

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestTravelRequestMissingFieldsOrder(t *testing.T) {
	t.Parallel()

	req := NewTravelRequest()
	want := []string{FieldOrigin, FieldDestination, FieldDepartureDate, FieldUserEmail}
	if got := req.MissingFields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingFields() = %v, want %v", got, want)
	}
	if req.IsComplete() {
		t.Fatal("IsComplete() = true for empty request")
	}

	req.Destination = ptr("London")
	req.UserEmail = ptr("a@b.co")
	want = []string{FieldOrigin, FieldDepartureDate}
	if got := req.MissingFields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingFields() = %v, want %v", got, want)
	}
}

func TestTravelRequestCompletenessIgnoresOptionalFields(t *testing.T) {
	t.Parallel()

	dep := day(2025, time.March, 10)
	req := TravelRequest{
		Origin:        ptr("Porto"),
		Destination:   ptr("London"),
		DepartureDate: &dep,
		Passengers:    1,
		UserEmail:     ptr("a@b.co"),
	}
	if !req.IsComplete() {
		t.Fatalf("IsComplete() = false, missing %v", req.MissingFields())
	}

	req.Budget = ptr(500.0)
	req.DurationDays = ptr(3)
	req.Passengers = 4
	if !req.IsComplete() {
		t.Fatal("optional fields changed completeness")
	}
}

func TestTravelRequestOnlyEmailMissing(t *testing.T) {
	t.Parallel()

	dep := day(2025, time.March, 10)
	req := TravelRequest{
		Origin:        ptr("Porto"),
		Destination:   ptr("London"),
		DepartureDate: &dep,
		Passengers:    1,
	}
	if !req.OnlyEmailMissing() {
		t.Fatal("OnlyEmailMissing() = false, want true")
	}

	req.Origin = nil
	if req.OnlyEmailMissing() {
		t.Fatal("OnlyEmailMissing() = true with origin missing")
	}
}

func TestTravelRequestCloneIsDeep(t *testing.T) {
	t.Parallel()

	dep := day(2025, time.March, 10)
	orig := TravelRequest{
		Origin:        ptr("Porto"),
		DepartureDate: &dep,
		Passengers:    2,
		Budget:        ptr(300.0),
	}
	cp := orig.Clone()
	*cp.Origin = "Lisbon"
	*cp.Budget = 1
	cp.DepartureDate.Day = 20

	if *orig.Origin != "Porto" || *orig.Budget != 300 || orig.DepartureDate.Day != 10 {
		t.Fatalf("Clone() shares pointers with original: %+v", orig)
	}
}

func TestTravelRequestCloneRestoresPassengerFloor(t *testing.T) {
	t.Parallel()

	if got := (TravelRequest{}).Clone().Passengers; got != 1 {
		t.Fatalf("Clone().Passengers = %d, want 1", got)
	}
}
