package core

import (
	"testing"
	"time"

	"estatecore/pkg/domain"
)

func owner(id, first, last string, status domain.Status) domain.ProductOwner {
	return domain.ProductOwner{ID: id, FirstName: first, LastName: last, Status: status}
}

func ids[T domain.Record[T]](records []T) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RecordID()
	}
	return out
}

func assertOrder[T domain.Record[T]](t *testing.T, got []T, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("order = %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotIDs, want)
		}
	}
}

func TestPartitionPreservesRelativeOrder(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "a", "a", domain.OwnerLapsed),
		owner("2", "b", "b", domain.OwnerActive),
		owner("3", "c", "c", domain.OwnerDeceased),
		owner("4", "d", "d", domain.OwnerActive),
	}
	active, inactive := Partition(records, domain.OwnerStatusPolicy)
	assertOrder(t, active, "2", "4")
	assertOrder(t, inactive, "1", "3")
}

func TestOrderNilRequestPartitionsOnly(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "Zara", "Zimmer", domain.OwnerLapsed),
		owner("2", "Ada", "Abbott", domain.OwnerActive),
		owner("3", "Mia", "Mills", domain.OwnerActive),
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, nil, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, got, "2", "3", "1")
}

func TestOrderSortsActiveOnlyAndAppendsInactive(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "Zed", "Zimmer", domain.OwnerActive),
		owner("2", "Ada", "Abbott", domain.OwnerDeceased),
		owner("3", "Mia", "Mills", domain.OwnerActive),
		owner("4", "Bob", "Baker", domain.OwnerLapsed),
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: "name", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	// active sorted by name, inactive appended in original relative order
	assertOrder(t, got, "3", "1", "2", "4")
}

func TestOrderDescendingFlipsAbsentPlacement(t *testing.T) {
	records := []domain.ProductOwner{
		{ID: "1", Email: "", Status: domain.OwnerActive},
		{ID: "2", Email: "a@example.com", Status: domain.OwnerActive},
		{ID: "3", Email: "b@example.com", Status: domain.OwnerActive},
	}
	reg := OwnerRegistry(time.Now)
	asc, err := Order(records, &SortRequest{Column: "email", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order asc: %v", err)
	}
	assertOrder(t, asc, "2", "3", "1")
	desc, err := Order(records, &SortRequest{Column: "email", Direction: Descending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order desc: %v", err)
	}
	assertOrder(t, desc, "1", "3", "2")
}

func TestOrderStatusColumnRanksWholeSet(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "a", "a", domain.OwnerDeceased),
		owner("2", "b", "b", domain.OwnerActive),
		owner("3", "c", "c", domain.OwnerLapsed),
		owner("4", "d", "d", domain.OwnerActive),
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: ColumnStatus, Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	// active < lapsed < deceased by policy rank, stable within ranks
	assertOrder(t, got, "2", "4", "3", "1")

	desc, err := Order(records, &SortRequest{Column: ColumnStatus, Direction: Descending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order desc: %v", err)
	}
	assertOrder(t, desc, "1", "3", "2", "4")
}

func TestOrderIsStableForEqualKeys(t *testing.T) {
	records := []domain.ProductOwner{
		{ID: "1", Relationship: "child", Status: domain.OwnerActive},
		{ID: "2", Relationship: "child", Status: domain.OwnerActive},
		{ID: "3", Relationship: "child", Status: domain.OwnerActive},
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: "relationship", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, got, "1", "2", "3")
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "Zed", "Zimmer", domain.OwnerActive),
		owner("2", "Ada", "Abbott", domain.OwnerActive),
	}
	reg := OwnerRegistry(time.Now)
	if _, err := Order(records, &SortRequest{Column: "name", Direction: Ascending}, reg, domain.OwnerStatusPolicy); err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, records, "1", "2")
}

func TestOrderIdempotent(t *testing.T) {
	records := []domain.ProductOwner{
		owner("1", "Mia", "Mills", domain.OwnerActive),
		owner("2", "Ada", "Abbott", domain.OwnerLapsed),
		owner("3", "Zed", "Zimmer", domain.OwnerActive),
	}
	reg := OwnerRegistry(time.Now)
	req := &SortRequest{Column: "name", Direction: Ascending}
	once, err := Order(records, req, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	twice, err := Order(once, req, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order again: %v", err)
	}
	assertOrder(t, twice, ids(once)...)
}

func TestOrderUnknownColumn(t *testing.T) {
	reg := OwnerRegistry(time.Now)
	_, err := Order([]domain.ProductOwner{owner("1", "a", "a", domain.OwnerActive)},
		&SortRequest{Column: "shoeSize", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestOrderNameAscendingPutsMissingLastNameFirst(t *testing.T) {
	records := []domain.ProductOwner{
		{ID: "1", FirstName: "Bob", LastName: "Baker", Status: domain.OwnerActive},
		{ID: "2", FirstName: "Nia", Status: domain.OwnerActive},
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: "name", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, got, "2", "1")
}

func TestOrderDobAscendingPutsMissingDateLast(t *testing.T) {
	records := []domain.ProductOwner{
		{ID: "1", DateOfBirth: "1990-01-01", Status: domain.OwnerActive},
		{ID: "2", Status: domain.OwnerActive},
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: "dob", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, got, "1", "2")
}

func TestOrderNameAscendingEndToEnd(t *testing.T) {
	records := []domain.ProductOwner{
		{ID: "1", FirstName: "Bob", LastName: "Bob", Status: domain.OwnerActive},
		{ID: "2", FirstName: "Amy", LastName: "Amy", Status: domain.OwnerLapsed},
		{ID: "3", FirstName: "Amy", LastName: "Amy", Status: domain.OwnerActive},
	}
	reg := OwnerRegistry(time.Now)
	got, err := Order(records, &SortRequest{Column: "name", Direction: Ascending}, reg, domain.OwnerStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	// active records sort by name, the lapsed record stays at the bottom
	assertOrder(t, got, "3", "1", "2")
}

func TestOrderDocumentsByDateWithInactiveAtBottom(t *testing.T) {
	docs := []domain.LegalDocument{
		{ID: "1", Type: "will", DocumentDate: "2021-05-01", Status: domain.DocumentSigned},
		{ID: "2", Type: "deed", DocumentDate: "2019-01-01", Status: domain.DocumentLapsed},
		{ID: "3", Type: "poa", DocumentDate: "2020-03-15", Status: domain.DocumentSigned},
	}
	got, err := Order(docs, &SortRequest{Column: "date", Direction: Ascending}, DocumentRegistry(), domain.DocumentStatusPolicy)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	assertOrder(t, got, "3", "1", "2")
}
