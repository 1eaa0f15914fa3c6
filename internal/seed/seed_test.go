package seed

import (
	"context"
	"testing"
	"time"

	"github.com/creditdesk/creditdesk/internal/db"
	"github.com/creditdesk/creditdesk/internal/ledger"
)

type countingReporter struct {
	total   int
	updates int
	done    bool
}

func (r *countingReporter) Start(total int)    { r.total = total }
func (r *countingReporter) Update(int, string) { r.updates++ }
func (r *countingReporter) Finish()            { r.done = true }

func TestLoad(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := ledger.NewStore(database)
	ctx := context.Background()

	rep := &countingReporter{}
	if err := Load(ctx, store, rep); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.total == 0 || rep.updates != rep.total || !rep.done {
		t.Errorf("reporter: %+v", rep)
	}

	customers, err := store.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(customers) != 4 {
		t.Errorf("customers: got %d, want 4", len(customers))
	}

	// The ambiguous pair of Johns must be present for clarification demos.
	matches, err := store.SearchCustomers(ctx, "John")
	if err != nil {
		t.Fatalf("SearchCustomers: %v", err)
	}
	if len(matches) < 2 {
		t.Errorf("expected at least two Johns, got %d", len(matches))
	}

	// The expired credit must not count toward availability.
	total, credits, err := store.AvailableCredits(ctx, "CUST003", time.Now().UTC())
	if err != nil {
		t.Fatalf("AvailableCredits: %v", err)
	}
	if total != 30000 || len(credits) != 1 {
		t.Errorf("CUST003 availability: %d across %d credits", total, len(credits))
	}
}

func TestLoadTwiceFails(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := ledger.NewStore(database)
	ctx := context.Background()

	if err := Load(ctx, store, nil); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := Load(ctx, store, nil); err == nil {
		t.Fatal("second Load against the same database should fail on duplicate ids")
	}
}
