package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/zanvidmar/najdeno/internal/db"
)

// testRefs holds the rows every store test needs to satisfy foreign keys.
type testRefs struct {
	userID     int64
	staffID    int64
	categoryID int64
	locationID int64
}

func newStoreTest(t *testing.T) (context.Context, *sql.DB, testRefs) {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	var refs testRefs

	user, err := CreateUser(ctx, database, "Ana Student", "ana@example.com", "x", "user")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	refs.userID = user.ID

	staff, err := CreateUser(ctx, database, "Staff Member", "staff@example.com", "x", "staff")
	if err != nil {
		t.Fatalf("creating staff: %v", err)
	}
	refs.staffID = staff.ID

	category, err := CreateCategory(ctx, database, "Accessories")
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}
	refs.categoryID = category.ID

	location, err := CreateLocation(ctx, database, "Library")
	if err != nil {
		t.Fatalf("creating location: %v", err)
	}
	refs.locationID = location.ID

	return ctx, database, refs
}

func testDate(day int) time.Time {
	return time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
}
