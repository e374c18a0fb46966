package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zanvidmar/najdeno/internal/db"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

type fixture struct {
	engine *Engine

	electronics int64
	accessories int64
	library     int64
	cafeteria   int64

	student  int64
	student2 int64
	staff    int64
	admin    int64
}

func newFixture(t *testing.T) (context.Context, *fixture) {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	f := &fixture{engine: NewEngine(database)}

	cat, err := store.CreateCategory(ctx, database, "Electronics")
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}
	f.electronics = cat.ID

	cat, err = store.CreateCategory(ctx, database, "Accessories")
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}
	f.accessories = cat.ID

	loc, err := store.CreateLocation(ctx, database, "Library")
	if err != nil {
		t.Fatalf("creating location: %v", err)
	}
	f.library = loc.ID

	loc, err = store.CreateLocation(ctx, database, "Cafeteria")
	if err != nil {
		t.Fatalf("creating location: %v", err)
	}
	f.cafeteria = loc.ID

	users := []struct {
		name, email, role string
		id                *int64
	}{
		{"Ana Student", "ana@example.com", model.RoleUser, &f.student},
		{"Bor Student", "bor@example.com", model.RoleUser, &f.student2},
		{"Staff Member", "staff@example.com", model.RoleStaff, &f.staff},
		{"Site Admin", "admin@example.com", model.RoleAdmin, &f.admin},
	}
	for _, u := range users {
		created, err := store.CreateUser(ctx, database, u.name, u.email, "x", u.role)
		if err != nil {
			t.Fatalf("creating user %s: %v", u.email, err)
		}
		*u.id = created.ID
	}

	return ctx, f
}

func (f *fixture) asUser(id int64) Actor {
	return Actor{UserID: id, IP: "127.0.0.1", UserAgent: "test", RequestID: "req-test"}
}

func (f *fixture) lostWallet(ctx context.Context, t *testing.T) *model.LostReport {
	t.Helper()
	report, _, err := f.engine.CreateLostReport(ctx, LostReportInput{
		CategoryID:       f.accessories,
		LocationID:       f.library,
		ItemName:         "Black Wallet",
		Description:      "Black leather wallet with student card inside",
		DateLost:         time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		LastSeenLocation: "Library second floor",
	}, f.asUser(f.student))
	if err != nil {
		t.Fatalf("creating lost report: %v", err)
	}
	return report
}

func (f *fixture) foundWallet(ctx context.Context, t *testing.T) *model.FoundItem {
	t.Helper()
	item, _, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.accessories,
		LocationID:      f.library,
		ItemName:        "Wallet",
		Description:     "Found a black wallet near the library stairs",
		DateFound:       time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf B",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}
	return item
}

func TestCreateFoundItemMatchesAndNotifiesOwner(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)

	item, synth, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.accessories,
		LocationID:      f.library,
		ItemName:        "Wallet",
		Description:     "Found a black wallet near the library stairs",
		DateFound:       time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf B",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	if synth.MatchesStored != 1 {
		t.Errorf("MatchesStored = %d, want 1", synth.MatchesStored)
	}
	if synth.NotifiedUsers != 1 {
		t.Errorf("NotifiedUsers = %d, want 1", synth.NotifiedUsers)
	}
	if synth.BestScore < 40 {
		t.Errorf("BestScore = %.2f, want >= 40", synth.BestScore)
	}

	matches, err := store.ListMatchesForLost(ctx, f.engine.DB, report.ID)
	if err != nil {
		t.Fatalf("listing matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].FoundID != item.ID {
		t.Errorf("match found_id = %d, want %d", matches[0].FoundID, item.ID)
	}

	notifs, err := store.ListNotifications(ctx, f.engine.DB, f.student, false)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications for owner, want 1", len(notifs))
	}
	if notifs[0].Type != model.NotifMatchSuggested {
		t.Errorf("notification type = %q, want %q", notifs[0].Type, model.NotifMatchSuggested)
	}
}

func TestCreateFoundItemOneNotificationPerOwner(t *testing.T) {
	ctx, f := newFixture(t)

	// Same owner files two strongly matching reports; only one notification
	// may result from a single found item.
	for range 2 {
		f.lostWallet(ctx, t)
	}

	_, synth, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.accessories,
		LocationID:      f.library,
		ItemName:        "Black Wallet",
		Description:     "Black leather wallet with student card inside",
		DateFound:       time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf B",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	if synth.MatchesStored != 2 {
		t.Errorf("MatchesStored = %d, want 2", synth.MatchesStored)
	}
	if synth.NotifiedUsers != 1 {
		t.Errorf("NotifiedUsers = %d, want 1", synth.NotifiedUsers)
	}

	count, err := store.CountNotifications(ctx, f.engine.DB, f.student, false)
	if err != nil {
		t.Fatalf("counting notifications: %v", err)
	}
	if count != 1 {
		t.Errorf("owner has %d notifications, want 1", count)
	}
}

func TestCreateFoundItemRecordsBestMatchBelowNotifyFloor(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)

	// Same location only, unrelated category, text and date: scores 25, so the
	// match is persisted but nobody is notified.
	_, synth, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.electronics,
		LocationID:      f.library,
		ItemName:        "Umbrella",
		Description:     "Plain grey umbrella left behind",
		DateFound:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf A",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	if synth.MatchesStored != 1 {
		t.Errorf("MatchesStored = %d, want 1", synth.MatchesStored)
	}
	if synth.NotifiedUsers != 0 {
		t.Errorf("NotifiedUsers = %d, want 0", synth.NotifiedUsers)
	}
	if synth.BestLostID != report.ID {
		t.Errorf("BestLostID = %d, want %d", synth.BestLostID, report.ID)
	}
	if synth.BestScore != 25 {
		t.Errorf("BestScore = %.2f, want 25", synth.BestScore)
	}

	entries, err := store.ListAudit(ctx, f.engine.DB, store.AuditFilter{Action: model.AuditFoundCreated})
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(entries))
	}
	meta := entries[0].Meta
	if id, ok := meta["best_match_lost_id"].(float64); !ok || int64(id) != report.ID {
		t.Errorf("best_match_lost_id = %v, want %d", meta["best_match_lost_id"], report.ID)
	}
	if score, ok := meta["best_match_score"].(float64); !ok || score != 25 {
		t.Errorf("best_match_score = %v, want 25", meta["best_match_score"])
	}
}

func TestCreateLostReportRecordsBestMatchBelowNotifyFloor(t *testing.T) {
	ctx, f := newFixture(t)

	// A weak counterpart already on the shelf.
	item, _, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.electronics,
		LocationID:      f.library,
		ItemName:        "Umbrella",
		Description:     "Plain grey umbrella left behind",
		DateFound:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf A",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	_, synth, err := f.engine.CreateLostReport(ctx, LostReportInput{
		CategoryID:       f.accessories,
		LocationID:       f.library,
		ItemName:         "Black Wallet",
		Description:      "Black leather wallet with student card inside",
		DateLost:         time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		LastSeenLocation: "Library second floor",
	}, f.asUser(f.student))
	if err != nil {
		t.Fatalf("creating lost report: %v", err)
	}

	if synth.MatchesStored != 1 {
		t.Errorf("MatchesStored = %d, want 1", synth.MatchesStored)
	}
	if synth.NotifiedUsers != 0 {
		t.Errorf("NotifiedUsers = %d, want 0", synth.NotifiedUsers)
	}
	if synth.BestFoundID != item.ID {
		t.Errorf("BestFoundID = %d, want %d", synth.BestFoundID, item.ID)
	}
	if synth.BestScore != 25 {
		t.Errorf("BestScore = %.2f, want 25", synth.BestScore)
	}
}

func TestCreateLostReportNotifiesOwnReporter(t *testing.T) {
	ctx, f := newFixture(t)

	f.foundWallet(ctx, t)
	report := f.lostWallet(ctx, t)

	matches, err := store.ListMatchesForLost(ctx, f.engine.DB, report.ID)
	if err != nil {
		t.Fatalf("listing matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	notifs, err := store.ListNotifications(ctx, f.engine.DB, f.student, false)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}

	entries, err := store.ListAudit(ctx, f.engine.DB, store.AuditFilter{Action: model.AuditLostCreated})
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(entries))
	}
}

func TestMatchUniquenessUnderRepeatedSynthesis(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)
	f.foundWallet(ctx, t)

	// Rescoring twice must not duplicate the (lost, found) pair.
	for range 2 {
		if _, err := f.engine.RefreshSuggestions(ctx, report.ID, f.asUser(f.student)); err != nil {
			t.Fatalf("refreshing suggestions: %v", err)
		}
	}

	matches, err := store.ListMatchesForLost(ctx, f.engine.DB, report.ID)
	if err != nil {
		t.Fatalf("listing matches: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("got %d matches after repeated refresh, want 1", len(matches))
	}
}

func TestRefreshSuggestionsReturnsRankedDisplayList(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)
	f.foundWallet(ctx, t)

	// A weak candidate: same location only, unrelated text and date.
	_, _, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.electronics,
		LocationID:      f.library,
		ItemName:        "Umbrella",
		Description:     "Plain grey umbrella left behind",
		DateFound:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf A",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	suggestions, err := f.engine.RefreshSuggestions(ctx, report.ID, f.asUser(f.student))
	if err != nil {
		t.Fatalf("refreshing suggestions: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}
	if suggestions[0].Score < suggestions[1].Score {
		t.Errorf("suggestions not ranked: %.2f before %.2f", suggestions[0].Score, suggestions[1].Score)
	}
	if suggestions[0].ItemName != "Wallet" {
		t.Errorf("top suggestion = %q, want the wallet", suggestions[0].ItemName)
	}
	if suggestions[0].Score < 40 {
		t.Errorf("top suggestion score = %.2f, want >= 40", suggestions[0].Score)
	}
	if len(suggestions[0].Reasons) == 0 {
		t.Error("top suggestion has no reasons")
	}
}

func TestSubmitClaimValidation(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	_, err := f.engine.SubmitClaim(ctx, item.ID, "too short", f.asUser(f.student))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short proof: got %v, want ErrInvalidArgument", err)
	}

	_, err = f.engine.SubmitClaim(ctx, 9999, "it is my black leather wallet", f.asUser(f.student))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", err)
	}

	if _, err := f.engine.SubmitClaim(ctx, item.ID, "it is my black leather wallet", f.asUser(f.student)); err != nil {
		t.Fatalf("submitting claim: %v", err)
	}

	_, err = f.engine.SubmitClaim(ctx, item.ID, "really, it is my black leather wallet", f.asUser(f.student))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate pending claim: got %v, want ErrConflict", err)
	}
}

func TestSubmitClaimNotifiesStaff(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	if _, err := f.engine.SubmitClaim(ctx, item.ID, "it is my black leather wallet", f.asUser(f.student)); err != nil {
		t.Fatalf("submitting claim: %v", err)
	}

	for _, userID := range []int64{f.staff, f.admin} {
		count, err := store.CountNotifications(ctx, f.engine.DB, userID, true)
		if err != nil {
			t.Fatalf("counting notifications: %v", err)
		}
		if count != 1 {
			t.Errorf("user %d has %d notifications, want 1", userID, count)
		}
	}
}

func TestApproveClaimDeniesSiblings(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	claimA, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student))
	if err != nil {
		t.Fatalf("submitting claim A: %v", err)
	}
	claimB, err := f.engine.SubmitClaim(ctx, item.ID, "I lost a wallet just like that one", f.asUser(f.student2))
	if err != nil {
		t.Fatalf("submitting claim B: %v", err)
	}

	result, err := f.engine.DecideClaim(ctx, claimA.ID, model.DecisionApprove, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("approving claim: %v", err)
	}
	if result.Status != model.ClaimStatusApproved {
		t.Errorf("result status = %q, want APPROVED", result.Status)
	}
	if result.AutoDenied != 1 {
		t.Errorf("AutoDenied = %d, want 1", result.AutoDenied)
	}

	got, err := store.GetClaim(ctx, f.engine.DB, claimB.ID)
	if err != nil {
		t.Fatalf("getting claim B: %v", err)
	}
	if got.Status != model.ClaimStatusDenied {
		t.Errorf("sibling claim status = %q, want DENIED", got.Status)
	}

	updated, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if updated.Status != model.FoundStatusClaimed {
		t.Errorf("item status = %q, want CLAIMED", updated.Status)
	}

	// Exactly one notification each: approval for A's owner, closure for B's.
	for _, tc := range []struct {
		userID int64
		typ    string
	}{
		{f.student, model.NotifClaimApproved},
		{f.student2, model.NotifClaimDenied},
	} {
		notifs, err := store.ListNotifications(ctx, f.engine.DB, tc.userID, false)
		if err != nil {
			t.Fatalf("listing notifications: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("user %d has %d notifications, want 1", tc.userID, len(notifs))
		}
		if notifs[0].Type != tc.typ {
			t.Errorf("user %d notification type = %q, want %q", tc.userID, notifs[0].Type, tc.typ)
		}
	}

	entries, err := store.ListAudit(ctx, f.engine.DB, store.AuditFilter{Action: model.AuditClaimApproved})
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d CLAIM_APPROVED entries, want 1", len(entries))
	}
	if n, ok := entries[0].Meta["auto_denied_count"].(float64); !ok || n != 1 {
		t.Errorf("auto_denied_count = %v, want 1", entries[0].Meta["auto_denied_count"])
	}
}

func TestDecideClaimAlreadyDecidedIsConflict(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	claim, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student))
	if err != nil {
		t.Fatalf("submitting claim: %v", err)
	}
	if _, err := f.engine.DecideClaim(ctx, claim.ID, model.DecisionDeny, f.asUser(f.staff)); err != nil {
		t.Fatalf("denying claim: %v", err)
	}

	_, err = f.engine.DecideClaim(ctx, claim.ID, model.DecisionApprove, f.asUser(f.staff))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("deciding decided claim: got %v, want ErrConflict", err)
	}

	got, err := store.GetClaim(ctx, f.engine.DB, claim.ID)
	if err != nil {
		t.Fatalf("getting claim: %v", err)
	}
	if got.Status != model.ClaimStatusDenied {
		t.Errorf("claim status = %q, want DENIED (unchanged)", got.Status)
	}

	updated, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if updated.Status != model.FoundStatusNewlyFound {
		t.Errorf("item status = %q, want NEWLY_FOUND (unchanged)", updated.Status)
	}
}

func TestDecideClaimRollbackLeavesNoPartialState(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	claim, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student))
	if err != nil {
		t.Fatalf("submitting claim: %v", err)
	}

	tx, err := f.engine.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("beginning transaction: %v", err)
	}
	var result DecisionResult
	if err := f.engine.decideClaimTx(ctx, tx, claim, item, model.DecisionApprove, f.asUser(f.staff), &result); err != nil {
		tx.Rollback()
		t.Fatalf("running decision body: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rolling back: %v", err)
	}

	got, err := store.GetClaim(ctx, f.engine.DB, claim.ID)
	if err != nil {
		t.Fatalf("getting claim: %v", err)
	}
	if got.Status != model.ClaimStatusPending {
		t.Errorf("claim status after rollback = %q, want PENDING", got.Status)
	}

	updated, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if updated.Status != model.FoundStatusNewlyFound {
		t.Errorf("item status after rollback = %q, want NEWLY_FOUND", updated.Status)
	}

	count, err := store.CountNotifications(ctx, f.engine.DB, f.student, false)
	if err != nil {
		t.Fatalf("counting notifications: %v", err)
	}
	if count != 0 {
		t.Errorf("claimant has %d notifications after rollback, want 0", count)
	}
}

func TestSubmitClaimOnClaimedOrReturnedItem(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	claim, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student))
	if err != nil {
		t.Fatalf("submitting claim: %v", err)
	}
	if _, err := f.engine.DecideClaim(ctx, claim.ID, model.DecisionApprove, f.asUser(f.staff)); err != nil {
		t.Fatalf("approving claim: %v", err)
	}

	_, err = f.engine.SubmitClaim(ctx, item.ID, "no, that wallet is actually mine", f.asUser(f.student2))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("claiming CLAIMED item: got %v, want ErrConflict", err)
	}
}

func TestReturnFoundItemCascade(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)
	item := f.foundWallet(ctx, t)

	if _, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student2)); err != nil {
		t.Fatalf("submitting claim: %v", err)
	}

	result, err := f.engine.ReturnFoundItem(ctx, item.ID, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("returning item: %v", err)
	}
	if result.MatchesDeleted != 1 {
		t.Errorf("MatchesDeleted = %d, want 1", result.MatchesDeleted)
	}
	if result.PendingClaimsDenied != 1 {
		t.Errorf("PendingClaimsDenied = %d, want 1", result.PendingClaimsDenied)
	}

	updated, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if updated.Status != model.FoundStatusReturned {
		t.Errorf("item status = %q, want RETURNED", updated.Status)
	}

	matches, err := store.ListMatchesForLost(ctx, f.engine.DB, report.ID)
	if err != nil {
		t.Fatalf("listing matches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches after return, want 0", len(matches))
	}

	claims, err := store.ListClaims(ctx, f.engine.DB, item.ID, 0, "")
	if err != nil {
		t.Fatalf("listing claims: %v", err)
	}
	for _, c := range claims {
		if c.Status != model.ClaimStatusDenied {
			t.Errorf("claim %d status = %q, want DENIED", c.ID, c.Status)
		}
	}

	notifs, err := store.ListNotifications(ctx, f.engine.DB, f.student2, false)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("claimant has %d notifications, want 1", len(notifs))
	}
	if notifs[0].Title != "Claim closed" {
		t.Errorf("notification title = %q, want %q", notifs[0].Title, "Claim closed")
	}

	// Second return is a conflict.
	if _, err := f.engine.ReturnFoundItem(ctx, item.ID, f.asUser(f.staff)); !errors.Is(err, ErrConflict) {
		t.Errorf("returning RETURNED item: got %v, want ErrConflict", err)
	}
}

func TestDeleteFoundItemBlockedByClaims(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	claim, err := f.engine.SubmitClaim(ctx, item.ID, "black leather wallet, card inside", f.asUser(f.student))
	if err != nil {
		t.Fatalf("submitting claim: %v", err)
	}
	if _, err := f.engine.DecideClaim(ctx, claim.ID, model.DecisionApprove, f.asUser(f.staff)); err != nil {
		t.Fatalf("approving claim: %v", err)
	}

	err = f.engine.DeleteFoundItem(ctx, item.ID, f.asUser(f.admin))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("deleting item with claims: got %v, want ErrConflict", err)
	}

	still, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if still == nil {
		t.Fatal("item was deleted despite claim history")
	}
}

func TestDeleteFoundItemWithoutClaims(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	if err := f.engine.DeleteFoundItem(ctx, item.ID, f.asUser(f.admin)); err != nil {
		t.Fatalf("deleting item: %v", err)
	}

	got, err := store.GetFoundItem(ctx, f.engine.DB, item.ID)
	if err != nil {
		t.Fatalf("getting item: %v", err)
	}
	if got != nil {
		t.Error("item still present after delete")
	}
}

func TestWithdrawLostReportIdempotent(t *testing.T) {
	ctx, f := newFixture(t)
	report := f.lostWallet(ctx, t)

	status, err := f.engine.WithdrawLostReport(ctx, report.ID, f.asUser(f.student))
	if err != nil {
		t.Fatalf("withdrawing report: %v", err)
	}
	if status != model.LostStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", status)
	}

	// Second withdraw is a no-op, not an error.
	status, err = f.engine.WithdrawLostReport(ctx, report.ID, f.asUser(f.student))
	if err != nil {
		t.Fatalf("withdrawing twice: %v", err)
	}
	if status != model.LostStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", status)
	}

	entries, err := store.ListAudit(ctx, f.engine.DB, store.AuditFilter{Action: model.AuditLostWithdrawn})
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d withdrawal audit entries, want 1", len(entries))
	}
}

func TestCancelledReportIsNotACandidate(t *testing.T) {
	ctx, f := newFixture(t)

	report := f.lostWallet(ctx, t)
	if _, err := f.engine.WithdrawLostReport(ctx, report.ID, f.asUser(f.student)); err != nil {
		t.Fatalf("withdrawing report: %v", err)
	}

	_, synth, err := f.engine.CreateFoundItem(ctx, FoundItemInput{
		CategoryID:      f.accessories,
		LocationID:      f.library,
		ItemName:        "Black Wallet",
		Description:     "Black leather wallet with student card inside",
		DateFound:       time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		StorageLocation: "Front office shelf B",
	}, f.asUser(f.staff))
	if err != nil {
		t.Fatalf("creating found item: %v", err)
	}

	if synth.MatchesStored != 0 {
		t.Errorf("MatchesStored = %d, want 0 for cancelled report", synth.MatchesStored)
	}
	if synth.NotifiedUsers != 0 {
		t.Errorf("NotifiedUsers = %d, want 0 for cancelled report", synth.NotifiedUsers)
	}
}

func TestUpdateFoundItemRecordsDiff(t *testing.T) {
	ctx, f := newFixture(t)
	item := f.foundWallet(ctx, t)

	name := "Brown Wallet"
	storage := "Locker 12"
	updated, err := f.engine.UpdateFoundItem(ctx, item.ID, FoundItemPatch{
		ItemName:        &name,
		StorageLocation: &storage,
	}, f.asUser(f.admin))
	if err != nil {
		t.Fatalf("updating item: %v", err)
	}
	if updated.ItemName != name || updated.StorageLocation != storage {
		t.Errorf("update not applied: name=%q storage=%q", updated.ItemName, updated.StorageLocation)
	}

	entries, err := store.ListAudit(ctx, f.engine.DB, store.AuditFilter{Action: model.AuditFoundUpdated})
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d update audit entries, want 1", len(entries))
	}

	before, ok := entries[0].Meta["before"].(map[string]any)
	if !ok {
		t.Fatalf("audit meta has no before diff: %v", entries[0].Meta)
	}
	if before["item_name"] != "Wallet" {
		t.Errorf("before item_name = %v, want %q", before["item_name"], "Wallet")
	}
	if _, present := before["description"]; present {
		t.Error("before diff includes untouched field description")
	}

	short := "x"
	if _, err := f.engine.UpdateFoundItem(ctx, item.ID, FoundItemPatch{ItemName: &short}, f.asUser(f.admin)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid patch: got %v, want ErrInvalidArgument", err)
	}
	if _, err := f.engine.UpdateFoundItem(ctx, item.ID, FoundItemPatch{}, f.asUser(f.admin)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty patch: got %v, want ErrInvalidArgument", err)
	}
}
