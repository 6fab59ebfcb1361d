package repo

import (
	"context"
	"testing"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

func TestEnsureUser_CreatesOnceThenReuses(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := EnsureUser(ctx, db, "u1")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u.ID != "u1" || u.Username != "u1" || u.Level != domain.LevelBeginner {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if u.JoinedAt.IsZero() {
		t.Fatalf("JoinedAt must be set on first contact")
	}

	// Mutate, then ensure again: the row must be reused, not recreated.
	if _, err := AddUserPoints(ctx, db, "u1", 7); err != nil {
		t.Fatalf("AddUserPoints: %v", err)
	}
	again, err := EnsureUser(ctx, db, "u1")
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if again.Points != 7 {
		t.Fatalf("second EnsureUser clobbered the row: %+v", again)
	}
}

func TestAddUserPoints_IsRelative(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := EnsureUser(ctx, db, "u1"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if _, err := AddUserPoints(ctx, db, "u1", 10); err != nil {
		t.Fatalf("first add: %v", err)
	}
	u, err := AddUserPoints(ctx, db, "u1", -3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if u.Points != 7 {
		t.Fatalf("points = %d, want 7", u.Points)
	}
}

func TestIncUserCounter_And_SetUserStats(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := EnsureUser(ctx, db, "u1"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if err := IncUserCounter(ctx, db, "u1", "contributions_count", 1); err != nil {
		t.Fatalf("IncUserCounter: %v", err)
	}
	if err := IncUserCounter(ctx, db, "u1", "verifications_count", 2); err != nil {
		t.Fatalf("IncUserCounter: %v", err)
	}
	u, err := GetUser(ctx, db, "u1")
	if err != nil || u.ContributionsCount != 1 || u.VerificationsCount != 2 {
		t.Fatalf("counters = %d/%d, %v", u.ContributionsCount, u.VerificationsCount, err)
	}

	// Reconciliation-style overwrite.
	if err := SetUserStats(ctx, db, "u1", 150, 5, 9, domain.LevelContributor); err != nil {
		t.Fatalf("SetUserStats: %v", err)
	}
	u, err = GetUser(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Points != 150 || u.ContributionsCount != 5 || u.VerificationsCount != 9 || u.Level != domain.LevelContributor {
		t.Fatalf("overwrite not applied: %+v", u)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	if _, err := GetUser(context.Background(), db, "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUserIDs(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := EnsureUser(ctx, db, id); err != nil {
			t.Fatalf("EnsureUser %s: %v", id, err)
		}
	}
	ids, err := ListUserIDs(ctx, db)
	if err != nil || len(ids) != 3 {
		t.Fatalf("ListUserIDs = %v, %v", ids, err)
	}
}
