package repo

import (
	"context"
	"testing"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

func TestLeaderboard_RanksByPointsWithBadgeCounts(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Badge{}, &domain.UserBadge{})
	ctx := context.Background()

	for _, u := range []struct {
		id     string
		points int
	}{
		{"low", 10}, {"high", 300}, {"mid", 120},
	} {
		if _, err := EnsureUser(ctx, db, u.id); err != nil {
			t.Fatalf("ensure %s: %v", u.id, err)
		}
		if _, err := AddUserPoints(ctx, db, u.id, u.points); err != nil {
			t.Fatalf("points %s: %v", u.id, err)
		}
	}
	if err := SeedBadges(ctx, db); err != nil {
		t.Fatalf("seed badges: %v", err)
	}
	badges, err := ListBadges(ctx, db)
	if err != nil {
		t.Fatalf("list badges: %v", err)
	}
	if _, err := CreateUserBadge(ctx, db, "high", badges[0].ID); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := CreateUserBadge(ctx, db, "high", badges[1].ID); err != nil {
		t.Fatalf("grant: %v", err)
	}

	rows, err := Leaderboard(ctx, db, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("limit not honored: %d rows", len(rows))
	}
	if rows[0].UserID != "high" || rows[0].Rank != 1 || rows[0].BadgesCount != 2 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].UserID != "mid" || rows[1].Rank != 2 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestListVerifiedEntries_FiltersStatus(t *testing.T) {
	db := newRepoDB(t, &domain.Entry{})
	ctx := context.Background()

	for i, status := range []string{domain.StatusVerified, domain.StatusPending, domain.StatusVerified} {
		e := &domain.Entry{
			Headword:     "h" + string(rune('a'+i)),
			HeadwordFold: "h" + string(rune('a'+i)),
			Translation:  "t",
			Kind:         domain.KindWord,
			Status:       status,
		}
		if err := CreateEntry(ctx, db, e); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	out, err := ListVerifiedEntries(ctx, db)
	if err != nil || len(out) != 2 {
		t.Fatalf("ListVerifiedEntries = %d, %v; want 2", len(out), err)
	}

	ids, err := ListEntryIDs(ctx, db)
	if err != nil || len(ids) != 3 {
		t.Fatalf("ListEntryIDs = %d, %v; want 3", len(ids), err)
	}
}
