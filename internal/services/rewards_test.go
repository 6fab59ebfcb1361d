package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Entry{},
		&domain.Vote{},
		&domain.Verification{},
		&domain.TranslationHistory{},
		&domain.PointTransaction{},
		&domain.RewardGrant{},
		&domain.Badge{},
		&domain.UserBadge{},
		&domain.UserStreak{},
		&domain.DailyChallenge{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SeedBadges(context.Background(), db); err != nil {
		t.Fatalf("seed badges: %v", err)
	}
	return db
}

func testCfg() config.Gamification {
	return config.Gamification{
		VerifyThreshold:            3,
		RejectThreshold:            2,
		ContributionPoints:         2,
		VotePoints:                 1,
		VerifyPoints:               5,
		ContributionVerifiedPoints: 10,
		AccuratePoints:             3,
		VerificationReceivedPoints: 2,
		ReviewPoints:               2,
		StreakBonusEvery:           7,
		EarlyAdopterCutoff:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mustUser(t *testing.T, db *gorm.DB, id string) *domain.User {
	t.Helper()
	u, err := repo.EnsureUser(context.Background(), db, id)
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	return u
}

func getUser(t *testing.T, db *gorm.DB, id string) *domain.User {
	t.Helper()
	u, err := repo.GetUser(context.Background(), db, id)
	if err != nil {
		t.Fatalf("get user %s: %v", id, err)
	}
	return u
}

func sumLedger(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	sum, err := repo.SumPoints(context.Background(), db, id)
	if err != nil {
		t.Fatalf("sum points: %v", err)
	}
	return sum
}

func seedEntry(t *testing.T, db *gorm.DB, contributorID, headword, status string) *domain.Entry {
	t.Helper()
	mustUser(t, db, contributorID)
	e := &domain.Entry{
		Headword:      headword,
		HeadwordFold:  foldHeadword(headword),
		Translation:   "translation of " + headword,
		Kind:          domain.KindWord,
		ContributorID: &contributorID,
		Status:        status,
	}
	if err := repo.CreateEntry(context.Background(), db, e); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return e
}

func mustGetEntry(t *testing.T, db *gorm.DB, id string) *domain.Entry {
	t.Helper()
	e, err := repo.GetEntry(context.Background(), db, id)
	if err != nil {
		t.Fatalf("get entry %s: %v", id, err)
	}
	return e
}

func badgeNames(t *testing.T, db *gorm.DB, userID string) map[string]bool {
	t.Helper()
	ubs, err := repo.ListUserBadges(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("list user badges: %v", err)
	}
	out := map[string]bool{}
	for _, ub := range ubs {
		out[ub.Badge.Name] = true
	}
	return out
}

// ---------- Award ----------

func TestRewards_Award_LedgerAndBalanceMove(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	if _, err := r.Award(ctx, db, "u1", 3, domain.KindVerification, "test credit"); err != nil {
		t.Fatalf("award: %v", err)
	}

	u := getUser(t, db, "u1")
	if u.Points != sumLedger(t, db, "u1") {
		t.Fatalf("balance %d diverges from ledger %d", u.Points, sumLedger(t, db, "u1"))
	}
	if u.VerificationsCount != 1 {
		t.Fatalf("verifications_count = %d, want 1", u.VerificationsCount)
	}
}

func TestRewards_Award_LevelRecomputed(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	if _, err := r.Award(ctx, db, "u1", 120, domain.KindDailyBonus, "big bonus"); err != nil {
		t.Fatalf("award: %v", err)
	}
	u := getUser(t, db, "u1")
	if u.Level != domain.LevelContributor {
		t.Fatalf("level = %q, want %q", u.Level, domain.LevelContributor)
	}
	// Crossing 100 also pays the Point Collector achievement.
	if !badgeNames(t, db, "u1")["Point Collector"] {
		t.Fatal("expected Point Collector badge at 100+ points")
	}
}

func TestRewards_Award_ZeroDeltaIsNoOp(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	tr, err := r.Award(ctx, db, "u1", 0, domain.KindVote, "nothing")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if tr != nil {
		t.Fatalf("zero-delta award produced a transaction: %+v", tr)
	}
	n, err := repo.CountTransactions(ctx, db, "u1")
	if err != nil {
		t.Fatalf("count txns: %v", err)
	}
	if n != 0 {
		t.Fatalf("ledger rows = %d, want 0", n)
	}
	if got := getUser(t, db, "u1").Points; got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
}

func TestRewards_AwardOnce_Idempotent(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")
	e := seedEntry(t, db, "c1", "tote", domain.StatusPending)

	issued, err := r.AwardOnce(ctx, db, e.ID, "u1", 5, domain.KindVerification, "accurate", "first")
	if err != nil || !issued {
		t.Fatalf("first grant: issued=%v err=%v", issued, err)
	}
	issued, err = r.AwardOnce(ctx, db, e.ID, "u1", 5, domain.KindVerification, "accurate", "retry")
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if issued {
		t.Fatal("second grant must be a no-op")
	}

	n, err := repo.CountTransactions(ctx, db, "u1")
	if err != nil {
		t.Fatalf("count txns: %v", err)
	}
	if n != 1 {
		t.Fatalf("ledger rows = %d, want 1", n)
	}
}

// ---------- EvaluateBadges ----------

func TestRewards_EvaluateBadges_FirstSteps(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	if _, err := r.Award(ctx, db, "u1", 2, domain.KindContribution, "first word"); err != nil {
		t.Fatalf("award: %v", err)
	}

	names := badgeNames(t, db, "u1")
	if !names["First Steps"] {
		t.Fatal("expected First Steps after first contribution")
	}
	// Contribution points + badge bonus, balance matching ledger.
	u := getUser(t, db, "u1")
	if want := 2 + 5; u.Points != want {
		t.Fatalf("points = %d, want %d", u.Points, want)
	}
	if u.Points != sumLedger(t, db, "u1") {
		t.Fatal("balance diverges from ledger after badge bonus")
	}
}

func TestRewards_EvaluateBadges_GrantOnce(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	for i := 0; i < 3; i++ {
		if _, err := r.Award(ctx, db, "u1", 2, domain.KindContribution, "word"); err != nil {
			t.Fatalf("award %d: %v", i, err)
		}
	}
	var count int64
	db.Model(&domain.UserBadge{}).Where("user_id = ?", "u1").Count(&count)
	if count != 1 {
		t.Fatalf("badge grants = %d, want exactly 1 (First Steps)", count)
	}
}

func TestRewards_EvaluateBadges_AchievementDoesNotRecurse(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	// 99 points via achievement kind: no badge evaluation runs, so Point
	// Collector is not granted even after a later 1-point achievement.
	if _, err := r.Award(ctx, db, "u1", 99, domain.KindAchievement, "bonus"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := r.Award(ctx, db, "u1", 1, domain.KindAchievement, "bonus"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if badgeNames(t, db, "u1")["Point Collector"] {
		t.Fatal("achievement grants must not trigger badge evaluation")
	}

	// The next regular grant picks it up.
	if _, err := r.Award(ctx, db, "u1", 1, domain.KindVote, "vote"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if !badgeNames(t, db, "u1")["Point Collector"] {
		t.Fatal("expected Point Collector on next non-achievement grant")
	}
}

func TestRewards_EvaluateBadges_SpecialPredicates(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()

	u := mustUser(t, db, "u1")
	u.ContributionsCount = 5
	u.VerificationsCount = 20
	if err := db.Save(u).Error; err != nil {
		t.Fatalf("save user: %v", err)
	}

	earned, err := r.EvaluateBadges(ctx, db, "u1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got := map[string]bool{}
	for _, n := range earned {
		got[n] = true
	}
	for _, want := range []string{"First Steps", "Helpful Verifier", "Community Hero"} {
		if !got[want] {
			t.Errorf("expected %s in %v", want, earned)
		}
	}
}

// ---------- TouchStreak ----------

func TestRewards_TouchStreak_SameDayNoOp(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	s1, err := r.TouchStreak(ctx, db, "u1", now)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	s2, err := r.TouchStreak(ctx, db, "u1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if s1.CurrentStreak != 1 || s2.CurrentStreak != 1 {
		t.Fatalf("streaks = %d, %d; want 1, 1", s1.CurrentStreak, s2.CurrentStreak)
	}
}

func TestRewards_TouchStreak_SeventhDayBonus(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for day := 0; day < 7; day++ {
		if _, err := r.TouchStreak(ctx, db, "u1", start.AddDate(0, 0, day)); err != nil {
			t.Fatalf("touch day %d: %v", day, err)
		}
	}

	s, err := repo.GetStreak(ctx, db, "u1")
	if err != nil {
		t.Fatalf("get streak: %v", err)
	}
	if s.CurrentStreak != 7 {
		t.Fatalf("current streak = %d, want 7", s.CurrentStreak)
	}
	// Bonus is twice the streak length, paid as an achievement.
	if got := sumLedger(t, db, "u1"); got != 14 {
		t.Fatalf("ledger sum = %d, want 14 (7-day bonus)", got)
	}
}

func TestRewards_TouchStreak_GapResets(t *testing.T) {
	db := newSvcDB(t)
	r := Rewards{Cfg: testCfg()}
	ctx := context.Background()
	mustUser(t, db, "u1")

	d1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if _, err := r.TouchStreak(ctx, db, "u1", d1); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if _, err := r.TouchStreak(ctx, db, "u1", d1.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("touch: %v", err)
	}
	s, err := r.TouchStreak(ctx, db, "u1", d1.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if s.CurrentStreak != 1 || s.LongestStreak != 2 {
		t.Fatalf("streak = %d/%d, want 1/2", s.CurrentStreak, s.LongestStreak)
	}
}
