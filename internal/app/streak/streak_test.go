package streak_test

import (
	"testing"
	"time"

	"github.com/whylee-play/whylee/internal/app/streak"
	"github.com/whylee-play/whylee/internal/domain"
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

func day(d int) time.Time {
	return time.Date(2025, 7, d, 12, 0, 0, 0, time.UTC)
}

func TestAdvance_ConsecutiveDayExtends(t *testing.T) {
	rec := domain.DailyStreakRecord{Count: 1, LastActive: day(1)}
	got := streak.Advance(day(2), rec)
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}
	if !got.LastActive.Equal(day(2).Truncate(24 * time.Hour)) {
		t.Errorf("lastActive = %v, want day 2", got.LastActive)
	}
}

func TestAdvance_SameDayIdempotent(t *testing.T) {
	rec := domain.DailyStreakRecord{Count: 1, LastActive: day(2)}
	got := streak.Advance(day(2), rec)
	if got.Count != 1 {
		t.Errorf("count = %d, want 1 (unchanged)", got.Count)
	}
	// Different hour, same calendar day.
	got = streak.Advance(day(2).Add(9*time.Hour), rec)
	if got.Count != 1 {
		t.Errorf("count = %d, want 1 (same day, later hour)", got.Count)
	}
}

func TestAdvance_GapResetsToOne(t *testing.T) {
	rec := domain.DailyStreakRecord{Count: 3, LastActive: day(1)}
	got := streak.Advance(day(5), rec)
	if got.Count != 1 {
		t.Errorf("count after 4-day gap = %d, want 1 (not 0)", got.Count)
	}
}

func TestAdvance_LocalCalendarDaysEastOfUTC(t *testing.T) {
	// Late evening then next morning in UTC+10: consecutive local days
	// that fall inside a single 24h UTC window.
	loc := time.FixedZone("UTC+10", 10*3600)
	evening := time.Date(2025, 7, 1, 23, 0, 0, 0, loc)
	morning := time.Date(2025, 7, 2, 9, 0, 0, 0, loc)

	rec := streak.Advance(evening, domain.DailyStreakRecord{})
	if rec.Count != 1 {
		t.Fatalf("count = %d, want 1", rec.Count)
	}
	rec = streak.Advance(morning, rec)
	if rec.Count != 2 {
		t.Errorf("count = %d, want 2 (next local day must extend)", rec.Count)
	}
}

func TestAdvance_SameLocalDayAcrossUTCMidnight(t *testing.T) {
	// Two plays the same local evening in UTC-5 straddle UTC midnight;
	// the second must still be a no-op.
	loc := time.FixedZone("UTC-5", -5*3600)
	early := time.Date(2025, 7, 1, 18, 0, 0, 0, loc)
	late := time.Date(2025, 7, 1, 21, 0, 0, 0, loc)

	rec := streak.Advance(early, domain.DailyStreakRecord{})
	rec = streak.Advance(late, rec)
	if rec.Count != 1 {
		t.Errorf("count = %d, want 1 (same local day)", rec.Count)
	}
}

func TestAdvance_FirstEverActivity(t *testing.T) {
	got := streak.Advance(day(10), domain.DailyStreakRecord{})
	if got.Count != 1 {
		t.Errorf("count = %d, want 1", got.Count)
	}
}

func TestRecord_Multiplier(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 1.0},
		{1, 1.05},
		{10, 1.5},
		{20, 2.0},
		{100, 2.0}, // capped
	}
	for _, tt := range tests {
		rec := domain.DailyStreakRecord{Count: tt.count}
		if got := rec.Multiplier(); got != tt.want {
			t.Errorf("Multiplier(%d days) = %.2f, want %.2f", tt.count, got, tt.want)
		}
	}
}

// ─── Service (persistence) ──────────────────────────────────────────────────

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestService_CheckInPersists(t *testing.T) {
	db := testDB(t)
	svc := streak.NewService(db)

	for i := 0; i < 5; i++ {
		if _, err := svc.CheckIn(day(1 + i)); err != nil {
			t.Fatalf("checkin day %d: %v", i, err)
		}
	}

	rec, err := svc.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if rec.Count != 5 {
		t.Errorf("count = %d, want 5", rec.Count)
	}
}

func TestService_DoubleCheckInSameDay(t *testing.T) {
	db := testDB(t)
	svc := streak.NewService(db)

	first, _ := svc.CheckIn(day(1))
	second, err := svc.CheckIn(day(1).Add(3 * time.Hour))
	if err != nil {
		t.Fatalf("second checkin: %v", err)
	}
	if second.Count != first.Count {
		t.Errorf("second same-day checkin changed count: %d vs %d", second.Count, first.Count)
	}
}

func TestService_GapAcrossRestart(t *testing.T) {
	db := testDB(t)
	svc := streak.NewService(db)

	_, _ = svc.CheckIn(day(1))
	_, _ = svc.CheckIn(day(2))

	// Fresh service over the same database — state survives.
	svc2 := streak.NewService(db)
	rec, err := svc2.CheckIn(day(6))
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if rec.Count != 1 {
		t.Errorf("count after gap = %d, want 1", rec.Count)
	}
}
