package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()
	pool, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return pool
}

func testClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	for i := 0; i < 2; i++ {
		if err := pool.Migrate(context.Background()); err != nil {
			t.Fatalf("repeat migrate %d failed: %v", i, err)
		}
	}
}

func TestRosterRepository_CreateGetUpdate(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRosterRepository(pool, testClock())
	ctx := context.Background()

	employee := persistence.Employee{
		EmpID:     "F001",
		Name:      "王小明",
		Category:  "2000",
		PeriodKey: "2025-06",
	}
	if err := repo.CreateEmployee(ctx, employee); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.CreateEmployee(ctx, employee); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on repeat create, got %v", err)
	}

	got, err := repo.GetEmployee(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "王小明" || got.Category != "2000" || got.HasVoted {
		t.Errorf("unexpected employee: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps set, got %+v", got)
	}

	voted := time.Date(2025, 6, 16, 9, 30, 0, 0, time.UTC)
	got.HasVoted = true
	got.LastVoteTime = &voted
	if err := repo.UpdateEmployee(ctx, got); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err = repo.GetEmployee(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if !got.HasVoted || got.LastVoteTime == nil || !got.LastVoteTime.Equal(voted) {
		t.Errorf("expected voting state persisted, got %+v", got)
	}

	if _, err := repo.GetEmployee(ctx, "F001", "2025-07"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other period, got %v", err)
	}
	if err := repo.UpdateEmployee(ctx, persistence.Employee{EmpID: "F999", PeriodKey: "2025-06"}); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating unknown employee, got %v", err)
	}
}

func TestRosterRepository_CategoryConstraint(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRosterRepository(pool, testClock())

	err := repo.CreateEmployee(context.Background(), persistence.Employee{
		EmpID:     "X001",
		Category:  "9000",
		PeriodKey: "2025-06",
	})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestRosterRepository_ListCountAndReset(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRosterRepository(pool, testClock())
	ctx := context.Background()

	voted := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	seed := []persistence.Employee{
		{EmpID: "F002", Name: "陳大文", Category: "2000", PeriodKey: "2025-06"},
		{EmpID: "F001", Name: "王小明", Category: "2000", PeriodKey: "2025-06", HasVoted: true, LastVoteTime: &voted},
		{EmpID: "R001", Name: "林美玲", Category: "3000", PeriodKey: "2025-05"},
	}
	for _, employee := range seed {
		if err := repo.CreateEmployee(ctx, employee); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
	}

	employees, err := repo.ListEmployees(ctx, "2025-06")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(employees) != 2 || employees[0].EmpID != "F001" || employees[1].EmpID != "F002" {
		t.Errorf("expected id-ordered 2025-06 roster, got %+v", employees)
	}

	count, err := repo.CountEmployees(ctx, "2025-05")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 employee in 2025-05, got %d", count)
	}

	if err := repo.ResetVotingState(ctx, "2025-06"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	got, err := repo.GetEmployee(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("get after reset failed: %v", err)
	}
	if got.HasVoted || got.LastVoteTime != nil {
		t.Errorf("expected voting flags cleared, got %+v", got)
	}
}

func TestLedgerRepository_AppendScanOrder(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		event := persistence.VoteEvent{
			ID:             fmt.Sprintf("vote-%d", 3-i),
			PeriodKey:      "2025-06",
			VoterID:        "F001",
			VoterCategory:  "2000",
			TargetID:       fmt.Sprintf("R%03d", i+1),
			TargetCategory: "3000",
			CastAt:         base.Add(time.Duration(3-i) * time.Minute),
		}
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	events, err := repo.Scan(ctx, "2025-06")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].CastAt.Before(events[i-1].CastAt) {
			t.Errorf("expected cast-time order, got %v before %v", events[i-1].CastAt, events[i].CastAt)
		}
	}
}

func TestLedgerRepository_DuplicateID(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	event := persistence.VoteEvent{
		ID:             "vote-1",
		PeriodKey:      "2025-06",
		VoterID:        "F001",
		VoterCategory:  "2000",
		TargetID:       "R001",
		TargetCategory: "3000",
		CastAt:         time.Now(),
	}
	if err := repo.Append(ctx, event); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := repo.Append(ctx, event); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLedgerRepository_ListPeriodsAndDelete(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	for i, key := range []string{"2025-06", "2025-05", "2025-06"} {
		event := persistence.VoteEvent{
			ID:             fmt.Sprintf("vote-%d", i),
			PeriodKey:      key,
			VoterID:        "F001",
			VoterCategory:  "2000",
			TargetID:       "R001",
			TargetCategory: "3000",
			CastAt:         time.Now(),
		}
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	keys, err := repo.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("list periods failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "2025-05" || keys[1] != "2025-06" {
		t.Errorf("expected ascending distinct periods, got %v", keys)
	}

	if err := repo.DeletePeriod(ctx, "2025-06"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	events, err := repo.Scan(ctx, "2025-06")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected period cleared, got %d events", len(events))
	}
	events, _ = repo.Scan(ctx, "2025-05")
	if len(events) != 1 {
		t.Errorf("expected other period untouched, got %d events", len(events))
	}
}

func TestTallyRepository_IncrementAndGetUsed(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewTallyRepository(pool, testClock())
	ctx := context.Background()

	used, err := repo.GetUsed(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("get on missing row failed: %v", err)
	}
	if used != 0 {
		t.Errorf("expected lazy zero, got %d", used)
	}

	for i := 0; i < 3; i++ {
		if err := repo.Increment(ctx, "F001", "2025-06", "2000"); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}

	used, err = repo.GetUsed(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if used != 3 {
		t.Errorf("expected 3, got %d", used)
	}

	// Other periods stay independent.
	used, _ = repo.GetUsed(ctx, "F001", "2025-07")
	if used != 0 {
		t.Errorf("expected 0 in other period, got %d", used)
	}
}

func TestTallyRepository_ReplaceForPeriod(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewTallyRepository(pool, testClock())
	ctx := context.Background()

	if err := repo.Increment(ctx, "F001", "2025-06", "2000"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := repo.Increment(ctx, "R001", "2025-05", "3000"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	rows := []persistence.TallyRow{
		{EmpID: "F002", PeriodKey: "2025-06", Category: "2000", VotesUsed: 2},
	}
	if err := repo.ReplaceForPeriod(ctx, "2025-06", rows); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	used, _ := repo.GetUsed(ctx, "F001", "2025-06")
	if used != 0 {
		t.Errorf("expected old row removed, got %d", used)
	}
	used, _ = repo.GetUsed(ctx, "F002", "2025-06")
	if used != 2 {
		t.Errorf("expected replacement row at 2, got %d", used)
	}
	used, _ = repo.GetUsed(ctx, "R001", "2025-05")
	if used != 1 {
		t.Errorf("expected other period untouched, got %d", used)
	}
}

func TestVoteStore_RecordVote_AppendsAndIncrements(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	store := NewVoteStore(pool, testClock())
	ledger := NewLedgerRepository(pool)
	tally := NewTallyRepository(pool, testClock())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		event := persistence.VoteEvent{
			ID:             fmt.Sprintf("vote-%d", i),
			PeriodKey:      "2025-06",
			VoterID:        "F001",
			VoterName:      "王小明",
			VoterCategory:  "2000",
			TargetID:       fmt.Sprintf("R%03d", i+1),
			TargetCategory: "3000",
			CastAt:         time.Date(2025, 6, 15, 10, i, 0, 0, time.UTC),
		}
		if err := store.RecordVote(ctx, event); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	events, err := ledger.Scan(ctx, "2025-06")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	used, err := tally.GetUsed(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("tally read failed: %v", err)
	}
	if len(events) != 2 || used != 2 {
		t.Errorf("expected ledger and tally in step at 2, got %d events and tally %d", len(events), used)
	}
}

func TestVoteStore_RecordVote_DuplicateLeavesTallyUntouched(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	store := NewVoteStore(pool, testClock())
	tally := NewTallyRepository(pool, testClock())
	ctx := context.Background()

	event := persistence.VoteEvent{
		ID:             "vote-1",
		PeriodKey:      "2025-06",
		VoterID:        "F001",
		VoterCategory:  "2000",
		TargetID:       "R001",
		TargetCategory: "3000",
		CastAt:         time.Now(),
	}
	if err := store.RecordVote(ctx, event); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	// The second insert hits the primary key; the whole transaction must
	// roll back, including the increment.
	if err := store.RecordVote(ctx, event); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	used, err := tally.GetUsed(ctx, "F001", "2025-06")
	if err != nil {
		t.Fatalf("tally read failed: %v", err)
	}
	if used != 1 {
		t.Errorf("expected tally unchanged at 1 after failed record, got %d", used)
	}
}

func TestQuotaRepository_SetGetList(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewQuotaRepository(pool, testClock())
	ctx := context.Background()

	if _, err := repo.GetQuota(ctx, "2000"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before seeding, got %v", err)
	}

	if err := repo.SetQuota(ctx, "2000", 3); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.SetQuota(ctx, "3000", 2); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.SetQuota(ctx, "2000", 5); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	max, err := repo.GetQuota(ctx, "2000")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if max != 5 {
		t.Errorf("expected upserted quota 5, got %d", max)
	}

	settings, err := repo.ListQuotas(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(settings) != 2 {
		t.Errorf("expected 2 settings, got %+v", settings)
	}

	if err := repo.SetQuota(ctx, "2000", 0); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("expected ErrConstraintViolation for zero quota, got %v", err)
	}
	if err := repo.SetQuota(ctx, "9000", 3); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("expected ErrConstraintViolation for unknown category, got %v", err)
	}
}

func TestAdminRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewAdminRepository(pool, testClock())
	ctx := context.Background()

	account := persistence.AdminAccount{
		ID:           "admin",
		DisplayName:  "管理員",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$salt$hash",
	}
	if err := repo.CreateAdmin(ctx, account); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.CreateAdmin(ctx, account); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.GetAdmin(ctx, "admin")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PasswordHash != account.PasswordHash || got.DisplayName != "管理員" {
		t.Errorf("unexpected account: %+v", got)
	}

	if _, err := repo.GetAdmin(ctx, "nobody"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	admins := NewAdminRepository(pool, testClock())
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	if err := admins.CreateAdmin(ctx, persistence.AdminAccount{ID: "admin", PasswordHash: "hash"}); err != nil {
		t.Fatalf("admin seed failed: %v", err)
	}

	issued := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	session := persistence.Session{
		ID:        "session-1",
		AdminID:   "admin",
		Token:     "token-1",
		ExpiresAt: issued.Add(time.Hour),
		CreatedAt: issued,
	}
	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.AdminID != "admin" || got.RevokedAt != nil {
		t.Errorf("unexpected session: %+v", got)
	}

	revoked, err := repo.RevokeSession(ctx, "token-1", issued.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Errorf("expected revocation stamped, got %+v", revoked)
	}

	if _, err := repo.RevokeSession(ctx, "no-such-token", issued); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteExpiredSessions(ctx, issued.Add(2*time.Hour)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected session purged, got %v", err)
	}
}

func TestSessionRepository_ForeignKeyEnforced(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewSessionRepository(pool)

	_, err := repo.CreateSession(context.Background(), persistence.Session{
		ID:        "session-1",
		AdminID:   "nobody",
		Token:     "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}
