package testfixtures

import (
	"testing"
	"time"

	"github.com/example/shiftvote/internal/application"
)

func TestIDGenerator_Sequence(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("vote")
	if got := gen.Next(); got != "vote-1" {
		t.Fatalf("expected vote-1, got %q", got)
	}
	if got := gen.Next(); got != "vote-2" {
		t.Fatalf("expected vote-2, got %q", got)
	}

	gen.Reset()
	if got := gen.Next(); got != "vote-1" {
		t.Errorf("expected sequence to restart, got %q", got)
	}
}

func TestNewEmployeeFixture_Overrides(t *testing.T) {
	t.Parallel()

	voted := ReferenceTime().Add(time.Hour)
	fixture := NewEmployeeFixture(
		WithEmpID("F001"),
		WithEmployeeName("王小明"),
		WithCategory(application.CategoryFixed),
		WithPeriod("2025-05"),
		WithVoted(voted),
	)

	emp := fixture.Application()
	if emp.EmpID != "F001" || emp.Name != "王小明" || emp.Category != application.CategoryFixed {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if emp.PeriodKey != "2025-05" {
		t.Errorf("expected period override, got %q", emp.PeriodKey)
	}
	if !emp.HasVoted || emp.LastVoteTime == nil || !emp.LastVoteTime.Equal(voted) {
		t.Errorf("expected voted state, got %+v", emp)
	}

	stored := fixture.Persistence()
	if stored.Category != "2000" || stored.PeriodKey != "2025-05" {
		t.Errorf("unexpected persistence mapping: %+v", stored)
	}

	input := fixture.Input()
	if input.EmpID != "F001" || input.Category != application.CategoryFixed {
		t.Errorf("unexpected input mapping: %+v", input)
	}
}

func TestNewEmployeeFixture_Deterministic(t *testing.T) {
	t.Parallel()

	first := NewEmployeeFixture()
	second := NewEmployeeFixture()
	if first.EmpID == second.EmpID {
		t.Errorf("expected distinct generated IDs, got %q twice", first.EmpID)
	}
	if first.PeriodKey != ReferencePeriod {
		t.Errorf("expected default period %q, got %q", ReferencePeriod, first.PeriodKey)
	}
}

func TestNewVoteEventFixture_CrossCategoryDefault(t *testing.T) {
	t.Parallel()

	fixture := NewVoteEventFixture()
	if fixture.VoterCategory == fixture.TargetCategory {
		t.Errorf("default event should pair complementary categories: %+v", fixture)
	}

	event := NewVoteEventFixture(
		WithVoter("R001", "林美玲", application.CategoryRotating),
		WithTarget("F001", "王小明", application.CategoryFixed),
		WithVotePeriod("2025-05"),
	).Application()
	if event.VoterID != "R001" || event.TargetID != "F001" || event.PeriodKey != "2025-05" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestNewSessionFixture_RevocationAndExpiry(t *testing.T) {
	t.Parallel()

	revoked := ReferenceTime().Add(2 * time.Hour)
	fixture := NewSessionFixture(
		WithSessionAdmin("admin"),
		WithSessionToken("token-x"),
		WithSessionExpiry(ReferenceTime().Add(time.Hour)),
		WithSessionRevoked(revoked),
	)

	session := fixture.Application()
	if session.AdminID != "admin" || session.Token != "token-x" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.RevokedAt == nil || !session.RevokedAt.Equal(revoked) {
		t.Errorf("expected revocation timestamp, got %+v", session.RevokedAt)
	}

	// Mutating the materialised copy must not leak back into the fixture.
	*session.RevokedAt = session.RevokedAt.Add(time.Hour)
	if !fixture.RevokedAt.Equal(revoked) {
		t.Errorf("fixture revocation time should be isolated from copies")
	}
}

func TestNewAdminFixture_Principal(t *testing.T) {
	t.Parallel()

	fixture := NewAdminFixture(WithAdminID("admin"))
	principal := fixture.Principal()
	if principal.AdminID != "admin" || !principal.IsAdmin {
		t.Errorf("unexpected principal: %+v", principal)
	}
}
