package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"survey-service/internal/models"
	"survey-service/internal/quality"
	"survey-service/internal/questions"
	"survey-service/internal/repository"
)

const testCatalogue = `[
  {
    "category": "Interpersonal Relations",
    "subcategories": [
      {
        "subcategory": "Visiting and hospitality",
        "topics": [
          {"topic": "Reception of visitors", "questions": ["q1", "q2", "q3", "q4", "q5"]},
          {"topic": "Food offered to guests", "questions": ["q6", "q7", "q8", "q9", "q10"]}
        ]
      }
    ]
  }
]`

type testEnv struct {
	sessions  *repository.MemorySessionStore
	responses *repository.MemoryResponseStore
	quotas    *repository.MemoryQuotaStore
	service   *SessionService
	answers   *ResponseService
}

func newTestEnv(t *testing.T, limits map[models.Region]int) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(testCatalogue), 0644); err != nil {
		t.Fatalf("Failed to write catalogue: %v", err)
	}
	tree := questions.Load(path)

	sessions := repository.NewMemorySessionStore()
	responses := repository.NewMemoryResponseStore()
	quotas := repository.NewMemoryQuotaStore()
	if err := quotas.Init(context.Background(), limits); err != nil {
		t.Fatalf("Failed to init quotas: %v", err)
	}
	svc := NewSessionService(sessions, responses, quotas, repository.NewMemoryReservationStore(), tree, 7)
	return &testEnv{
		sessions:  sessions,
		responses: responses,
		quotas:    quotas,
		service:   svc,
		answers:   NewResponseService(sessions, responses, tree, quality.NewAnalyzer(nil)),
	}
}

func defaultLimits() map[models.Region]int {
	return map[models.Region]int{
		models.RegionNorth:   10,
		models.RegionSouth:   10,
		models.RegionEast:    10,
		models.RegionWest:    10,
		models.RegionCentral: 10,
	}
}

const (
	participantA = "abc123abc123abc123abc123"
	participantB = "def456def456def456def456"
)

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	session, err := env.service.CreateSession(ctx, CreateSessionRequest{
		ParticipantID: participantA,
		Region:        "North",
		Age:           30,
		YearsInRegion: 12,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.SessionID == "" {
		t.Error("Expected a generated session ID")
	}
	if session.Region != models.RegionNorth {
		t.Errorf("Expected region normalized to north, got %s", session.Region)
	}
	if session.Status != models.StatusActive {
		t.Errorf("Expected active status, got %s", session.Status)
	}
	if session.Progress.TotalQuestions != 10 {
		t.Errorf("Expected 10 total questions, got %d", session.Progress.TotalQuestions)
	}
	if session.Progress.LastCheckAt != -1 {
		t.Errorf("Expected fresh check watermark -1, got %d", session.Progress.LastCheckAt)
	}

	quotas, _ := env.quotas.Snapshot(ctx)
	for _, q := range quotas {
		if q.Region == models.RegionNorth && q.CurrentCount != 1 {
			t.Errorf("Expected north count 1, got %d", q.CurrentCount)
		}
	}
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	testCases := []struct {
		name string
		req  CreateSessionRequest
	}{
		{"short participant id", CreateSessionRequest{ParticipantID: "short", Region: "north", Age: 30}},
		{"non-alphanumeric id", CreateSessionRequest{ParticipantID: "abc123abc123abc123abc12!", Region: "north", Age: 30}},
		{"unknown region", CreateSessionRequest{ParticipantID: participantA, Region: "rajasthan", Age: 30}},
		{"under age", CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 17}},
		{"over age", CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 101}},
		{"negative years", CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 30, YearsInRegion: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.service.CreateSession(ctx, tc.req); !IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestDuplicateIdentityNeverConsumesSlot(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	req := CreateSessionRequest{ParticipantID: participantA, Region: "south", Age: 40}
	if _, err := env.service.CreateSession(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := env.service.CreateSession(ctx, req); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("Expected ErrDuplicateIdentity, got %v", err)
	}

	quotas, _ := env.quotas.Snapshot(ctx)
	for _, q := range quotas {
		if q.Region == models.RegionSouth && q.CurrentCount != 1 {
			t.Errorf("Expected south count to stay 1, got %d", q.CurrentCount)
		}
	}
}

func TestQuotaFullRejectsWithoutSession(t *testing.T) {
	env := newTestEnv(t, map[models.Region]int{models.RegionEast: 1})
	ctx := context.Background()

	if _, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "east", Age: 25}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantB, Region: "east", Age: 25})
	if !errors.Is(err, ErrQuotaFull) {
		t.Fatalf("Expected ErrQuotaFull, got %v", err)
	}

	quotas, _ := env.quotas.Snapshot(ctx)
	if quotas[0].CurrentCount != 1 {
		t.Errorf("Expected counter pinned at 1, got %d", quotas[0].CurrentCount)
	}
	// The refusal leaves an auditable rejected row, never an active session.
	rejected, err := env.sessions.FindByParticipantID(ctx, participantB)
	if err != nil {
		t.Fatalf("Expected a rejected row: %v", err)
	}
	if rejected.Status != models.StatusQuotaFull || rejected.RejectionReason == "" {
		t.Errorf("Expected quota_full rejection row, got %+v", rejected)
	}
}

func TestReserveRegionThenCreateConsumesOneSlot(t *testing.T) {
	env := newTestEnv(t, map[models.Region]int{models.RegionWest: 2})
	ctx := context.Background()

	outcome, err := env.service.ReserveRegion(ctx, participantA, "west")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Available {
		t.Fatalf("Expected a slot, got %+v", outcome)
	}

	if _, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "west", Age: 30}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	quotas, _ := env.quotas.Snapshot(ctx)
	if quotas[0].CurrentCount != 1 {
		t.Errorf("Expected one slot consumed across reserve+create, got %d", quotas[0].CurrentCount)
	}
}

func TestReserveRegionFullReportsUnavailable(t *testing.T) {
	env := newTestEnv(t, map[models.Region]int{models.RegionCentral: 1})
	ctx := context.Background()

	if _, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "central", Age: 30}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	outcome, err := env.service.ReserveRegion(ctx, participantB, "central")
	if err != nil {
		t.Fatalf("Full region must be an outcome, not an error: %v", err)
	}
	if outcome.Available {
		t.Errorf("Expected unavailable, got %+v", outcome)
	}
}

func TestCheckIdentity(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	exists, err := env.service.CheckIdentity(ctx, participantA)
	if err != nil || exists {
		t.Fatalf("Expected unused identity, got exists=%v err=%v", exists, err)
	}
	if _, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 30}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	exists, err = env.service.CheckIdentity(ctx, participantA)
	if err != nil || !exists {
		t.Fatalf("Expected used identity, got exists=%v err=%v", exists, err)
	}
	if _, err := env.service.CheckIdentity(ctx, "not-valid"); !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestUpdatePosition(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	session, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 30})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	pos := models.QuestionPosition{TopicIndex: 1, QuestionIndex: 3}
	if err := env.service.UpdatePosition(ctx, session.SessionID, pos); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stored, _ := env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.Position != pos {
		t.Errorf("Expected position %v, got %v", pos, stored.Progress.Position)
	}

	if err := env.service.UpdatePosition(ctx, session.SessionID, models.QuestionPosition{CategoryIndex: 9}); !IsValidation(err) {
		t.Errorf("Expected validation error for out-of-tree position, got %v", err)
	}
}

func TestResumeSkipsToFirstUnanswered(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	session, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 30})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Answered 0-0-0-0 and 0-0-0-2, leaving a gap at 0-0-0-1.
	for _, qi := range []int{0, 2} {
		pos := models.QuestionPosition{QuestionIndex: qi}
		if _, err := env.answers.Save(ctx, &models.Response{
			SessionID:  session.SessionID,
			QuestionID: pos.QuestionID(),
			Position:   pos,
			Answer:     "A proper answer about customs.",
			TimeSpent:  20,
		}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	pos, err := env.service.Resume(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := models.QuestionPosition{QuestionIndex: 1}
	if pos != want {
		t.Errorf("Expected resume at %v, got %v", want, pos)
	}
}

func TestCompleteReleasesSlotAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()

	session, err := env.service.CreateSession(ctx, CreateSessionRequest{ParticipantID: participantA, Region: "north", Age: 30})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := env.service.Complete(ctx, session.SessionID, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Reason != models.ReasonCompleted {
		t.Errorf("Expected default reason completed, got %s", result.Reason)
	}
	if result.TotalTimeFormatted == "" {
		t.Error("Expected formatted duration")
	}

	quotas, _ := env.quotas.Snapshot(ctx)
	for _, q := range quotas {
		if q.Region == models.RegionNorth && q.CurrentCount != 0 {
			t.Errorf("Expected slot released, got count %d", q.CurrentCount)
		}
	}

	// A retry with the same reason returns the stored result.
	again, err := env.service.Complete(ctx, session.SessionID, models.ReasonCompleted)
	if err != nil {
		t.Fatalf("Unexpected error on retry: %v", err)
	}
	if again.TotalTimeSeconds != result.TotalTimeSeconds {
		t.Errorf("Expected stored timing %d, got %d", result.TotalTimeSeconds, again.TotalTimeSeconds)
	}

	// A different reason is a conflict, not a second completion.
	if _, err := env.service.Complete(ctx, session.SessionID, models.ReasonTimeExpired); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("Expected ErrSessionTerminal, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{5, "5s"},
		{60, "1m"},
		{61, "1m 1s"},
		{120, "2m"},
		{3600, "1h"},
		{3723, "1h 2m 3s"},
		{7205, "2h 5s"},
	}
	for _, tc := range testCases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d): expected %q, got %q", tc.seconds, tc.want, got)
		}
	}
}
