package service

import (
	"context"
	"errors"
	"testing"

	"survey-service/internal/models"
)

func createTestSession(t *testing.T, env *testEnv) *models.Session {
	t.Helper()
	session, err := env.service.CreateSession(context.Background(), CreateSessionRequest{
		ParticipantID: participantA,
		Region:        "north",
		Age:           30,
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return session
}

func TestSaveResponse(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	resp := &models.Response{
		SessionID:  session.SessionID,
		QuestionID: "0-0-0-0",
		Position:   models.QuestionPosition{},
		Question:   "stale text the client cached",
		Answer:     "Homes are cleaned and sweets are prepared for the guests.",
		TimeSpent:  30,
	}
	result, err := env.answers.Save(ctx, resp)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Created {
		t.Error("Expected first save to report created")
	}
	if resp.QualityScore == nil {
		t.Error("Expected a quality score to be filled in")
	}
	// The catalogue text wins over whatever the client sent.
	if resp.Question != "q1" {
		t.Errorf("Expected snapshot replaced with catalogue text, got %q", resp.Question)
	}
	if resp.Category != "Interpersonal Relations" {
		t.Errorf("Expected category label snapshot, got %q", resp.Category)
	}

	stored, _ := env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.CompletedQuestions != 1 {
		t.Errorf("Expected 1 completed question, got %d", stored.Progress.CompletedQuestions)
	}
}

func TestSaveResponseUpsertDoesNotDoubleCount(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	resp := &models.Response{
		SessionID:  session.SessionID,
		QuestionID: "0-0-0-0",
		Answer:     "First version of the answer.",
		TimeSpent:  10,
	}
	if _, err := env.answers.Save(ctx, resp); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	resp.Answer = "Second, corrected version of the answer."
	result, err := env.answers.Save(ctx, resp)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Created {
		t.Error("Expected overwrite to report not created")
	}

	stored, _ := env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.CompletedQuestions != 1 {
		t.Errorf("Expected completed count to stay 1, got %d", stored.Progress.CompletedQuestions)
	}
	list, _ := env.answers.List(ctx, session.SessionID)
	if len(list) != 1 || list[0].Answer != "Second, corrected version of the answer." {
		t.Errorf("Expected last write to win, got %+v", list)
	}
}

func TestSaveResponseValidation(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	testCases := []struct {
		name string
		resp models.Response
	}{
		{"answer too short", models.Response{SessionID: session.SessionID, QuestionID: "0-0-0-0", Answer: "abc"}},
		{"missing question id", models.Response{SessionID: session.SessionID, Answer: "long enough answer"}},
		{"negative time", models.Response{SessionID: session.SessionID, QuestionID: "0-0-0-0", Answer: "long enough answer", TimeSpent: -1}},
		{"malformed question id", models.Response{SessionID: session.SessionID, QuestionID: "not-an-id", Answer: "long enough answer"}},
		{"position id mismatch", models.Response{
			SessionID:  session.SessionID,
			QuestionID: "0-0-0-0",
			Position:   models.QuestionPosition{QuestionIndex: 3},
			Answer:     "long enough answer",
		}},
		{"position outside tree", models.Response{
			SessionID:  session.SessionID,
			QuestionID: "5-0-0-0",
			Position:   models.QuestionPosition{CategoryIndex: 5},
			Answer:     "long enough answer",
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := tc.resp
			if _, err := env.answers.Save(ctx, &resp); !IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestSaveResponseUnknownSession(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	_, err := env.answers.Save(context.Background(), &models.Response{
		SessionID:  "no-such-session",
		QuestionID: "0-0-0-0",
		Answer:     "long enough answer",
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveResponseSurfacesPattern(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	var last *SaveResult
	for qi := 0; qi < 3; qi++ {
		pos := models.QuestionPosition{QuestionIndex: qi}
		result, err := env.answers.Save(ctx, &models.Response{
			SessionID:  session.SessionID,
			QuestionID: pos.QuestionID(),
			Position:   pos,
			Answer:     "none",
			TimeSpent:  2,
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		last = result
	}
	if last.Pattern == nil {
		t.Fatal("Expected a pattern verdict after three suspicious answers")
	}
	if !last.Pattern.SuspiciousPattern || last.Pattern.IssueType != "none" {
		t.Errorf("Expected suspicious none pattern, got %+v", last.Pattern)
	}
}

func TestSaveBatch(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	batch := []models.Response{
		{QuestionID: "0-0-0-0", Answer: "First answer in the batch.", TimeSpent: 12},
		{QuestionID: "0-0-0-1", Position: models.QuestionPosition{QuestionIndex: 1}, Answer: "Second answer in the batch.", TimeSpent: 18},
	}
	created, err := env.answers.SaveBatch(ctx, session.SessionID, batch)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("Expected 2 created, got %d", created)
	}
	stored, _ := env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.CompletedQuestions != 2 {
		t.Errorf("Expected 2 completed questions, got %d", stored.Progress.CompletedQuestions)
	}

	// Resubmitting the same batch only updates.
	created, err = env.answers.SaveBatch(ctx, session.SessionID, batch)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected 0 created on resubmit, got %d", created)
	}
	stored, _ = env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.CompletedQuestions != 2 {
		t.Errorf("Expected completed count unchanged, got %d", stored.Progress.CompletedQuestions)
	}
}

func TestSaveBatchMixedUpdateAndAttentionInsertDoesNotInflateProgress(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	// One real question already answered.
	if _, err := env.answers.Save(ctx, &models.Response{
		SessionID:  session.SessionID,
		QuestionID: "0-0-0-0",
		Answer:     "First version of the answer.",
		TimeSpent:  10,
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The batch revises that answer and adds a new attention-check row. The
	// update is not new and the check never counts, so progress must not move.
	batch := []models.Response{
		{QuestionID: "0-0-0-0", Answer: "Revised version of the answer.", TimeSpent: 14},
		{
			QuestionID:       models.AttentionCheckID(1, "0-0-0-0"),
			IsAttentionCheck: true,
			Answer:           "india",
			TimeSpent:        5,
		},
	}
	created, err := env.answers.SaveBatch(ctx, session.SessionID, batch)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created != 1 {
		t.Errorf("Expected only the check row created, got %d", created)
	}

	stored, _ := env.service.GetSession(ctx, session.SessionID)
	if stored.Progress.CompletedQuestions != 1 {
		t.Errorf("Expected completed count to stay 1, got %d", stored.Progress.CompletedQuestions)
	}
	list, _ := env.answers.List(ctx, session.SessionID)
	if len(list) != 2 {
		t.Errorf("Expected 2 stored responses, got %d", len(list))
	}
}

func TestSaveBatchRejectsWholeBatchOnBadItem(t *testing.T) {
	env := newTestEnv(t, defaultLimits())
	ctx := context.Background()
	session := createTestSession(t, env)

	batch := []models.Response{
		{QuestionID: "0-0-0-0", Answer: "Perfectly fine answer.", TimeSpent: 12},
		{QuestionID: "0-0-0-1", Position: models.QuestionPosition{QuestionIndex: 1}, Answer: "abc", TimeSpent: 5},
	}
	if _, err := env.answers.SaveBatch(ctx, session.SessionID, batch); !IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	list, _ := env.answers.List(ctx, session.SessionID)
	if len(list) != 0 {
		t.Errorf("Expected nothing written, got %d responses", len(list))
	}
}
