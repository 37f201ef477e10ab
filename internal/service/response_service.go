package service

import (
	"context"
	"errors"
	"log"
	"time"

	"survey-service/internal/models"
	"survey-service/internal/quality"
	"survey-service/internal/questions"
	"survey-service/internal/repository"
)

// ResponseService persists answers with upsert-by-(session, question)
// semantics so a resubmission after a lost acknowledgment lands on the same
// document. Quality findings ride along as advisory output.
type ResponseService struct {
	Sessions  SessionStore
	Responses ResponseStore
	Tree      *questions.Tree
	Analyzer  *quality.Analyzer
}

func NewResponseService(sessions SessionStore, responses ResponseStore, tree *questions.Tree, analyzer *quality.Analyzer) *ResponseService {
	if analyzer == nil {
		analyzer = quality.NewAnalyzer(nil)
	}
	return &ResponseService{Sessions: sessions, Responses: responses, Tree: tree, Analyzer: analyzer}
}

// SaveResult reports what happened to a save plus the advisory quality view.
type SaveResult struct {
	Created bool                   `json:"created"`
	Quality quality.Result         `json:"quality"`
	Pattern *quality.PatternResult `json:"pattern,omitempty"`
}

// Save validates, snapshots the authoritative question text and upserts.
// Last write wins for the same question ID; only the first write counts
// toward progress, and attention checks never count at all.
func (s *ResponseService) Save(ctx context.Context, resp *models.Response) (*SaveResult, error) {
	if err := resp.Validate(); err != nil {
		return nil, invalid("response", err.Error())
	}

	session, err := s.Sessions.FindBySessionID(ctx, resp.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, ErrSessionTerminal
	}

	if err := s.prepare(resp); err != nil {
		return nil, err
	}

	verdict := s.Analyzer.ScoreResponse(resp.Answer)
	if resp.QualityScore == nil {
		score := verdict.Score
		resp.QualityScore = &score
	}
	resp.SubmittedAt = time.Now().UTC()

	created, err := s.Responses.Upsert(ctx, resp)
	if err != nil {
		return nil, err
	}
	if created && !resp.IsAttentionCheck {
		if err := s.Sessions.IncrementCompleted(ctx, resp.SessionID, 1); err != nil {
			return nil, err
		}
	}

	result := &SaveResult{Created: created, Quality: verdict}
	if !resp.IsAttentionCheck {
		if pattern, err := s.sessionPattern(ctx, resp.SessionID); err == nil && pattern.SuspiciousPattern {
			result.Pattern = pattern
		}
	}
	return result, nil
}

// prepare validates tree coordinates and snapshots catalogue text for
// regular answers. Attention checks carry synthetic IDs and their own text.
func (s *ResponseService) prepare(resp *models.Response) error {
	if resp.IsAttentionCheck || models.IsAttentionCheckID(resp.QuestionID) {
		resp.IsAttentionCheck = true
		return nil
	}
	pos, err := models.ParseQuestionID(resp.QuestionID)
	if err != nil {
		return invalid("questionId", err.Error())
	}
	if pos != resp.Position {
		return invalid("position", "does not match question id")
	}
	actual, ok := s.Tree.QuestionAt(pos)
	if !ok {
		return invalid("position", "question at "+resp.QuestionID+" does not exist")
	}
	if resp.Question != actual {
		log.Printf("question text mismatch for %s, replacing with catalogue text", resp.QuestionID)
		resp.Question = actual
	}
	category, subcategory, topic, _ := s.Tree.Labels(pos)
	resp.Category = category
	resp.Subcategory = subcategory
	resp.Topic = topic
	return nil
}

// SaveBatch applies Save semantics to a batch: everything is validated
// before anything is written.
func (s *ResponseService) SaveBatch(ctx context.Context, sessionID string, responses []models.Response) (created int, err error) {
	if len(responses) == 0 {
		return 0, invalid("responses", "must not be empty")
	}
	session, err := s.Sessions.FindBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	if session.Status.Terminal() {
		return 0, ErrSessionTerminal
	}

	now := time.Now().UTC()
	for i := range responses {
		resp := &responses[i]
		resp.SessionID = sessionID
		if err := resp.Validate(); err != nil {
			return 0, invalid("response", err.Error())
		}
		if err := s.prepare(resp); err != nil {
			return 0, err
		}
		if resp.QualityScore == nil {
			score := s.Analyzer.ScoreResponse(resp.Answer).Score
			resp.QualityScore = &score
		}
		resp.SubmittedAt = now
	}

	insertedAt, err := s.Responses.BulkUpsert(ctx, responses)
	if err != nil {
		return 0, err
	}
	// Progress counts only newly inserted regular answers; attention-check
	// rows never count no matter how they arrive.
	bump := 0
	for i, isNew := range insertedAt {
		if !isNew {
			continue
		}
		created++
		if !responses[i].IsAttentionCheck {
			bump++
		}
	}
	if bump > 0 {
		if err := s.Sessions.IncrementCompleted(ctx, sessionID, bump); err != nil {
			return created, err
		}
	}
	return created, nil
}

// List returns a session's responses sorted by tree position.
func (s *ResponseService) List(ctx context.Context, sessionID string) ([]models.Response, error) {
	if _, err := s.Sessions.FindBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.Responses.ListBySession(ctx, sessionID)
}

// sessionPattern runs the advisory pattern analysis over the session's
// regular answers.
func (s *ResponseService) sessionPattern(ctx context.Context, sessionID string) (*quality.PatternResult, error) {
	responses, err := s.Responses.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	samples := make([]quality.Sample, 0, len(responses))
	for _, r := range responses {
		if r.IsAttentionCheck {
			continue
		}
		samples = append(samples, quality.Sample{Answer: r.Answer, TimeSpent: r.TimeSpent})
	}
	pattern := s.Analyzer.AnalyzePattern(samples)
	return &pattern, nil
}
