package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"survey-service/internal/models"
)

// In-memory stores for single-instance deployments and tests. They honor the
// same contracts as the Mongo repositories; the quota store in particular
// keeps the compare-and-increment semantics, just under a mutex instead of a
// database conditional update.

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session // by session_id
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *MemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.SessionID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.sessions {
		if existing.ParticipantID == session.ParticipantID {
			return ErrDuplicate
		}
	}
	clone := *session
	s.sessions[session.SessionID] = &clone
	return nil
}

func (s *MemorySessionStore) FindBySessionID(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (s *MemorySessionStore) FindByParticipantID(_ context.Context, participantID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.ParticipantID == participantID {
			clone := *session
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemorySessionStore) mutate(sessionID string, fn func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	fn(session)
	session.LastActiveAt = time.Now().UTC()
	return nil
}

func (s *MemorySessionStore) UpdatePosition(_ context.Context, sessionID string, pos models.QuestionPosition) error {
	return s.mutate(sessionID, func(session *models.Session) {
		session.Progress.Position = pos
	})
}

func (s *MemorySessionStore) SetTotalQuestions(_ context.Context, sessionID string, total int) error {
	return s.mutate(sessionID, func(session *models.Session) {
		session.Progress.TotalQuestions = total
	})
}

func (s *MemorySessionStore) IncrementCompleted(_ context.Context, sessionID string, delta int) error {
	return s.mutate(sessionID, func(session *models.Session) {
		session.Progress.CompletedQuestions += delta
	})
}

func (s *MemorySessionStore) SetCheckWatermark(_ context.Context, sessionID string, watermark int) error {
	return s.mutate(sessionID, func(session *models.Session) {
		session.Progress.LastCheckAt = watermark
	})
}

func (s *MemorySessionStore) RecordAttentionCheck(_ context.Context, sessionID string, passed bool, watermark int) error {
	return s.mutate(sessionID, func(session *models.Session) {
		if passed {
			session.Progress.AttentionChecksPassed++
		} else {
			session.Progress.AttentionChecksFailed++
		}
		session.Progress.LastCheckAt = watermark
	})
}

func (s *MemorySessionStore) Complete(_ context.Context, sessionID string, status models.Status, reason string, timing models.Timing) error {
	return s.mutate(sessionID, func(session *models.Session) {
		session.Status = status
		session.CompletionReason = reason
		session.Timing = timing
	})
}

type responseKey struct {
	sessionID  string
	questionID string
}

type MemoryResponseStore struct {
	mu        sync.Mutex
	responses map[responseKey]models.Response
}

func NewMemoryResponseStore() *MemoryResponseStore {
	return &MemoryResponseStore{responses: make(map[responseKey]models.Response)}
}

func (s *MemoryResponseStore) Upsert(_ context.Context, resp *models.Response) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{resp.SessionID, resp.QuestionID}
	_, exists := s.responses[key]
	s.responses[key] = *resp
	return !exists, nil
}

func (s *MemoryResponseStore) BulkUpsert(ctx context.Context, responses []models.Response) ([]bool, error) {
	created := make([]bool, len(responses))
	for i := range responses {
		isNew, err := s.Upsert(ctx, &responses[i])
		if err != nil {
			return nil, err
		}
		created[i] = isNew
	}
	return created, nil
}

func (s *MemoryResponseStore) ListBySession(_ context.Context, sessionID string) ([]models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Response
	for key, resp := range s.responses {
		if key.sessionID == sessionID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.CategoryIndex != b.CategoryIndex {
			return a.CategoryIndex < b.CategoryIndex
		}
		if a.SubcategoryIndex != b.SubcategoryIndex {
			return a.SubcategoryIndex < b.SubcategoryIndex
		}
		if a.TopicIndex != b.TopicIndex {
			return a.TopicIndex < b.TopicIndex
		}
		return a.QuestionIndex < b.QuestionIndex
	})
	return out, nil
}

type MemoryReservationStore struct {
	mu           sync.Mutex
	reservations map[string]models.Region // by participant_id
}

func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{reservations: make(map[string]models.Region)}
}

func (s *MemoryReservationStore) Put(_ context.Context, participantID string, region models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[participantID] = region
	return nil
}

func (s *MemoryReservationStore) Take(_ context.Context, participantID string, region models.Region) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.reservations[participantID]
	if !ok || held != region {
		return false, nil
	}
	delete(s.reservations, participantID)
	return true, nil
}

// MemoryQuotaStore guards the counters with a mutex so reserve stays a
// single compare-and-increment, matching the database contract.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	quotas map[models.Region]*models.RegionQuota
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{quotas: make(map[models.Region]*models.RegionQuota)}
}

func (s *MemoryQuotaStore) Init(_ context.Context, limits map[models.Region]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for region, max := range limits {
		if quota, ok := s.quotas[region]; ok {
			quota.MaxQuota = max
			quota.LastUpdated = time.Now().UTC()
			continue
		}
		s.quotas[region] = &models.RegionQuota{
			Region:      region,
			MaxQuota:    max,
			LastUpdated: time.Now().UTC(),
		}
	}
	return nil
}

func (s *MemoryQuotaStore) Available(_ context.Context, region models.Region) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quota, ok := s.quotas[region]
	if !ok {
		return false, nil
	}
	return quota.CurrentCount < quota.MaxQuota, nil
}

func (s *MemoryQuotaStore) Reserve(_ context.Context, region models.Region) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quota, ok := s.quotas[region]
	if !ok || quota.CurrentCount >= quota.MaxQuota {
		return false, nil
	}
	quota.CurrentCount++
	quota.LastUpdated = time.Now().UTC()
	return true, nil
}

func (s *MemoryQuotaStore) Release(_ context.Context, region models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quota, ok := s.quotas[region]
	if !ok || quota.CurrentCount == 0 {
		return nil
	}
	quota.CurrentCount--
	quota.LastUpdated = time.Now().UTC()
	return nil
}

func (s *MemoryQuotaStore) Snapshot(_ context.Context) ([]models.RegionQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RegionQuota, 0, len(s.quotas))
	for _, quota := range s.quotas {
		out = append(out, *quota)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}
