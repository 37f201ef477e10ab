package service

import (
	"context"
	"errors"
	"log"

	"survey-service/internal/models"
	"survey-service/internal/repository"
)

// AdmissionOutcome is the result of the region-admission state machine:
// PENDING_IDENTITY_CHECK -> {REJECTED_DUPLICATE_IDENTITY | PENDING_QUOTA}
// -> {ADMITTED | REJECTED_QUOTA_FULL}.
type AdmissionOutcome struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// ReserveRegion runs identity check then quota reservation, in that order,
// so a duplicate identity never consumes a slot. Available() is consulted
// first only as an advisory fast path; Reserve() is the authoritative step,
// and losing the race between the two is an expected outcome recorded as an
// explicit rejection, never retried silently.
func (s *SessionService) ReserveRegion(ctx context.Context, participantID, regionName string) (*AdmissionOutcome, error) {
	if !models.ValidParticipantID(participantID) {
		return nil, invalid("participantId", "must be exactly 24 alphanumeric characters")
	}
	region, ok := models.ParseRegion(regionName)
	if !ok {
		return nil, invalid("region", "must be one of north, south, east, west, central")
	}

	if _, err := s.Sessions.FindByParticipantID(ctx, participantID); err == nil {
		return &AdmissionOutcome{Available: false, Message: "This participant identity has already been used"}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	available, err := s.Quotas.Available(ctx, region)
	if err != nil {
		return nil, err
	}
	if !available {
		if err := s.recordRejection(ctx, participantID, region, "Region quota full"); err != nil {
			log.Printf("failed to record quota rejection for %s: %v", participantID, err)
		}
		return &AdmissionOutcome{Available: false, Message: "Region quota full"}, nil
	}

	reserved, err := s.Quotas.Reserve(ctx, region)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if err := s.recordRejection(ctx, participantID, region, "Region quota full (lost reservation race)"); err != nil {
			log.Printf("failed to record quota rejection for %s: %v", participantID, err)
		}
		return &AdmissionOutcome{Available: false, Message: "Region quota full"}, nil
	}

	if err := s.Reservations.Put(ctx, participantID, region); err != nil {
		// The slot is held but untracked; hand it back rather than leak it.
		if relErr := s.Quotas.Release(ctx, region); relErr != nil {
			log.Printf("failed to release slot after reservation tracking error: %v", relErr)
		}
		return nil, err
	}
	return &AdmissionOutcome{Available: true, Message: "Slot reserved"}, nil
}

// ReleaseRegion frees a slot when a participant abandons mid-survey. The
// underlying decrement is conditional, so double releases are harmless.
func (s *SessionService) ReleaseRegion(ctx context.Context, regionName string) error {
	region, ok := models.ParseRegion(regionName)
	if !ok {
		return invalid("region", "must be one of north, south, east, west, central")
	}
	return s.Quotas.Release(ctx, region)
}

// QuotaSnapshot exposes the current counters for monitoring.
func (s *SessionService) QuotaSnapshot(ctx context.Context) ([]models.RegionQuota, error) {
	return s.Quotas.Snapshot(ctx)
}
