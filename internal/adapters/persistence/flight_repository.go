package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// FlightRepository stores and lists what the flight recorder saw.
type FlightRepository interface {
	SaveTransition(ctx context.Context, e maneuver.PhaseChangedEvent) error
	SaveBurn(ctx context.Context, e maneuver.BurnCompletedEvent) error
	SaveReset(ctx context.Context, e maneuver.ControllerResetEvent) error

	// ListBurns returns the most recent burns first, at most limit rows.
	ListBurns(ctx context.Context, limit int) ([]maneuver.BurnCompletedEvent, error)
	// ListTransitions returns the transitions of one session in commit
	// order. An empty session lists the latest transitions of any session,
	// still oldest first.
	ListTransitions(ctx context.Context, sessionID string, limit int) ([]maneuver.PhaseChangedEvent, error)
	ListResets(ctx context.Context, limit int) ([]maneuver.ControllerResetEvent, error)
}

// GormFlightRepository implements FlightRepository using GORM
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) *GormFlightRepository {
	return &GormFlightRepository{db: db}
}

// SaveTransition persists a committed phase change
func (r *GormFlightRepository) SaveTransition(ctx context.Context, e maneuver.PhaseChangedEvent) error {
	model := &PhaseTransitionModel{
		SessionID:  e.SessionID,
		VesselID:   uint32(e.Vessel),
		FromPhase:  string(e.From),
		ToPhase:    string(e.To),
		UT:         e.UT,
		RecordedAt: e.At,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save phase transition: %w", err)
	}
	return nil
}

// SaveBurn persists a burn summary
func (r *GormFlightRepository) SaveBurn(ctx context.Context, e maneuver.BurnCompletedEvent) error {
	model := &BurnRecordModel{
		SessionID:      e.SessionID,
		VesselID:       uint32(e.Vessel),
		TotalDeltaV:    e.TotalDeltaV,
		ResidualDeltaV: e.ResidualDeltaV,
		BurnStartUT:    e.BurnStartUT,
		BurnEndUT:      e.BurnEndUT,
		Stagings:       e.Stagings,
		Overshoot:      e.Overshoot,
		RecordedAt:     e.At,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save burn: %w", err)
	}
	return nil
}

// SaveReset persists a controller reset
func (r *GormFlightRepository) SaveReset(ctx context.Context, e maneuver.ControllerResetEvent) error {
	model := &ResetRecordModel{
		SessionID:  e.SessionID,
		VesselID:   uint32(e.Vessel),
		FromPhase:  string(e.From),
		Reason:     string(e.Reason),
		UT:         e.UT,
		RecordedAt: e.At,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save reset: %w", err)
	}
	return nil
}

// ListBurns retrieves the latest burns, newest first
func (r *GormFlightRepository) ListBurns(ctx context.Context, limit int) ([]maneuver.BurnCompletedEvent, error) {
	var models []BurnRecordModel
	query := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list burns: %w", err)
	}

	burns := make([]maneuver.BurnCompletedEvent, 0, len(models))
	for _, m := range models {
		burns = append(burns, maneuver.BurnCompletedEvent{
			SessionID:      m.SessionID,
			Vessel:         maneuver.VesselID(m.VesselID),
			TotalDeltaV:    m.TotalDeltaV,
			ResidualDeltaV: m.ResidualDeltaV,
			BurnStartUT:    m.BurnStartUT,
			BurnEndUT:      m.BurnEndUT,
			Stagings:       m.Stagings,
			Overshoot:      m.Overshoot,
			At:             m.RecordedAt,
		})
	}
	return burns, nil
}

// ListTransitions retrieves phase transitions in commit order
func (r *GormFlightRepository) ListTransitions(ctx context.Context, sessionID string, limit int) ([]maneuver.PhaseChangedEvent, error) {
	var models []PhaseTransitionModel
	query := r.db.WithContext(ctx).Order("id DESC")
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list phase transitions: %w", err)
	}

	transitions := make([]maneuver.PhaseChangedEvent, len(models))
	for i, m := range models {
		// newest-first query, oldest-first result
		transitions[len(models)-1-i] = maneuver.PhaseChangedEvent{
			SessionID: m.SessionID,
			Vessel:    maneuver.VesselID(m.VesselID),
			From:      maneuver.Phase(m.FromPhase),
			To:        maneuver.Phase(m.ToPhase),
			UT:        m.UT,
			At:        m.RecordedAt,
		}
	}
	return transitions, nil
}

// ListResets retrieves the latest controller resets, newest first
func (r *GormFlightRepository) ListResets(ctx context.Context, limit int) ([]maneuver.ControllerResetEvent, error) {
	var models []ResetRecordModel
	query := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list resets: %w", err)
	}

	resets := make([]maneuver.ControllerResetEvent, 0, len(models))
	for _, m := range models {
		resets = append(resets, maneuver.ControllerResetEvent{
			SessionID: m.SessionID,
			Vessel:    maneuver.VesselID(m.VesselID),
			From:      maneuver.Phase(m.FromPhase),
			Reason:    maneuver.ResetReason(m.Reason),
			UT:        m.UT,
			At:        m.RecordedAt,
		})
	}
	return resets, nil
}
