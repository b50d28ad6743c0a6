package persistence

import (
	"time"
)

// PhaseTransitionModel represents the phase_transitions table
type PhaseTransitionModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID  string    `gorm:"column:session_id;index;not null"`
	VesselID   uint32    `gorm:"column:vessel_id;not null"`
	FromPhase  string    `gorm:"column:from_phase;not null"`
	ToPhase    string    `gorm:"column:to_phase;not null"`
	UT         float64   `gorm:"column:ut;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index"`
}

func (PhaseTransitionModel) TableName() string {
	return "phase_transitions"
}

// BurnRecordModel represents the burns table
type BurnRecordModel struct {
	ID             int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID      string    `gorm:"column:session_id;index;not null"`
	VesselID       uint32    `gorm:"column:vessel_id;not null"`
	TotalDeltaV    float64   `gorm:"column:total_delta_v;not null"`
	ResidualDeltaV float64   `gorm:"column:residual_delta_v;not null"`
	BurnStartUT    float64   `gorm:"column:burn_start_ut;not null"`
	BurnEndUT      float64   `gorm:"column:burn_end_ut;not null"`
	Stagings       int       `gorm:"column:stagings;not null;default:0"`
	Overshoot      bool      `gorm:"column:overshoot;not null;default:false"`
	RecordedAt     time.Time `gorm:"column:recorded_at;not null;index"`
}

func (BurnRecordModel) TableName() string {
	return "burns"
}

// ResetRecordModel represents the controller_resets table
type ResetRecordModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID  string    `gorm:"column:session_id;index"`
	VesselID   uint32    `gorm:"column:vessel_id;not null"`
	FromPhase  string    `gorm:"column:from_phase;not null"`
	Reason     string    `gorm:"column:reason;not null"`
	UT         float64   `gorm:"column:ut;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index"`
}

func (ResetRecordModel) TableName() string {
	return "controller_resets"
}
