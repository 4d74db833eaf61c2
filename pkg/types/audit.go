package types

import "time"

// AuditStamp carries the who/when metadata embedded in every aggregate root.
// The domain is the only writer of UpdatedAt; persistence interceptors must
// not overwrite it, so the column doubles as the optimistic-concurrency token.
type AuditStamp struct {
	CreatorID *string   `gorm:"column:creator_id;type:text" json:"creator_id,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdaterID *string   `gorm:"column:updater_id;type:text" json:"updater_id,omitempty"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
}

// NewAuditStamp initializes creation and modification metadata.
func NewAuditStamp(creatorID *string, now time.Time) AuditStamp {
	return AuditStamp{
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a modification at the given instant.
func (a *AuditStamp) Touch(updaterID *string, at time.Time) {
	if updaterID != nil {
		a.UpdaterID = updaterID
	}
	a.UpdatedAt = at
}
