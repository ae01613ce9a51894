package model

import "time"

// Execution execution log row
type Execution struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ExecutionID   string    `gorm:"column:execution_id;type:varchar(64);uniqueIndex;not null"`
	TaskName      string    `gorm:"column:task_name;type:varchar(255);index;not null"`
	Priority      string    `gorm:"column:priority;type:varchar(16)"`
	Location      string    `gorm:"column:location;type:varchar(16);index;not null"`
	Decision      string    `gorm:"column:decision;type:varchar(16);not null"`
	Rationale     string    `gorm:"column:rationale;type:text"`
	Confidence    float64   `gorm:"column:confidence"`
	EstimatedCost float64   `gorm:"column:estimated_cost"`
	FailSafe      bool      `gorm:"column:fail_safe"`
	FallbackUsed  bool      `gorm:"column:fallback_used"`
	Status        string    `gorm:"column:status;type:varchar(16);index;not null"`
	Error         string    `gorm:"column:error;type:text"`
	DurationMs    int64     `gorm:"column:duration_ms"`
	CreatedAt     time.Time `gorm:"column:created_at;index;not null"`
}

// TableName specifies table name
func (Execution) TableName() string {
	return "executions"
}
