package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// ReportStatus tracks the generation state of a sales report.
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// SalesReport is a monthly sales summary for one restaurant.
type SalesReport struct {
	bun.BaseModel `bun:"table:sales_reports,alias:sr"`

	ID           int64        `bun:",pk,autoincrement"`
	RestaurantID int64        `bun:"restaurant_id,notnull"`
	Month        int          `bun:"month,notnull"`
	Year         int          `bun:"year,notnull"`
	Status       ReportStatus `bun:"status,notnull"`
	FileKey      *string      `bun:"file_key"`
	CreatedAt    time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
