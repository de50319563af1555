package dto

import (
	"time"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

type ReportResponse struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	Status       string    `json:"status"`
	Downloadable bool      `json:"downloadable"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReportAccepted struct {
	ReportID int64  `json:"report_id"`
	Status   string `json:"status"`
}

func NewReportResponse(report *entity.SalesReport) ReportResponse {
	return ReportResponse{
		ID:           report.ID,
		RestaurantID: report.RestaurantID,
		Month:        report.Month,
		Year:         report.Year,
		Status:       string(report.Status),
		Downloadable: report.Status == entity.ReportCompleted && report.FileKey != nil,
		CreatedAt:    report.CreatedAt,
	}
}
