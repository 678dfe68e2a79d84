package service

import (
	"context"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/repository"
	"github.com/google/uuid"
)

type ReportInput struct {
	TargetID string `json:"target_id" binding:"required,max=64"`
	Reason   string `json:"reason" binding:"max=255"`
}

type ReportService interface {
	Report(ctx context.Context, reporterID uuid.UUID, input ReportInput) error
}

type reportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) Report(ctx context.Context, reporterID uuid.UUID, input ReportInput) error {
	return s.repo.Create(ctx, &model.Report{
		ReporterID: reporterID,
		TargetID:   input.TargetID,
		Reason:     input.Reason,
	})
}
