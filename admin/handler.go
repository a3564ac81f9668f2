// Package admin exposes the moderation surface: player reports and the
// persisted match history.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type ReportRepo interface {
	CreateReport(ctx context.Context, username, message string) (domain.Report, error)
	ListReports(ctx context.Context) ([]domain.Report, error)
	UpdateReport(ctx context.Context, id int64, resolved bool) (domain.Report, error)
	DeleteReport(ctx context.Context, id int64) error
}

type HistoryRepo interface {
	ListMatches(ctx context.Context) ([]domain.MatchRecord, error)
	UpdateMatchReason(ctx context.Context, id int64, reason string) (domain.MatchRecord, error)
	DeleteMatch(ctx context.Context, id int64) error
}

type AdminHandler struct {
	reportRepo  ReportRepo
	historyRepo HistoryRepo
}

func NewAdminHandler(reportRepo ReportRepo, historyRepo HistoryRepo) *AdminHandler {
	return &AdminHandler{reportRepo: reportRepo, historyRepo: historyRepo}
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return id, true
}

// --- reports ---

func (ah *AdminHandler) CreateReportHandler(ctx *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Message  string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Username and message are required"})
		return
	}

	report, err := ah.reportRepo.CreateReport(ctx.Request.Context(), payload.Username, payload.Message)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating report"})
		return
	}
	ctx.JSON(http.StatusCreated, report)
}

func (ah *AdminHandler) ListReportsHandler(ctx *gin.Context) {
	reports, err := ah.reportRepo.ListReports(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching reports"})
		return
	}
	ctx.JSON(http.StatusOK, reports)
}

func (ah *AdminHandler) UpdateReportHandler(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var payload struct {
		IsResolved *bool `json:"is_resolved" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "is_resolved is required"})
		return
	}

	report, err := ah.reportRepo.UpdateReport(ctx.Request.Context(), id, *payload.IsResolved)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Report not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating report"})
		return
	}
	ctx.JSON(http.StatusOK, report)
}

func (ah *AdminHandler) DeleteReportHandler(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := ah.reportRepo.DeleteReport(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Report not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting report"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Report deleted"})
}

// --- match history ---

func (ah *AdminHandler) ListHistoryHandler(ctx *gin.Context) {
	records, err := ah.historyRepo.ListMatches(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching history"})
		return
	}
	ctx.JSON(http.StatusOK, records)
}

func (ah *AdminHandler) UpdateHistoryHandler(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var payload struct {
		FinishReason string `json:"finish_reason" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "finish_reason is required"})
		return
	}
	if payload.FinishReason != "destruction" && payload.FinishReason != "forfeit" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "finish_reason must be 'destruction' or 'forfeit'"})
		return
	}

	record, err := ah.historyRepo.UpdateMatchReason(ctx.Request.Context(), id, payload.FinishReason)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "History entry not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating history"})
		return
	}
	ctx.JSON(http.StatusOK, record)
}

func (ah *AdminHandler) DeleteHistoryHandler(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := ah.historyRepo.DeleteMatch(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "History entry not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting history entry"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "History entry deleted"})
}
