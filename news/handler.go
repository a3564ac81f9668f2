package news

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type NewsRepo interface {
	CreateNews(ctx context.Context, title, content string) (domain.News, error)
	ListNews(ctx context.Context) ([]domain.News, error)
	UpdateNews(ctx context.Context, id int64, title, content string) (domain.News, error)
	DeleteNews(ctx context.Context, id int64) error
}

type NewsHandler struct {
	newsRepo NewsRepo
}

func NewNewsHandler(newsRepo NewsRepo) *NewsHandler {
	return &NewsHandler{newsRepo: newsRepo}
}

type newsPayload struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (nh *NewsHandler) ListHandler(ctx *gin.Context) {
	items, err := nh.newsRepo.ListNews(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching news"})
		return
	}
	ctx.JSON(http.StatusOK, items)
}

func (nh *NewsHandler) CreateHandler(ctx *gin.Context) {
	var payload newsPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Title and content are required"})
		return
	}

	item, err := nh.newsRepo.CreateNews(ctx.Request.Context(), payload.Title, payload.Content)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating news"})
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

func (nh *NewsHandler) UpdateHandler(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid news id"})
		return
	}

	var payload newsPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Title and content are required"})
		return
	}

	item, err := nh.newsRepo.UpdateNews(ctx.Request.Context(), id, payload.Title, payload.Content)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "News not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating news"})
		return
	}
	ctx.JSON(http.StatusOK, item)
}

func (nh *NewsHandler) DeleteHandler(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid news id"})
		return
	}

	if err := nh.newsRepo.DeleteNews(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "News not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting news"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "News deleted"})
}
