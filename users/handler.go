package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type UserRepo interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateUser(ctx context.Context, username, newUsername, newEmail string) (domain.User, error)
	DeleteUser(ctx context.Context, username string) error
	SearchUsers(ctx context.Context, query string) ([]domain.User, error)
}

type UserHandler struct {
	userRepo UserRepo
}

func NewUserHandler(userRepo UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(u domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (uh *UserHandler) ProfileHandler(ctx *gin.Context) {
	username := ctx.GetString("username")

	user, err := uh.userRepo.GetUserByUsername(ctx.Request.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, viewOf(user))
}

func (uh *UserHandler) UpdateProfileHandler(ctx *gin.Context) {
	username := ctx.GetString("username")

	var update struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&update); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile payload"})
		return
	}

	user, err := uh.userRepo.UpdateUser(ctx.Request.Context(), username, update.Username, update.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, domain.ErrDuplicateUsername):
			ctx.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
		case errors.Is(err, domain.ErrDuplicateEmail):
			ctx.JSON(http.StatusConflict, gin.H{"message": "Email already taken"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": viewOf(user)})
}

func (uh *UserHandler) DeleteHandler(ctx *gin.Context) {
	username := ctx.GetString("username")

	if err := uh.userRepo.DeleteUser(ctx.Request.Context(), username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Deletion failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (uh *UserHandler) SearchHandler(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Search query is required"})
		return
	}

	found, err := uh.userRepo.SearchUsers(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Search failed"})
		return
	}

	views := make([]userView, 0, len(found))
	for _, u := range found {
		u.Email = "" // search results never expose emails
		views = append(views, viewOf(u))
	}
	ctx.JSON(http.StatusOK, views)
}
