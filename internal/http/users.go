package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop-companion/internal/domain"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username,omitempty"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

type profileResponse struct {
	userSummary
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(user *domain.User) userSummary {
	return userSummary{ID: user.ID, Email: user.Email, Username: user.Username}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, message("Invalid request body"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.entry(c).WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    summarize(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, message("Email and password are required"))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    summarize(user),
	})
}

func (h *Handler) profile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		userSummary: summarize(user),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}
