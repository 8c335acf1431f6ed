package api

import (
	"net/http"
	"time"

	"referral_app/internal/middleware"
	"referral_app/internal/model"
	"referral_app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type accountRoutes struct {
	as service.AccountServiceI
}

func NewAccountRoutes(handler *gin.RouterGroup, as service.AccountServiceI, authz *middleware.Authorization, limit gin.HandlerFunc) {
	r := &accountRoutes{as: as}
	h := handler.Group("/auth")
	{
		h.POST("/register", limit, r.Register)
		h.POST("/login", limit, r.Login)
	}

	protected := h.Group("")
	protected.Use(authz.RequireAccount())
	{
		protected.GET("/referrals", r.Referrals)
		protected.GET("/me", r.Me)
		protected.PUT("/update", r.UpdatePassword)
	}
}

type RegisterRequest struct {
	Name             string `json:"name"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ReferrerUsername string `json:"referrerUsername"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

type AccountResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	ReferredBy   *string   `json:"referredBy"`
	ReferralLink string    `json:"referralLink"`
}

type ReferralEntryResponse struct {
	UserID uuid.UUID            `json:"userId"`
	Status model.ReferralStatus `json:"status"`
}

type ProfileResponse struct {
	AccountResponse
	Referrals []ReferralEntryResponse `json:"referrals"`
}

type ReferredAccountResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      *string              `json:"name"`
	Username  *string              `json:"username"`
	Email     *string              `json:"email"`
	Status    model.ReferralStatus `json:"status"`
	CreatedAt *time.Time           `json:"createdAt"`
}

func newAccountResponse(a *model.AccountSummary) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Username:     a.Username,
		Email:        a.Email,
		ReferredBy:   a.ReferredBy,
		ReferralLink: a.ReferralLink,
	}
}

func (r *accountRoutes) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := r.as.Register(c.Request.Context(), service.RegisterInput{
		Name:             req.Name,
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		ReferrerUsername: req.ReferrerUsername,
	})
	if err != nil {
		respondError(c, "register", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registered successfully",
		"user":    newAccountResponse(session.Account),
		"token":   session.Token,
	})
}

func (r *accountRoutes) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := r.as.Login(c.Request.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    newAccountResponse(session.Account),
		"token":   session.Token,
	})
}

func (r *accountRoutes) Referrals(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)

	referrals, err := r.as.Referrals(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, "referrals", err)
		return
	}

	out := make([]ReferredAccountResponse, 0, len(referrals))
	for _, ref := range referrals {
		out = append(out, ReferredAccountResponse{
			ID:        ref.ReferredID,
			Name:      ref.Name,
			Username:  ref.Username,
			Email:     ref.Email,
			Status:    ref.Status,
			CreatedAt: ref.AccountCreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"referrals": out,
	})
}

func (r *accountRoutes) Me(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)

	profile, err := r.as.Me(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, "me", err)
		return
	}

	out := ProfileResponse{
		AccountResponse: newAccountResponse(&profile.AccountSummary),
		Referrals:       make([]ReferralEntryResponse, 0, len(profile.Referrals)),
	}
	for _, ref := range profile.Referrals {
		out.Referrals = append(out.Referrals, ReferralEntryResponse{
			UserID: ref.ReferredID,
			Status: ref.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    out,
	})
}

func (r *accountRoutes) UpdatePassword(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)

	var req UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := r.as.UpdatePassword(c.Request.Context(), accountID, req.Password); err != nil {
		respondError(c, "update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated",
	})
}
