package api

import (
	"net/http"
	"strings"
	"time"

	"referral_app/internal/model"
	"referral_app/internal/service"

	"github.com/gin-gonic/gin"
)

type formRoutes struct {
	fs          service.FormServiceI
	ds          service.DashboardServiceI
	liveRefresh time.Duration
}

func NewFormRoutes(handler *gin.RouterGroup, fs service.FormServiceI, ds service.DashboardServiceI, liveRefresh time.Duration, limit gin.HandlerFunc) {
	r := &formRoutes{fs: fs, ds: ds, liveRefresh: liveRefresh}
	h := handler.Group("/form")
	{
		h.POST("/submit", limit, r.Submit)
		h.GET("/dashboard/:username", r.Dashboard)
		h.GET("/dashboard/:username/ws", r.LiveDashboard)
	}
}

type DashboardRowResponse struct {
	Name   string               `json:"name"`
	Email  string               `json:"email"`
	Status model.ReferralStatus `json:"status"`
}

type DashboardResponse struct {
	Success         bool                   `json:"success"`
	Name            string                 `json:"name"`
	Username        string                 `json:"username"`
	Email           string                 `json:"email"`
	ReferralLink    string                 `json:"referralLink"`
	TotalReferrals  int                    `json:"totalReferrals"`
	FilledReferrals int                    `json:"filledReferrals"`
	Referrals       []DashboardRowResponse `json:"referrals"`
}

func newDashboardResponse(d *model.Dashboard) DashboardResponse {
	rows := make([]DashboardRowResponse, 0, len(d.Referrals))
	for _, row := range d.Referrals {
		rows = append(rows, DashboardRowResponse{
			Name:   row.Name,
			Email:  row.Email,
			Status: row.Status,
		})
	}

	return DashboardResponse{
		Success:         true,
		Name:            d.Name,
		Username:        d.Username,
		Email:           d.Email,
		ReferralLink:    d.ReferralLink,
		TotalReferrals:  d.TotalReferrals,
		FilledReferrals: d.FilledReferrals,
		Referrals:       rows,
	}
}

// Submit takes the survey answers as an open JSON object. The optional
// referrerUsername key names the account that shared the link.
func (r *formRoutes) Submit(c *gin.Context) {
	var answers model.FormData
	if !bindJSON(c, &answers) {
		return
	}

	referrer, _ := answers["referrerUsername"].(string)
	delete(answers, "referrerUsername")

	if err := r.fs.Submit(c.Request.Context(), answers, referrer); err != nil {
		respondError(c, "submit form", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Form submitted successfully",
	})
}

func (r *formRoutes) Dashboard(c *gin.Context) {
	dashboard, err := r.ds.Dashboard(c.Request.Context(), strings.TrimSpace(c.Param("username")))
	if err != nil {
		respondError(c, "dashboard", err)
		return
	}

	c.JSON(http.StatusOK, newDashboardResponse(dashboard))
}
