package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"activeclub/gateway/internal/loyalty"
)

type customerResponse struct {
	ID             string           `json:"id"`
	Firstname      string           `json:"firstname"`
	Lastname       string           `json:"lastname"`
	Mobile         string           `json:"mobile"`
	Email          string           `json:"email"`
	Tier           string           `json:"tier"`
	Points         int              `json:"points"`
	LifetimePoints float64          `json:"lifetimePoints"`
	Progress       loyalty.Progress `json:"progress"`
	RewardAmount   int              `json:"rewardAmount"`
	Nationality    string           `json:"nationality"`
	DOB            string           `json:"dob"`
}

func (h HandlerSet) GetCustomer(c *gin.Context) {
	sess, err := h.sessions.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		sendResultError(c, &loyalty.ResultError{Type: loyalty.ErrorAuth})
		return
	}

	result := h.loyalty.GetCustomerByMobile(c.Request.Context(), sess.PhoneNumber)
	if result.Err != nil {
		sendResultError(c, result.Err)
		return
	}

	customer := result.Customer
	tier := loyalty.CustomerTier(customer)
	points := loyalty.CustomerPoints(customer)

	c.JSON(http.StatusOK, gin.H{"customer": customerResponse{
		ID:             customer.ID.String(),
		Firstname:      customer.Firstname,
		Lastname:       customer.Lastname,
		Mobile:         customer.Mobile,
		Email:          customer.Email,
		Tier:           tier,
		Points:         points,
		LifetimePoints: customer.LifetimePoints,
		Progress:       loyalty.CalculateProgress(points, tier),
		RewardAmount:   loyalty.CalculateRewardAmount(points),
		Nationality:    loyalty.CustomField(customer, "nationality"),
		DOB:            loyalty.CustomField(customer, "dob"),
	}})
}

type updateProfileRequest struct {
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Nationality string `json:"nationality"`
	DOB         string `json:"dob"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		sendResultError(c, &loyalty.ResultError{Type: loyalty.ErrorAuth})
		return
	}

	result := h.loyalty.UpdateCustomerProfile(c.Request.Context(), sess.PhoneNumber, loyalty.ProfileUpdate{
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Nationality: req.Nationality,
		DOB:         req.DOB,
	})
	if result.Err != nil {
		sendResultError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": result.Success,
		"message": result.Message,
	})
}

func (h HandlerSet) ListActivities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	sess, err := h.sessions.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		sendResultError(c, &loyalty.ResultError{Type: loyalty.ErrorAuth})
		return
	}

	result := h.loyalty.GetCustomerTransactions(c.Request.Context(), sess.PhoneNumber, limit, offset)
	if result.Err != nil {
		sendResultError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": loyalty.ConvertTransactionsToActivities(result.Transactions),
		"hasMore":    result.HasMore,
		"total":      result.Total,
	})
}
