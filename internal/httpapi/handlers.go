package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"phone-availability/internal/checks"
	"phone-availability/internal/telephony"
	"phone-availability/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Checker runs one phone check.
type Checker interface {
	Check(ctx context.Context, req checks.CheckRequest) (checks.Result, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Checks  Checker
	Records checks.Repository
}

// Response messages for lookup failures.
const (
	MessageNotFound          = "Phone number not found or invalid"
	MessageCredentials       = "Twilio credentials are not configured"
	MessageLookupAuth        = "Authentication with phone lookup service failed"
	MessageCheckFailed       = "Error checking phone number availability"
	MessageInvalidRequest    = "Invalid request data"
	MessageRecordNotFound    = "Check not found"
	MessageRecordLookupError = "Error loading check"
)

type checkNumberRequest struct {
	CountryCode string `json:"countryCode" binding:"required,min=1"`
	CountryISO2 string `json:"countryIso2" binding:"required,min=2"`
	PhoneNumber string `json:"phoneNumber" binding:"required,min=1"`
	FullNumber  string `json:"fullNumber" binding:"required,min=5"`
}

type checkNumberResponse struct {
	PhoneNumber string `json:"phoneNumber"`
	Carrier     string `json:"carrier"`
	LineType    string `json:"lineType"`
	IsAvailable bool   `json:"isAvailable"`
	CallMade    bool   `json:"callMade"`
	Message     string `json:"message"`
}

// CheckNumber runs the availability check for one submitted number.
func (h Handlers) CheckNumber(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Checks == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MessageCheckFailed})
		return
	}

	var req checkNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("check request rejected", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	res, err := h.Checks.Check(c.Request.Context(), checks.CheckRequest{
		CountryCode: req.CountryCode,
		CountryISO2: req.CountryISO2,
		PhoneNumber: req.PhoneNumber,
		FullNumber:  req.FullNumber,
	})
	if err != nil {
		status, msg := checkError(err)
		if status >= http.StatusInternalServerError {
			log.Error("phone check failed", "err", err)
		}
		c.AbortWithStatusJSON(status, gin.H{"message": msg})
		return
	}

	c.JSON(http.StatusOK, checkNumberResponse{
		PhoneNumber: res.Record.PhoneNumber,
		Carrier:     res.Record.Carrier,
		LineType:    res.Record.LineType,
		IsAvailable: res.Outcome.Verdict.IsAvailable,
		CallMade:    res.Outcome.Verdict.CallPlaced,
		Message:     res.Outcome.Verdict.Message,
	})
}

// GetCheck returns one stored record by id.
func (h Handlers) GetCheck(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MessageRecordLookupError})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "id must be a positive integer"})
		return
	}

	rec, err := h.Records.Get(c.Request.Context(), id)
	h.writeRecord(c, rec, err)
}

// FindCheck returns the oldest stored record for ?number=.
func (h Handlers) FindCheck(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MessageRecordLookupError})
		return
	}
	number := strings.TrimSpace(c.Query("number"))
	if number == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "number is required"})
		return
	}

	rec, err := h.Records.FindFirstByNumber(c.Request.Context(), number)
	h.writeRecord(c, rec, err)
}

const readyTimeout = 3 * time.Second

// Ready reports 200 when the record store answers a ping and 503 otherwise.
func (h Handlers) Ready(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.Records.Ping(ctx); err != nil {
		logger.FromGin(c).Warn("record store not ready", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h Handlers) writeRecord(c *gin.Context, rec checks.Record, err error) {
	switch {
	case errors.Is(err, checks.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": MessageRecordNotFound})
	case err != nil:
		logger.FromGin(c).Error("record lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MessageRecordLookupError})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

func checkError(err error) (int, string) {
	switch {
	case errors.Is(err, checks.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), checks.ErrValidation.Error()+": ")
	case errors.Is(err, checks.ErrCredentialsMissing):
		return http.StatusInternalServerError, MessageCredentials
	case errors.Is(err, telephony.ErrNumberNotFound):
		return http.StatusNotFound, MessageNotFound
	case errors.Is(err, telephony.ErrAuthenticationFailed):
		return http.StatusInternalServerError, MessageLookupAuth
	default:
		return http.StatusInternalServerError, MessageCheckFailed
	}
}

var jsonFieldNames = map[string]string{
	"CountryCode": "countryCode",
	"CountryISO2": "countryIso2",
	"PhoneNumber": "phoneNumber",
	"FullNumber":  "fullNumber",
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MessageInvalidRequest
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldNames[fe.Field()]
		if field == "" {
			field = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
