package api

import (
	"errors"
	"net/http"

	"hotel-portal/internal/models"
	"hotel-portal/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is checked in order; the first match wins
var errorTable = []errorMapping{
	{models.ErrNotFound, http.StatusNotFound, "not_found"},
	{models.ErrDuplicateActive, http.StatusConflict, "already_requested"},
	{models.ErrConflict, http.StatusConflict, "bad_state"},
	{models.ErrPhoneRequired, http.StatusForbidden, "PHONE_REQUIRED"},
	{models.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{models.ErrInvalidKind, http.StatusBadRequest, "not_a_service"},
	{models.ErrAlreadyOccupied, http.StatusBadRequest, "already_occupied"},
	{models.ErrNoActiveStay, http.StatusBadRequest, "no_active_stay"},
	{models.ErrNotCleaning, http.StatusBadRequest, "not_cleaning"},
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{models.ErrNoStay, http.StatusOK, "NO_STAY"},
	{models.ErrEmptyPhone, http.StatusOK, "EMPTY_PHONE"},
	{models.ErrPhoneMismatch, http.StatusOK, "MISMATCH"},
	{models.ErrSubscriptionExpired, http.StatusPaymentRequired, "subscription_expired"},
	{models.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{models.ErrForbidden, http.StatusForbidden, "forbidden"},
	{models.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// errorStatus maps an error to its HTTP status and wire code
func errorStatus(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondError writes the {"ok": false, "error": code} envelope
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		util.GetLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": code})
}

// respondOK writes {"ok": true} merged with fields
func respondOK(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
