package handlers

import (
	"reflect"
	"strconv"
	"strings"

	"projchat_backend/internal/logger"
	"projchat_backend/internal/middleware"
	"projchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type BaseHandler struct {
	validate *validator.Validate
}

func NewBaseHandler() *BaseHandler {
	v := validator.New()
	// Report JSON field names in validation errors, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &BaseHandler{validate: v}
}

// BindJSON decodes the request body and runs struct validation against
// the DTO's validate tags, rendering the error response itself on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.Warn("failed to bind request body", "path", c.Request.URL.Path, "error", err)
		apperrors.HandleError(c, apperrors.ValidationError("Invalid request body: "+err.Error()))
		return false
	}
	if err := h.validate.Struct(obj); err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(err.Error()))
		return false
	}
	return true
}

// RequireUserID extracts the authenticated caller or renders 401.
func (h *BaseHandler) RequireUserID(c *gin.Context) (uint64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		apperrors.HandleError(c, apperrors.UnauthorizedError("Authentication required"))
		return 0, false
	}
	return userID, true
}

// UintParam parses a numeric path parameter.
func (h *BaseHandler) UintParam(c *gin.Context, name string) (uint64, bool) {
	val, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || val == 0 {
		apperrors.HandleError(c, apperrors.ValidationError("Invalid "+name))
		return 0, false
	}
	return val, true
}

// UintQuery parses an optional numeric query parameter, falling back
// to def when absent or malformed.
func (h *BaseHandler) UintQuery(c *gin.Context, name string, def uint64) uint64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return val
}
