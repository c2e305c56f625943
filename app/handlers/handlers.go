// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/amirphl/civic-portal/app/dto"
	businessflow "github.com/amirphl/civic-portal/business_flow"
	"github.com/amirphl/civic-portal/utils"
)

const defaultRequestTimeout = 15 * time.Second

// baseHandler carries what every handler shares: validation, response envelopes, and request contexts
type baseHandler struct {
	validator      *validator.Validate
	requestTimeout time.Duration
}

func newBaseHandler(requestTimeout time.Duration) baseHandler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return baseHandler{validator: NewValidator(), requestTimeout: requestTimeout}
}

// NewValidator returns a validator with the portal's custom tags registered
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("record_type", func(fl validator.FieldLevel) bool {
		return utils.IsValidRecordType(fl.Field().String())
	})
	_ = v.RegisterValidation("jurisdiction_identifier", func(fl validator.FieldLevel) bool {
		return utils.IsValidJurisdictionIdentifier(fl.Field().String())
	})
	return v
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validate runs struct validation and returns the field messages, or nil when req is valid
func (h *baseHandler) validate(req any) []string {
	err := h.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, getValidationErrorMessage(fe))
	}
	return out
}

func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), h.requestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, h.requestTimeout)
	return ctx, cancel
}

func (h *baseHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestid.FromContext(c))
	return metadata
}

// flowError maps business flow errors onto HTTP responses
func (h *baseHandler) flowError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	var validationErr *businessflow.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErr.Error())
	case errors.Is(err, businessflow.ErrInvalidPage), errors.Is(err, businessflow.ErrInvalidLimit):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", err.Error())
	case businessflow.IsJurisdictionUpdateRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Nothing to update", "UPDATE_REQUIRED", nil)
	case businessflow.IsJurisdictionNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Jurisdiction not found", "JURISDICTION_NOT_FOUND", err.Error())
	case businessflow.IsProjectNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Project not found", "PROJECT_NOT_FOUND", nil)
	case businessflow.IsJurisdictionIdentifierExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Jurisdiction identifier already exists", "JURISDICTION_IDENTIFIER_EXISTS", nil)
	case businessflow.IsJurisdictionInactive(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Jurisdiction is inactive", "JURISDICTION_INACTIVE", nil)
	case businessflow.IsSequenceExhausted(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "No codes left for this record type", "SEQUENCE_EXHAUSTED", err.Error())
	case businessflow.IsCounterStoreUnavailable(err):
		c.Set(fiber.HeaderRetryAfter, "1")
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Counter store unavailable, please retry", "COUNTER_STORE_UNAVAILABLE", nil)
	}

	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, be.Code, nil)
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	case "record_type":
		return err.Field() + " must be a lower-case key such as project or permit"
	case "jurisdiction_identifier":
		return err.Field() + " must be 2-16 upper-case letters or digits starting with a letter"
	default:
		return err.Field() + " is invalid"
	}
}
