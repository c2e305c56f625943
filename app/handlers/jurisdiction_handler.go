package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/civic-portal/app/dto"
	businessflow "github.com/amirphl/civic-portal/business_flow"
)

// JurisdictionHandlerInterface defines the contract for jurisdiction handlers
type JurisdictionHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	AllocateCode(c fiber.Ctx) error
}

// JurisdictionHandler handles jurisdiction-related HTTP requests
type JurisdictionHandler struct {
	baseHandler
	flow businessflow.JurisdictionFlow
}

// NewJurisdictionHandler creates a new jurisdiction handler
func NewJurisdictionHandler(flow businessflow.JurisdictionFlow, requestTimeout time.Duration) *JurisdictionHandler {
	return &JurisdictionHandler{
		baseHandler: newBaseHandler(requestTimeout),
		flow:        flow,
	}
}

// Create Jurisdiction
// @Description Register a jurisdiction with a unique, immutable identifier
// @Tags Jurisdictions
// @Accept json
// @Produce json
// @Param request body dto.CreateJurisdictionRequest true "Jurisdiction"
// @Success 201 {object} dto.APIResponse{data=dto.JurisdictionDTO} "Jurisdiction created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Identifier already exists"
// @Router /api/v1/jurisdictions [post]
func (h *JurisdictionHandler) Create(c fiber.Ctx) error {
	var req dto.CreateJurisdictionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if problems := h.validate(&req); problems != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", problems)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions")
	defer cancel()

	result, err := h.flow.CreateJurisdiction(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to create jurisdiction", "CREATE_JURISDICTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Jurisdiction created successfully", result)
}

// List Jurisdictions
// @Description List jurisdictions ordered by identifier
// @Tags Jurisdictions
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param is_active query bool false "Filter by active flag"
// @Success 200 {object} dto.APIResponse{data=dto.ListJurisdictionsResponse}
// @Router /api/v1/jurisdictions [get]
func (h *JurisdictionHandler) List(c fiber.Ctx) error {
	req := dto.ListJurisdictionsRequest{
		Page:  fiber.Query[int](c, "page"),
		Limit: fiber.Query[int](c, "limit"),
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "is_active must be a boolean", "VALIDATION_ERROR", nil)
		}
		req.IsActive = &active
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions")
	defer cancel()

	result, err := h.flow.ListJurisdictions(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to list jurisdictions", "LIST_JURISDICTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Jurisdictions retrieved successfully", result)
}

// Get Jurisdiction
// @Tags Jurisdictions
// @Produce json
// @Param uuid path string true "Jurisdiction UUID"
// @Success 200 {object} dto.APIResponse{data=dto.JurisdictionDTO}
// @Failure 404 {object} dto.APIResponse "Jurisdiction not found"
// @Router /api/v1/jurisdictions/{uuid} [get]
func (h *JurisdictionHandler) Get(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions/:uuid")
	defer cancel()

	result, err := h.flow.GetJurisdiction(ctx, c.Params("uuid"))
	if err != nil {
		return h.flowError(c, err, "Failed to get jurisdiction", "GET_JURISDICTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Jurisdiction retrieved successfully", result)
}

// Update Jurisdiction
// @Description Update name or active flag. The identifier cannot be changed.
// @Tags Jurisdictions
// @Accept json
// @Produce json
// @Param uuid path string true "Jurisdiction UUID"
// @Param request body dto.UpdateJurisdictionRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.JurisdictionDTO}
// @Router /api/v1/jurisdictions/{uuid} [put]
func (h *JurisdictionHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateJurisdictionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = c.Params("uuid")
	if problems := h.validate(&req); problems != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", problems)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions/:uuid")
	defer cancel()

	result, err := h.flow.UpdateJurisdiction(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update jurisdiction", "UPDATE_JURISDICTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Jurisdiction updated successfully", result)
}

// Allocate Code
// @Description Issue the next sequential code for a record type, e.g. RDC4-000001
// @Tags Codes
// @Accept json
// @Produce json
// @Param uuid path string true "Jurisdiction UUID"
// @Param request body dto.AllocateCodeRequest true "Record type"
// @Success 201 {object} dto.APIResponse{data=dto.AllocateCodeResponse}
// @Failure 404 {object} dto.APIResponse "Jurisdiction not found"
// @Failure 409 {object} dto.APIResponse "Sequence exhausted"
// @Failure 503 {object} dto.APIResponse "Counter store unavailable"
// @Router /api/v1/jurisdictions/{uuid}/codes [post]
func (h *JurisdictionHandler) AllocateCode(c fiber.Ctx) error {
	var req dto.AllocateCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.JurisdictionUUID = c.Params("uuid")
	if problems := h.validate(&req); problems != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", problems)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions/:uuid/codes")
	defer cancel()

	result, err := h.flow.AllocateCode(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to allocate code", "ALLOCATE_CODE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Code allocated successfully", result)
}
