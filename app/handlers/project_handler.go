package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/civic-portal/app/dto"
	businessflow "github.com/amirphl/civic-portal/business_flow"
)

// ProjectHandlerInterface defines the contract for project handlers
type ProjectHandlerInterface interface {
	Create(c fiber.Ctx) error
	ListByJurisdiction(c fiber.Ctx) error
	Get(c fiber.Ctx) error
}

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	baseHandler
	flow businessflow.ProjectFlow
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(flow businessflow.ProjectFlow, requestTimeout time.Duration) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(requestTimeout),
		flow:        flow,
	}
}

// Create Project
// @Description Create a project; its code is allocated in the same transaction
// @Tags Projects
// @Accept json
// @Produce json
// @Param uuid path string true "Jurisdiction UUID"
// @Param request body dto.CreateProjectRequest true "Project"
// @Success 201 {object} dto.APIResponse{data=dto.ProjectDTO}
// @Failure 404 {object} dto.APIResponse "Jurisdiction not found"
// @Failure 409 {object} dto.APIResponse "Sequence exhausted or jurisdiction inactive"
// @Failure 503 {object} dto.APIResponse "Counter store unavailable"
// @Router /api/v1/jurisdictions/{uuid}/projects [post]
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.JurisdictionUUID = c.Params("uuid")
	if problems := h.validate(&req); problems != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", problems)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions/:uuid/projects")
	defer cancel()

	result, err := h.flow.CreateProject(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to create project", "CREATE_PROJECT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Project created successfully", result)
}

// List Projects
// @Tags Projects
// @Produce json
// @Param uuid path string true "Jurisdiction UUID"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListProjectsResponse}
// @Router /api/v1/jurisdictions/{uuid}/projects [get]
func (h *ProjectHandler) ListByJurisdiction(c fiber.Ctx) error {
	req := dto.ListProjectsRequest{
		JurisdictionUUID: c.Params("uuid"),
		Page:             fiber.Query[int](c, "page"),
		Limit:            fiber.Query[int](c, "limit"),
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/jurisdictions/:uuid/projects")
	defer cancel()

	result, err := h.flow.ListProjects(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to list projects", "LIST_PROJECTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Projects retrieved successfully", result)
}

// Get Project
// @Tags Projects
// @Produce json
// @Param uuid path string true "Project UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectDTO}
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/projects/{uuid} [get]
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/projects/:uuid")
	defer cancel()

	result, err := h.flow.GetProject(ctx, c.Params("uuid"))
	if err != nil {
		return h.flowError(c, err, "Failed to get project", "GET_PROJECT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Project retrieved successfully", result)
}
