package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.uber.org/zap"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

// ProjectFlow creates and lists projects. Every project receives a code from the CodeAllocator.
type ProjectFlow interface {
	CreateProject(ctx context.Context, req *dto.CreateProjectRequest, metadata *ClientMetadata) (*dto.ProjectDTO, error)
	GetProject(ctx context.Context, projectUUID string) (*dto.ProjectDTO, error)
	ListProjects(ctx context.Context, req *dto.ListProjectsRequest) (*dto.ListProjectsResponse, error)
}

// RetryPolicy controls how often CreateProject repeats a whole attempt after the counter store was unavailable
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Clock    clock.Clock
}

const defaultRetryDelay = 100 * time.Millisecond

// ProjectFlowImpl implements ProjectFlow
type ProjectFlowImpl struct {
	jurisdictionRepo repository.JurisdictionRepository
	projectRepo      repository.ProjectRepository
	allocator        CodeAllocator
	transactor       repository.Transactor
	retry            RetryPolicy
	logger           *zap.Logger
}

// NewProjectFlow creates a new project flow
func NewProjectFlow(
	jurisdictionRepo repository.JurisdictionRepository,
	projectRepo repository.ProjectRepository,
	allocator CodeAllocator,
	transactor repository.Transactor,
	retryPolicy RetryPolicy,
	logger *zap.Logger,
) ProjectFlow {
	if retryPolicy.Attempts < 1 {
		retryPolicy.Attempts = 1
	}
	if retryPolicy.Delay <= 0 {
		retryPolicy.Delay = defaultRetryDelay
	}
	if retryPolicy.Clock == nil {
		retryPolicy.Clock = clock.WallClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectFlowImpl{
		jurisdictionRepo: jurisdictionRepo,
		projectRepo:      projectRepo,
		allocator:        allocator,
		transactor:       transactor,
		retry:            retryPolicy,
		logger:           logger,
	}
}

func (f *ProjectFlowImpl) CreateProject(ctx context.Context, req *dto.CreateProjectRequest, metadata *ClientMetadata) (*dto.ProjectDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required", Err: ErrProjectTitleRequired}
	}

	jurisdiction, err := getJurisdictionByUUID(ctx, f.jurisdictionRepo, req.JurisdictionUUID)
	if err != nil {
		return nil, err
	}
	if !utils.IsTrue(jurisdiction.IsActive) {
		return nil, ErrJurisdictionInactive
	}

	var project *models.Project
	attempt := func() error {
		var fnErr error
		err := f.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			fnErr = f.insertProject(txCtx, jurisdiction.ID, title, req, &project)
			return fnErr
		})
		// fn succeeded, so the transaction itself failed to begin or commit
		if err != nil && fnErr == nil {
			return &StoreUnavailableError{Op: "commit", Err: err}
		}
		return err
	}

	err = retry.Call(retry.CallArgs{
		Func: attempt,
		IsFatalError: func(err error) bool {
			return !IsCounterStoreUnavailable(err)
		},
		NotifyFunc: func(lastError error, attempt int) {
			f.logger.Warn("Project creation attempt failed",
				zap.Int("attempt", attempt),
				zap.String("jurisdiction", jurisdiction.Identifier),
				zap.Error(lastError))
		},
		Attempts: f.retry.Attempts,
		Delay:    f.retry.Delay,
		Clock:    f.retry.Clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		return nil, unwrapRetryError(err)
	}

	f.logger.Info("Project created",
		zap.String("code", project.Code),
		zap.String("uuid", project.UUID.String()),
		zap.Stringp("request_id", requestIDFrom(ctx, metadata)))

	result := ToProjectDTO(project, jurisdiction.UUID.String())
	return &result, nil
}

// insertProject allocates the next project code and saves the project in the transaction carried by txCtx
func (f *ProjectFlowImpl) insertProject(txCtx context.Context, jurisdictionID uint, title string, req *dto.CreateProjectRequest, out **models.Project) error {
	code, err := f.allocator.AllocateCode(txCtx, jurisdictionID, utils.RecordTypeProject)
	if err != nil {
		return err
	}

	p := &models.Project{
		UUID:           uuid.New(),
		JurisdictionID: jurisdictionID,
		Code:           code,
		Title:          title,
		Description:    req.Description,
		CreatedBy:      req.CreatedBy,
	}
	if err := f.projectRepo.Save(txCtx, p); err != nil {
		return &StoreUnavailableError{Op: "save project", Err: err}
	}
	*out = p
	return nil
}

func (f *ProjectFlowImpl) GetProject(ctx context.Context, projectUUID string) (*dto.ProjectDTO, error) {
	if _, err := utils.ParseUUID(projectUUID); err != nil {
		return nil, &ValidationError{Field: "uuid", Reason: "must be a valid uuid", Err: ErrInvalidUUID}
	}

	project, err := f.projectRepo.ByUUID(ctx, projectUUID)
	if err != nil {
		return nil, NewBusinessError("GET_PROJECT_FAILED", "Failed to get project", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	jurisdiction, err := f.jurisdictionRepo.ByID(ctx, project.JurisdictionID)
	if err != nil {
		return nil, NewBusinessError("GET_PROJECT_FAILED", "Failed to get project jurisdiction", err)
	}
	if jurisdiction == nil {
		return nil, ErrJurisdictionNotFound
	}

	result := ToProjectDTO(project, jurisdiction.UUID.String())
	return &result, nil
}

func (f *ProjectFlowImpl) ListProjects(ctx context.Context, req *dto.ListProjectsRequest) (*dto.ListProjectsResponse, error) {
	page, limit, err := normalizePage(req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	jurisdiction, err := getJurisdictionByUUID(ctx, f.jurisdictionRepo, req.JurisdictionUUID)
	if err != nil {
		return nil, err
	}

	filter := models.ProjectFilter{JurisdictionID: &jurisdiction.ID}
	total, err := f.projectRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_PROJECTS_FAILED", "Failed to count projects", err)
	}
	items, err := f.projectRepo.ByFilter(ctx, filter, "id DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_PROJECTS_FAILED", "Failed to list projects", err)
	}

	jurisdictionUUID := jurisdiction.UUID.String()
	out := make([]dto.ProjectDTO, 0, len(items))
	for _, p := range items {
		out = append(out, ToProjectDTO(p, jurisdictionUUID))
	}
	return &dto.ListProjectsResponse{
		Items:      out,
		Pagination: paginationInfo(total, page, limit),
	}, nil
}

// unwrapRetryError returns the error of the final attempt
func unwrapRetryError(err error) error {
	if retry.IsAttemptsExceeded(err) || retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
		return retry.LastError(err)
	}
	return err
}
