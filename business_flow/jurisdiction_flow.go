package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

// JurisdictionFlow handles jurisdiction registration and code allocation on behalf of record-creating services
type JurisdictionFlow interface {
	CreateJurisdiction(ctx context.Context, req *dto.CreateJurisdictionRequest, metadata *ClientMetadata) (*dto.JurisdictionDTO, error)
	GetJurisdiction(ctx context.Context, jurisdictionUUID string) (*dto.JurisdictionDTO, error)
	ListJurisdictions(ctx context.Context, req *dto.ListJurisdictionsRequest) (*dto.ListJurisdictionsResponse, error)
	UpdateJurisdiction(ctx context.Context, req *dto.UpdateJurisdictionRequest, metadata *ClientMetadata) (*dto.JurisdictionDTO, error)
	AllocateCode(ctx context.Context, req *dto.AllocateCodeRequest, metadata *ClientMetadata) (*dto.AllocateCodeResponse, error)
}

// JurisdictionFlowImpl implements JurisdictionFlow
type JurisdictionFlowImpl struct {
	jurisdictionRepo repository.JurisdictionRepository
	allocator        CodeAllocator
	logger           *zap.Logger
}

// NewJurisdictionFlow creates a new jurisdiction flow
func NewJurisdictionFlow(jurisdictionRepo repository.JurisdictionRepository, allocator CodeAllocator, logger *zap.Logger) JurisdictionFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JurisdictionFlowImpl{
		jurisdictionRepo: jurisdictionRepo,
		allocator:        allocator,
		logger:           logger,
	}
}

func (f *JurisdictionFlowImpl) CreateJurisdiction(ctx context.Context, req *dto.CreateJurisdictionRequest, metadata *ClientMetadata) (*dto.JurisdictionDTO, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if !utils.IsValidJurisdictionIdentifier(identifier) {
		return nil, &ValidationError{Field: "identifier", Reason: "must match ^[A-Z][A-Z0-9]{1,15}$", Err: ErrJurisdictionIdentifierRequired}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}

	exists, err := f.jurisdictionRepo.Exists(ctx, models.JurisdictionFilter{Identifier: &identifier})
	if err != nil {
		return nil, NewBusinessError("CREATE_JURISDICTION_FAILED", "Failed to check identifier", err)
	}
	if exists {
		return nil, ErrJurisdictionIdentifierExists
	}

	jurisdiction := &models.Jurisdiction{
		UUID:       uuid.New(),
		Identifier: identifier,
		Name:       name,
		IsActive:   utils.ToPtr(true),
	}
	if err := f.jurisdictionRepo.Save(ctx, jurisdiction); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrJurisdictionIdentifierExists
		}
		return nil, NewBusinessError("CREATE_JURISDICTION_FAILED", "Failed to create jurisdiction", err)
	}

	f.logger.Info("Jurisdiction created",
		zap.String("identifier", jurisdiction.Identifier),
		zap.String("uuid", jurisdiction.UUID.String()),
		zap.Stringp("request_id", requestIDFrom(ctx, metadata)))

	result := ToJurisdictionDTO(jurisdiction)
	return &result, nil
}

func (f *JurisdictionFlowImpl) GetJurisdiction(ctx context.Context, jurisdictionUUID string) (*dto.JurisdictionDTO, error) {
	jurisdiction, err := getJurisdictionByUUID(ctx, f.jurisdictionRepo, jurisdictionUUID)
	if err != nil {
		return nil, err
	}
	result := ToJurisdictionDTO(jurisdiction)
	return &result, nil
}

func (f *JurisdictionFlowImpl) ListJurisdictions(ctx context.Context, req *dto.ListJurisdictionsRequest) (*dto.ListJurisdictionsResponse, error) {
	page, limit, err := normalizePage(req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := models.JurisdictionFilter{IsActive: req.IsActive}
	total, err := f.jurisdictionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_JURISDICTIONS_FAILED", "Failed to count jurisdictions", err)
	}
	items, err := f.jurisdictionRepo.ByFilter(ctx, filter, "identifier ASC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_JURISDICTIONS_FAILED", "Failed to list jurisdictions", err)
	}

	out := make([]dto.JurisdictionDTO, 0, len(items))
	for _, j := range items {
		out = append(out, ToJurisdictionDTO(j))
	}
	return &dto.ListJurisdictionsResponse{
		Items:      out,
		Pagination: paginationInfo(total, page, limit),
	}, nil
}

func (f *JurisdictionFlowImpl) UpdateJurisdiction(ctx context.Context, req *dto.UpdateJurisdictionRequest, metadata *ClientMetadata) (*dto.JurisdictionDTO, error) {
	if req.Name == nil && req.IsActive == nil {
		return nil, ErrJurisdictionUpdateRequired
	}

	jurisdiction, err := getJurisdictionByUUID(ctx, f.jurisdictionRepo, req.UUID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
		}
		jurisdiction.Name = name
	}
	if req.IsActive != nil {
		jurisdiction.IsActive = utils.ToPtr(*req.IsActive)
	}

	if err := f.jurisdictionRepo.Update(ctx, jurisdiction); err != nil {
		return nil, NewBusinessError("UPDATE_JURISDICTION_FAILED", "Failed to update jurisdiction", err)
	}

	f.logger.Info("Jurisdiction updated",
		zap.String("identifier", jurisdiction.Identifier),
		zap.Stringp("request_id", requestIDFrom(ctx, metadata)))

	result := ToJurisdictionDTO(jurisdiction)
	return &result, nil
}

func (f *JurisdictionFlowImpl) AllocateCode(ctx context.Context, req *dto.AllocateCodeRequest, metadata *ClientMetadata) (*dto.AllocateCodeResponse, error) {
	jurisdiction, err := getJurisdictionByUUID(ctx, f.jurisdictionRepo, req.JurisdictionUUID)
	if err != nil {
		return nil, err
	}

	code, err := f.allocator.AllocateCode(ctx, jurisdiction.ID, req.RecordType)
	if err != nil {
		return nil, err
	}

	return &dto.AllocateCodeResponse{
		JurisdictionUUID: jurisdiction.UUID.String(),
		RecordType:       req.RecordType,
		Code:             code,
	}, nil
}

// getJurisdictionByUUID loads a jurisdiction by public id, mapping absence to ErrJurisdictionNotFound
func getJurisdictionByUUID(ctx context.Context, repo repository.JurisdictionRepository, jurisdictionUUID string) (*models.Jurisdiction, error) {
	if _, err := utils.ParseUUID(jurisdictionUUID); err != nil {
		return nil, &ValidationError{Field: "uuid", Reason: "must be a valid uuid", Err: ErrInvalidUUID}
	}

	jurisdiction, err := repo.ByUUID(ctx, jurisdictionUUID)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "get jurisdiction", Err: err}
	}
	if jurisdiction == nil {
		return nil, ErrJurisdictionNotFound
	}
	return jurisdiction, nil
}
