package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

// SequenceAdminFlow exposes counters to operators: listing, spreadsheet export and raising counters
// when numbering is migrated from an older system
type SequenceAdminFlow interface {
	ListCounters(ctx context.Context) (*dto.ListSequenceCountersResponse, error)
	ExportCounters(ctx context.Context) (string, []byte, error)
	ImportCounters(ctx context.Context, req *dto.ImportSequenceCountersRequest, metadata *ClientMetadata) (*dto.ImportSequenceCountersResponse, error)
}

// SequenceAdminFlowImpl implements SequenceAdminFlow
type SequenceAdminFlowImpl struct {
	store            repository.CounterStore
	jurisdictionRepo repository.JurisdictionRepository
	transactor       repository.Transactor
	logger           *zap.Logger
	maxSequence      int64
}

// NewSequenceAdminFlow creates a new sequence admin flow; transactor may be nil
func NewSequenceAdminFlow(store repository.CounterStore, jurisdictionRepo repository.JurisdictionRepository, transactor repository.Transactor, logger *zap.Logger) SequenceAdminFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceAdminFlowImpl{
		store:            store,
		jurisdictionRepo: jurisdictionRepo,
		transactor:       transactor,
		logger:           logger,
		maxSequence:      utils.MaxSequenceValue,
	}
}

func (f *SequenceAdminFlowImpl) ListCounters(ctx context.Context) (*dto.ListSequenceCountersResponse, error) {
	counters, err := f.store.All(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list counters", Err: err}
	}

	ids := make([]uint, 0, len(counters))
	seen := make(map[uint]struct{}, len(counters))
	for _, c := range counters {
		if _, ok := seen[c.JurisdictionID]; ok {
			continue
		}
		seen[c.JurisdictionID] = struct{}{}
		ids = append(ids, c.JurisdictionID)
	}
	jurisdictions, err := f.jurisdictionRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("LIST_COUNTERS_FAILED", "Failed to load jurisdictions", err)
	}
	byID := make(map[uint]*models.Jurisdiction, len(jurisdictions))
	for _, j := range jurisdictions {
		byID[j.ID] = j
	}

	items := make([]dto.SequenceCounterDTO, 0, len(counters))
	for _, c := range counters {
		items = append(items, f.toCounterDTO(c, byID[c.JurisdictionID]))
	}
	return &dto.ListSequenceCountersResponse{Items: items}, nil
}

func (f *SequenceAdminFlowImpl) toCounterDTO(c *models.SequenceCounter, j *models.Jurisdiction) dto.SequenceCounterDTO {
	out := dto.SequenceCounterDTO{
		RecordType: c.RecordType,
		LastIssued: c.LastIssued,
		Remaining:  f.maxSequence - c.LastIssued,
		UsageRatio: float64(c.LastIssued) / float64(f.maxSequence),
		UpdatedAt:  c.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if j != nil {
		out.JurisdictionUUID = j.UUID.String()
		out.JurisdictionIdentifier = j.Identifier
		if c.LastIssued > 0 {
			out.LastCode = FormatCode(j.Identifier, c.LastIssued)
		}
	}
	return out
}

func (f *SequenceAdminFlowImpl) ExportCounters(ctx context.Context) (string, []byte, error) {
	list, err := f.ListCounters(ctx)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "counters"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"jurisdiction", "jurisdiction_uuid", "record_type", "last_issued", "last_code", "remaining", "usage_ratio", "updated_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, item := range list.Items {
		record := []any{
			item.JurisdictionIdentifier,
			item.JurisdictionUUID,
			item.RecordType,
			item.LastIssued,
			item.LastCode,
			item.Remaining,
			item.UsageRatio,
			item.UpdatedAt,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("sequence_counters_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (f *SequenceAdminFlowImpl) ImportCounters(ctx context.Context, req *dto.ImportSequenceCountersRequest, metadata *ClientMetadata) (*dto.ImportSequenceCountersResponse, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one counter is required"}
	}
	for i, item := range req.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if !utils.IsValidJurisdictionIdentifier(item.JurisdictionIdentifier) {
			return nil, &ValidationError{Field: field + ".jurisdiction_identifier", Reason: "invalid identifier"}
		}
		if !utils.IsValidRecordType(item.RecordType) {
			return nil, &ValidationError{Field: field + ".record_type", Reason: "invalid record type", Err: ErrInvalidRecordType}
		}
		if item.LastIssued < 0 || item.LastIssued > f.maxSequence {
			return nil, &ValidationError{Field: field + ".last_issued", Reason: fmt.Sprintf("must be between 0 and %d", f.maxSequence), Err: ErrInvalidSequenceValue}
		}
	}

	resp := &dto.ImportSequenceCountersResponse{Results: make([]dto.SequenceCounterImportResult, 0, len(req.Items))}
	apply := func(txCtx context.Context) error {
		resp.Raised, resp.Unchanged = 0, 0
		resp.Results = resp.Results[:0]
		for _, item := range req.Items {
			jurisdiction, err := f.jurisdictionRepo.ByIdentifier(txCtx, item.JurisdictionIdentifier)
			if err != nil {
				return &StoreUnavailableError{Op: "get jurisdiction", Err: err}
			}
			if jurisdiction == nil {
				return NewBusinessErrorf("JURISDICTION_NOT_FOUND", "jurisdiction %s not found", ErrJurisdictionNotFound, item.JurisdictionIdentifier)
			}

			raised, err := f.store.RaiseTo(txCtx, jurisdiction.ID, item.RecordType, item.LastIssued)
			if err != nil {
				return &StoreUnavailableError{Op: "raise counter", Err: err}
			}
			current, err := f.store.Current(txCtx, jurisdiction.ID, item.RecordType)
			if err != nil {
				return &StoreUnavailableError{Op: "read counter", Err: err}
			}

			if raised {
				resp.Raised++
			} else {
				resp.Unchanged++
			}
			resp.Results = append(resp.Results, dto.SequenceCounterImportResult{
				JurisdictionIdentifier: item.JurisdictionIdentifier,
				RecordType:             item.RecordType,
				Requested:              item.LastIssued,
				LastIssued:             current,
				Raised:                 raised,
			})
		}
		return nil
	}

	var err error
	if f.transactor != nil {
		err = f.transactor.WithinTransaction(ctx, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Sequence counters imported",
		zap.Int("raised", resp.Raised),
		zap.Int("unchanged", resp.Unchanged),
		zap.Stringp("request_id", requestIDFrom(ctx, metadata)))
	return resp, nil
}
