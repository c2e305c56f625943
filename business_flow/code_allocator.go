package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

// Allocation outcomes reported to an AllocationObserver
const (
	AllocationIssued      = "issued"
	AllocationInvalid     = "invalid"
	AllocationNotFound    = "not_found"
	AllocationExhausted   = "exhausted"
	AllocationUnavailable = "unavailable"
)

// JurisdictionLookup resolves the display identifier of a jurisdiction
type JurisdictionLookup interface {
	GetIdentifier(ctx context.Context, jurisdictionID uint) (string, error)
}

// AllocationObserver receives one call per AllocateCode attempt
type AllocationObserver interface {
	ObserveAllocation(recordType, outcome string, elapsed time.Duration)
}

// CodeAllocator issues jurisdiction-scoped sequential codes such as RDC4-000001
type CodeAllocator interface {
	AllocateCode(ctx context.Context, jurisdictionID uint, recordType string) (string, error)
}

// CodeAllocatorImpl implements CodeAllocator.
// It never retries: every failure is returned to the caller and consumes no number.
type CodeAllocatorImpl struct {
	lookup      JurisdictionLookup
	store       repository.CounterStore
	history     repository.CodeAllocationRepository
	transactor  repository.Transactor
	observer    AllocationObserver
	logger      *zap.Logger
	maxSequence int64
}

// CodeAllocatorOption customizes a CodeAllocatorImpl
type CodeAllocatorOption func(*CodeAllocatorImpl)

// WithAllocationHistory records every issued code in the same transaction as the increment
func WithAllocationHistory(history repository.CodeAllocationRepository) CodeAllocatorOption {
	return func(a *CodeAllocatorImpl) { a.history = history }
}

// WithTransactor wraps increment and history write in one transaction
func WithTransactor(transactor repository.Transactor) CodeAllocatorOption {
	return func(a *CodeAllocatorImpl) { a.transactor = transactor }
}

// WithAllocationObserver reports outcomes and latencies, typically to Prometheus
func WithAllocationObserver(observer AllocationObserver) CodeAllocatorOption {
	return func(a *CodeAllocatorImpl) { a.observer = observer }
}

// WithAllocatorLogger sets the logger
func WithAllocatorLogger(logger *zap.Logger) CodeAllocatorOption {
	return func(a *CodeAllocatorImpl) { a.logger = logger }
}

// NewCodeAllocator creates a CodeAllocator over the given lookup and counter store
func NewCodeAllocator(lookup JurisdictionLookup, store repository.CounterStore, opts ...CodeAllocatorOption) *CodeAllocatorImpl {
	a := &CodeAllocatorImpl{
		lookup:      lookup,
		store:       store,
		logger:      zap.NewNop(),
		maxSequence: utils.MaxSequenceValue,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FormatCode renders identifier and sequence as IDENT-000042
func FormatCode(identifier string, sequence int64) string {
	return fmt.Sprintf("%s%s%0*d", identifier, utils.CodeSeparator, utils.SequenceDigits, sequence)
}

// AllocateCode returns the next code for (jurisdictionID, recordType).
// Errors are *ValidationError, *NotFoundError, *OverflowError or *StoreUnavailableError.
func (a *CodeAllocatorImpl) AllocateCode(ctx context.Context, jurisdictionID uint, recordType string) (code string, err error) {
	start := time.Now()
	defer func() {
		if a.observer != nil {
			a.observer.ObserveAllocation(recordType, allocationOutcome(err), time.Since(start))
		}
	}()

	if !utils.IsValidRecordType(recordType) {
		return "", &ValidationError{Field: "record_type", Reason: "must match [a-z][a-z0-9_-]{0,31}", Err: ErrInvalidRecordType}
	}

	identifier, err := a.lookup.GetIdentifier(ctx, jurisdictionID)
	if err != nil {
		if IsJurisdictionNotFound(err) {
			return "", err
		}
		return "", a.unavailable("lookup", jurisdictionID, recordType, err)
	}

	var sequence int64
	allocate := func(txCtx context.Context) error {
		next, err := a.store.IncrementAndGet(txCtx, jurisdictionID, recordType, a.maxSequence)
		if err != nil {
			if errors.Is(err, repository.ErrSequenceExhausted) {
				return &OverflowError{JurisdictionID: jurisdictionID, RecordType: recordType, Max: a.maxSequence}
			}
			return &StoreUnavailableError{Op: "increment", Err: err}
		}
		sequence = next

		if a.history == nil {
			return nil
		}
		entry := &models.CodeAllocation{
			JurisdictionID: jurisdictionID,
			RecordType:     recordType,
			Sequence:       next,
			Code:           FormatCode(identifier, next),
			RequestID:      requestIDFrom(txCtx, nil),
		}
		if err := a.history.Save(txCtx, entry); err != nil {
			return &StoreUnavailableError{Op: "record allocation", Err: err}
		}
		return nil
	}

	if a.transactor != nil {
		err = a.transactor.WithinTransaction(ctx, allocate)
	} else {
		err = allocate(ctx)
	}
	if err != nil {
		var overflow *OverflowError
		if errors.As(err, &overflow) {
			a.logger.Warn("Sequence exhausted",
				zap.Uint("jurisdiction_id", jurisdictionID),
				zap.String("record_type", recordType),
				zap.Int64("max", a.maxSequence))
			return "", err
		}
		return "", a.unavailable("commit", jurisdictionID, recordType, err)
	}

	code = FormatCode(identifier, sequence)
	a.logger.Debug("Code allocated",
		zap.String("code", code),
		zap.Uint("jurisdiction_id", jurisdictionID),
		zap.String("record_type", recordType),
		zap.String("request_id", utils.RequestIDFromContext(ctx)))
	return code, nil
}

func (a *CodeAllocatorImpl) unavailable(op string, jurisdictionID uint, recordType string, err error) error {
	a.logger.Error("Counter store unavailable",
		zap.String("op", op),
		zap.Uint("jurisdiction_id", jurisdictionID),
		zap.String("record_type", recordType),
		zap.Error(err))

	var storeErr *StoreUnavailableError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

func allocationOutcome(err error) string {
	switch {
	case err == nil:
		return AllocationIssued
	case IsValidation(err):
		return AllocationInvalid
	case IsJurisdictionNotFound(err):
		return AllocationNotFound
	case IsSequenceExhausted(err):
		return AllocationExhausted
	default:
		return AllocationUnavailable
	}
}
