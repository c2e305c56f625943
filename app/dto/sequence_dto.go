package dto

// SequenceCounterDTO describes one counter and how much of its range is left
type SequenceCounterDTO struct {
	JurisdictionUUID       string  `json:"jurisdiction_uuid"`
	JurisdictionIdentifier string  `json:"jurisdiction_identifier"`
	RecordType             string  `json:"record_type"`
	LastIssued             int64   `json:"last_issued"`
	LastCode               string  `json:"last_code,omitempty"`
	Remaining              int64   `json:"remaining"`
	UsageRatio             float64 `json:"usage_ratio"`
	UpdatedAt              string  `json:"updated_at"`
}

// ListSequenceCountersResponse lists every counter
type ListSequenceCountersResponse struct {
	Items []SequenceCounterDTO `json:"items"`
}

// SequenceCounterImportItem sets the floor of one counter. Counters are only ever raised.
type SequenceCounterImportItem struct {
	JurisdictionIdentifier string `json:"jurisdiction_identifier" yaml:"jurisdiction" validate:"required,jurisdiction_identifier"`
	RecordType             string `json:"record_type" yaml:"record_type" validate:"required,record_type"`
	LastIssued             int64  `json:"last_issued" yaml:"last_issued" validate:"gte=0,lte=999999"`
}

// ImportSequenceCountersRequest is the admin payload for raising counters
type ImportSequenceCountersRequest struct {
	Items []SequenceCounterImportItem `json:"items" yaml:"counters" validate:"required,min=1,max=1000,dive"`
}

// SequenceCounterImportResult reports what happened to one imported counter
type SequenceCounterImportResult struct {
	JurisdictionIdentifier string `json:"jurisdiction_identifier"`
	RecordType             string `json:"record_type"`
	Requested              int64  `json:"requested"`
	LastIssued             int64  `json:"last_issued"`
	Raised                 bool   `json:"raised"`
}

// ImportSequenceCountersResponse summarizes an import
type ImportSequenceCountersResponse struct {
	Raised    int                           `json:"raised"`
	Unchanged int                           `json:"unchanged"`
	Results   []SequenceCounterImportResult `json:"results"`
}
