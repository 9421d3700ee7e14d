package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldRunID       = "run_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSpreadsheet = "spreadsheet_id"
	FieldSheet       = "sheet"
	FieldRow         = "row"
	FieldIdentifier  = "dni"
	FieldYear        = "year"
	FieldStep        = "step"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentPipeline   = "pipeline"
	ComponentIngest     = "ingest"
	ComponentHonorarium = "honorarium"
	ComponentCuotas     = "cuotas"
	ComponentHistory    = "historico"
	ComponentCalendar   = "calendar"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithRunID adds the pipeline run id
func (f LogFields) WithRunID(id string) LogFields {
	f[FieldRunID] = id
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRow adds the raw row number and the receipt identifier
func (f LogFields) WithRow(row int, identifier string) LogFields {
	f[FieldRow] = row
	if identifier != "" {
		f[FieldIdentifier] = identifier
	}
	return f
}

// WithSheet adds the target collection name
func (f LogFields) WithSheet(name string) LogFields {
	f[FieldSheet] = name
	return f
}

// ToSlice converts LogFields to a slice for slog, sorted by key
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
