package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion tags the structured report shape
const SchemaVersion = "gwaln.analysis/2"

// AnalysisDocument is a persisted analysis in either of its two shapes:
// *AnalysisPayload (legacy, untagged) or *StructuredAnalysisReport
// (tagged with SchemaVersion). The set is closed.
type AnalysisDocument interface {
	// SchemaTag returns the schema field, "" for the legacy payload
	SchemaTag() string

	// ContentHash returns the stored content hash ("" when absent)
	ContentHash() string

	// Timestamp returns when the analysis was produced (zero when absent)
	Timestamp() time.Time

	isAnalysisDocument()
}

func (p *AnalysisPayload) SchemaTag() string    { return "" }
func (p *AnalysisPayload) ContentHash() string  { return p.Meta.ContentHash }
func (p *AnalysisPayload) Timestamp() time.Time { return p.UpdatedAt }
func (p *AnalysisPayload) isAnalysisDocument()  {}

func (r *StructuredAnalysisReport) SchemaTag() string    { return r.Schema }
func (r *StructuredAnalysisReport) ContentHash() string  { return r.Meta.ContentHash }
func (r *StructuredAnalysisReport) Timestamp() time.Time { return r.Meta.GeneratedAt }
func (r *StructuredAnalysisReport) isAnalysisDocument()  {}

// DecodeAnalysisDocument decodes JSON into the shape named by its schema field.
// Untagged documents decode as the legacy payload.
func DecodeAnalysisDocument(data []byte) (AnalysisDocument, error) {
	var tag struct {
		Schema string `json:"schema"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode schema tag: %w", err)
	}

	switch tag.Schema {
	case "":
		var payload AnalysisPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode analysis payload: %w", err)
		}
		return &payload, nil
	case SchemaVersion:
		var report StructuredAnalysisReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decode structured report: %w", err)
		}
		return &report, nil
	default:
		return nil, fmt.Errorf("unsupported schema: %q", tag.Schema)
	}
}
