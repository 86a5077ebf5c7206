package update

import (
	"encoding/json"
	"io"

	"github.com/temirov/cargo-update-dep/internal/utils"
)

const (
	reportIndentPrefixConstant = ""
	reportIndentConstant       = "  "
)

// Report lists the manifests rewritten by a run.
type Report struct {
	UpdatedManifests []string `json:"updated_manifests"`
}

// NewReport builds a Report whose manifest list is never nil.
func NewReport(updatedManifests []string) Report {
	manifests := make([]string, 0, len(updatedManifests))
	manifests = append(manifests, updatedManifests...)
	return Report{UpdatedManifests: manifests}
}

// PlanReportEntry is the outcome of one bump in a plan.
type PlanReportEntry struct {
	PackageName      string   `json:"package"`
	UpdatedManifests []string `json:"updated_manifests"`
}

// PlanReport lists the outcome of each bump of a plan in order.
type PlanReport struct {
	Updates []PlanReportEntry `json:"updates"`
}

// ReportWriter renders reports as a single JSON document per call.
type ReportWriter struct {
	writer   io.Writer
	indented bool
}

// NewReportWriter wraps the writer. Indented output is meant for terminals.
func NewReportWriter(writer io.Writer, indented bool) *ReportWriter {
	if writer == nil {
		writer = io.Discard
	}
	return &ReportWriter{writer: utils.NewFlushingWriter(writer), indented: indented}
}

// WriteReport encodes the report followed by a newline.
func (reportWriter *ReportWriter) WriteReport(report Report) error {
	return reportWriter.encode(NewReport(report.UpdatedManifests))
}

// WritePlanReport encodes the plan report followed by a newline.
func (reportWriter *ReportWriter) WritePlanReport(report PlanReport) error {
	normalized := PlanReport{Updates: make([]PlanReportEntry, 0, len(report.Updates))}
	for _, entry := range report.Updates {
		normalized.Updates = append(normalized.Updates, PlanReportEntry{
			PackageName:      entry.PackageName,
			UpdatedManifests: NewReport(entry.UpdatedManifests).UpdatedManifests,
		})
	}
	return reportWriter.encode(normalized)
}

func (reportWriter *ReportWriter) encode(value any) error {
	encoder := json.NewEncoder(reportWriter.writer)
	encoder.SetEscapeHTML(false)
	if reportWriter.indented {
		encoder.SetIndent(reportIndentPrefixConstant, reportIndentConstant)
	}
	return encoder.Encode(value)
}
