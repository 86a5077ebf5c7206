package update

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	planDecodeErrorTemplateConstant  = "unable to parse update plan: %w"
	planEmptyMessageConstant         = "plan contains no updates"
	planEntryFieldTemplateConstant   = "updates[%d].%s"
	planEntryFailureTemplateConstant = "plan entry %d (%s) failed: %w"
	planPackageFieldNameConstant     = "package"
	planVersionFieldNameConstant     = "version"
	planNewVersionFieldNameConstant  = "new_version"
	planUpdatesFieldNameConstant     = "updates"
)

// Plan is a sequence of dependency bumps applied to one workspace.
type Plan struct {
	Updates []PlanEntry `yaml:"updates"`
}

// PlanEntry is a single bump in a Plan.
type PlanEntry struct {
	PackageName    string `yaml:"package"`
	CurrentVersion string `yaml:"version"`
	NewVersion     string `yaml:"new_version"`
}

// ParsePlan decodes and validates a YAML plan document.
func ParsePlan(planContent []byte) (Plan, error) {
	var plan Plan
	if decodeError := yaml.Unmarshal(planContent, &plan); decodeError != nil {
		return Plan{}, fmt.Errorf(planDecodeErrorTemplateConstant, decodeError)
	}

	if len(plan.Updates) == 0 {
		return Plan{}, InvalidInputError{FieldName: planUpdatesFieldNameConstant, Message: planEmptyMessageConstant}
	}

	for entryIndex := range plan.Updates {
		entry := &plan.Updates[entryIndex]
		entry.PackageName = strings.TrimSpace(entry.PackageName)
		entry.CurrentVersion = strings.TrimSpace(entry.CurrentVersion)
		entry.NewVersion = strings.TrimSpace(entry.NewVersion)

		requiredValues := []struct {
			fieldName string
			value     string
		}{
			{fieldName: planPackageFieldNameConstant, value: entry.PackageName},
			{fieldName: planVersionFieldNameConstant, value: entry.CurrentVersion},
			{fieldName: planNewVersionFieldNameConstant, value: entry.NewVersion},
		}
		for _, requiredValue := range requiredValues {
			if len(requiredValue.value) == 0 {
				return Plan{}, InvalidInputError{
					FieldName: fmt.Sprintf(planEntryFieldTemplateConstant, entryIndex, requiredValue.fieldName),
					Message:   requiredValueMessageConstant,
				}
			}
		}
	}

	return plan, nil
}

// RunPlan applies each plan entry in order using the template request for the workspace and toggles.
// The first failing entry stops the plan; the report covers the entries completed before it.
func (service *Service) RunPlan(executionContext context.Context, plan Plan, template Request) (PlanReport, error) {
	planReport := PlanReport{Updates: make([]PlanReportEntry, 0, len(plan.Updates))}
	for entryIndex, entry := range plan.Updates {
		request := template
		request.PackageName = entry.PackageName
		request.CurrentVersion = entry.CurrentVersion
		request.NewVersion = entry.NewVersion

		report, runError := service.Run(executionContext, request)
		if runError != nil {
			return planReport, fmt.Errorf(planEntryFailureTemplateConstant, entryIndex, entry.PackageName, runError)
		}

		planReport.Updates = append(planReport.Updates, PlanReportEntry{
			PackageName:      entry.PackageName,
			UpdatedManifests: report.UpdatedManifests,
		})
	}
	return planReport, nil
}
