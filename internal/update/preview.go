package update

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/temirov/cargo-update-dep/internal/manifest"
)

const (
	previewOriginalHeaderTemplateConstant = "--- %s\n"
	previewUpdatedHeaderTemplateConstant  = "+++ %s\n"
	previewSummaryTemplateConstant        = "@@ %d deletion(s), %d addition(s) @@\n"
	previewDeletedLinePrefixConstant      = "-"
	previewInsertedLinePrefixConstant     = "+"
	previewLineTerminatorConstant         = "\n"
)

// RenderPreview formats the changed lines of a manifest preview as a minimal unified-style diff.
// Unchanged lines are omitted.
func RenderPreview(preview manifest.PatchPreview) string {
	differ := diffmatchpatch.New()
	originalRunes, updatedRunes, lineArray := differ.DiffLinesToRunes(preview.OriginalContent, preview.UpdatedContent)
	lineDiffs := differ.DiffCharsToLines(differ.DiffMainRunes(originalRunes, updatedRunes, false), lineArray)

	var bodyBuilder strings.Builder
	deletions, additions := 0, 0
	for _, lineDiff := range lineDiffs {
		var prefix string
		switch lineDiff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = previewDeletedLinePrefixConstant
		case diffmatchpatch.DiffInsert:
			prefix = previewInsertedLinePrefixConstant
		default:
			continue
		}
		for _, line := range manifest.SplitLines(lineDiff.Text) {
			bodyBuilder.WriteString(prefix)
			bodyBuilder.WriteString(line)
			bodyBuilder.WriteString(previewLineTerminatorConstant)
			if lineDiff.Type == diffmatchpatch.DiffDelete {
				deletions++
			} else {
				additions++
			}
		}
	}

	var previewBuilder strings.Builder
	previewBuilder.WriteString(fmt.Sprintf(previewOriginalHeaderTemplateConstant, preview.ManifestPath))
	previewBuilder.WriteString(fmt.Sprintf(previewUpdatedHeaderTemplateConstant, preview.ManifestPath))
	previewBuilder.WriteString(fmt.Sprintf(previewSummaryTemplateConstant, deletions, additions))
	previewBuilder.WriteString(bodyBuilder.String())
	return previewBuilder.String()
}
