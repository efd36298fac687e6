package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var (
	unsafeSegment  = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)
)

// ObjectKey builds the storage key of a file belonging to a submission
func ObjectKey(docType entity.DocType, category, displayID, filename string) string {
	return path.Join(
		SanitizeSegment(docType.Label()),
		SanitizeSegment(category),
		SanitizeSegment(displayID),
		SanitizeFilename(filename),
	)
}

// ApprovalSheetKey is where the generated approval workbook of a submission lives
func ApprovalSheetKey(sub *entity.Submission) string {
	return ObjectKey(sub.DocType, sub.Category, sub.DisplayID, sub.DisplayID+"_approval.xlsx")
}

// IsApprovalSheetKey reports whether key would overwrite the generated approval
// workbook. Case is ignored so case-insensitive filesystems are covered too.
func IsApprovalSheetKey(sub *entity.Submission, key string) bool {
	return strings.EqualFold(key, ApprovalSheetKey(sub))
}

// SanitizeSegment reduces a name to a single safe path segment.
// Separators and spaces become hyphens and underscores; anything else unsafe is dropped.
func SanitizeSegment(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(name)
	name = unsafeSegment.ReplaceAllString(name, "")
	if name == "" {
		return "_"
	}
	return name
}

// SanitizeFilename keeps the base name of an uploaded file, with its extension
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilename.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}
