package classify

import (
	"path/filepath"
	"strings"

	"github.com/slimfile/slimfile/internal/model"
)

var kindByExt = map[string]model.FormatKind{
	"pdf":  model.KindPDF,
	"ppt":  model.KindOffice,
	"pptx": model.KindOffice,
	"doc":  model.KindOffice,
	"docx": model.KindOffice,
	"hwp":  model.KindUnsupported,
	"hwpx": model.KindUnsupported,
	"jpg":  model.KindImage,
	"jpeg": model.KindImage,
	"png":  model.KindImage,
	"webp": model.KindImage,
}

// Classify maps a filename to its format kind by case-insensitive
// extension lookup. Unknown extensions (and files without one) map to
// KindOther.
func Classify(filename string) model.FormatKind {
	if kind, ok := kindByExt[ext(filename)]; ok {
		return kind
	}
	return model.KindOther
}

// Repackable reports whether an office file is a zip-based container
// that can be repackaged for real. Legacy binary formats (doc, ppt)
// classify as office but only get simulated compression.
func Repackable(filename string) bool {
	switch ext(filename) {
	case "docx", "pptx":
		return true
	}
	return false
}

func ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
