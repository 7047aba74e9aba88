package classify

import (
	"testing"

	"github.com/slimfile/slimfile/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		filename string
		want     model.FormatKind
	}{
		{"report.pdf", model.KindPDF},
		{"Report.DOCX", model.KindOffice},
		{"slides.pptx", model.KindOffice},
		{"legacy.doc", model.KindOffice},
		{"legacy.ppt", model.KindOffice},
		{"photo.JPG", model.KindImage},
		{"photo.jpeg", model.KindImage},
		{"scan.png", model.KindImage},
		{"sticker.webp", model.KindImage},
		{"notes.hwpx", model.KindUnsupported},
		{"notes.hwp", model.KindUnsupported},
		{"data.xyz", model.KindOther},
		{"noextension", model.KindOther},
		{"", model.KindOther},
		{"dir/archive.tar.pdf", model.KindPDF},
	}

	for _, tc := range cases {
		if got := Classify(tc.filename); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestRepackable(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"report.docx", true},
		{"Slides.PPTX", true},
		{"legacy.doc", false},
		{"legacy.ppt", false},
		{"report.pdf", false},
	}

	for _, tc := range cases {
		if got := Repackable(tc.filename); got != tc.want {
			t.Errorf("Repackable(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}
