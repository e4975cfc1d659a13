package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/skillpath-labs/skillpath-api/internal/models"
)

// PDFExporter renders a learning path into a printable study plan.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderLearningPath creates a PDF document listing each recommendation
// with its milestone and weekly plan.
func (e *PDFExporter) RenderLearningPath(path models.LearningPath, title string) ([]byte, error) {
	if len(path.Recommendations) == 0 {
		return nil, fmt.Errorf("learning path has no recommendations")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title == "" {
		title = "Personalized Learning Path"
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	for i, rec := range path.Recommendations {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d. %s", i+1, rec.Course), "", 1, "", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Platform: %s    Duration: %s", rec.Platform, rec.Duration), "", 1, "", false, 0, "")
		if rec.Milestone != "" {
			pdf.MultiCell(0, 6, "Milestone: "+rec.Milestone, "", "", false)
		}

		for _, week := range rec.WeeklyPlan {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(0, 6, fmt.Sprintf("Week %d", week.Week), "", 1, "", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, task := range week.Tasks {
				pdf.MultiCell(0, 5, "- "+task, "", "", false)
			}
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
