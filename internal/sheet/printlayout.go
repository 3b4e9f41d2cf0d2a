package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/xuri/excelize/v2"
)

// SaveForPrint writes a copy of the workbook into dir with the sheet
// scaled to fit one page wide and returns its path. The workbook's own
// Path is left unchanged.
func (w *Workbook) SaveForPrint(dir string) (string, error) {
	one := 1
	fit := true
	orientation := "portrait"
	if w.cols > 8 {
		orientation = "landscape"
	}

	if err := w.f.SetSheetProps(w.sheet, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
		return "", fmt.Errorf("setting fit-to-page: %w", err)
	}
	if err := w.f.SetPageLayout(w.sheet, &excelize.PageLayoutOptions{
		FitToWidth:  &one,
		FitToHeight: &one,
		Orientation: &orientation,
	}); err != nil {
		return "", fmt.Errorf("setting page layout: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating print directory: %w", err)
	}
	path := filepath.Join(dir, "print-"+ulid.Make().String()+".xlsx")
	if err := w.f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving print copy: %w", err)
	}
	return path, nil
}
