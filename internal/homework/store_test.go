package homework

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homework.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestWorkbookStore_FiltersByDayInOrder(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"day", "text", "audio_url"},
		{1, "안녕하세요", "http://example.com/a.mp3"},
		{2, "내일 만나요", ""},
		{1, "오늘 날씨가 좋네요", ""},
	})
	s := NewWorkbookStore(path)

	items := s.GetHomework(1)
	if len(items) != 2 {
		t.Fatalf("GetHomework(1): %d items, want 2", len(items))
	}
	if items[0].Text != "안녕하세요" || items[1].Text != "오늘 날씨가 좋네요" {
		t.Errorf("GetHomework(1): wrong order: %q, %q", items[0].Text, items[1].Text)
	}
	if items[0].AudioURL != "http://example.com/a.mp3" {
		t.Errorf("GetHomework(1): AudioURL=%q, want reference audio", items[0].AudioURL)
	}
}

func TestWorkbookStore_StringNormalizedDayComparison(t *testing.T) {
	// Day stored as text with surrounding whitespace still matches.
	path := writeWorkbook(t, [][]interface{}{
		{"day", "text", "audio_url"},
		{" 3 ", "세 번째 날 문장", ""},
	})
	s := NewWorkbookStore(path)

	items := s.GetHomework(3)
	if len(items) != 1 {
		t.Fatalf("GetHomework(3): %d items, want 1", len(items))
	}
}

func TestWorkbookStore_EmptyForUnknownDay(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"day", "text", "audio_url"},
		{1, "안녕하세요", ""},
	})
	s := NewWorkbookStore(path)

	if items := s.GetHomework(99); len(items) != 0 {
		t.Errorf("GetHomework(99): %d items, want 0", len(items))
	}
}

func TestWorkbookStore_MissingFileFailsSoft(t *testing.T) {
	s := NewWorkbookStore(filepath.Join(t.TempDir(), "missing.xlsx"))

	if items := s.GetHomework(1); items != nil {
		t.Errorf("GetHomework with missing file: %v, want nil", items)
	}
}

func TestWorkbookStore_ReloadPicksUpChanges(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"day", "text", "audio_url"},
		{1, "원래 문장", ""},
	})
	s := NewWorkbookStore(path)

	if items := s.GetHomework(1); len(items) != 1 {
		t.Fatalf("initial read: %d items, want 1", len(items))
	}

	// Rewrite the workbook behind the cached handle.
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "B3", "추가된 문장"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SetCellValue(sheet, "A3", 1); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	s.Reload()
	if items := s.GetHomework(1); len(items) != 2 {
		t.Errorf("after reload: %d items, want 2", len(items))
	}
}
