package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// UsersSheet is the worksheet holding one row per user.
const UsersSheet = "Users"

// SheetSyncer mirrors user progress into a spreadsheet workbook. Each user
// occupies one row: user_id, current_day, last_updated. Rows are located by
// user id and updated in place, or appended when the user is new.
type SheetSyncer struct {
	filePath string
	mu       sync.Mutex
}

// NewSheetSyncer creates a syncer over the workbook at filePath. The workbook
// and its Users sheet are created on first sync if missing.
func NewSheetSyncer(filePath string) *SheetSyncer {
	return &SheetSyncer{filePath: filePath}
}

// SyncUser writes one user's state into the Users sheet.
func (s *SheetSyncer) SyncUser(userID string, currentDay int, lastUpdated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(UsersSheet)
	if err != nil {
		return fmt.Errorf("failed to read users sheet: %v", err)
	}

	// Locate the user's row by the first column.
	targetRow := 0
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == userID {
			targetRow = i + 1 // excelize rows are 1-based
			break
		}
	}
	if targetRow == 0 {
		targetRow = len(rows) + 1
		if err := f.SetCellValue(UsersSheet, fmt.Sprintf("A%d", targetRow), userID); err != nil {
			return fmt.Errorf("failed to append user row: %v", err)
		}
	}

	if err := f.SetCellValue(UsersSheet, fmt.Sprintf("B%d", targetRow), currentDay); err != nil {
		return fmt.Errorf("failed to set current day: %v", err)
	}
	if err := f.SetCellValue(UsersSheet, fmt.Sprintf("C%d", targetRow), lastUpdated); err != nil {
		return fmt.Errorf("failed to set last updated: %v", err)
	}

	if err := f.SaveAs(s.filePath); err != nil {
		return fmt.Errorf("failed to save users sheet: %v", err)
	}
	return nil
}

func (s *SheetSyncer) open() (*excelize.File, error) {
	if _, err := os.Stat(s.filePath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		f := excelize.NewFile()
		idx, err := f.NewSheet(UsersSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to create users sheet: %v", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to drop default sheet: %v", err)
		}
		return f, nil
	}

	f, err := excelize.OpenFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open users workbook: %v", err)
	}
	if idx, err := f.GetSheetIndex(UsersSheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(UsersSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create users sheet: %v", err)
		}
	}
	return f, nil
}
