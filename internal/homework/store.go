package homework

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/example/jdoitbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Store is the read-only source of homework sentences.
type Store interface {
	GetHomework(day int) []models.HomeworkItem
}

// Expected header columns on the first sheet of the workbook.
const (
	colDay      = "day"
	colText     = "text"
	colAudioURL = "audio_url"
)

// WorkbookStore reads homework rows from an Excel workbook. The workbook is
// opened lazily on the first lookup and the handle is cached afterwards.
type WorkbookStore struct {
	filePath string

	mu   sync.Mutex
	file *excelize.File
}

// NewWorkbookStore creates a store backed by the given workbook path. The file
// is not touched until the first GetHomework call.
func NewWorkbookStore(filePath string) *WorkbookStore {
	return &WorkbookStore{filePath: filePath}
}

// GetHomework returns every homework item whose day column equals the requested
// day, in sheet order. Day values are compared as trimmed strings so numeric
// and textual cells behave the same. Any failure (missing file, unreadable
// sheet) is logged and yields an empty slice, never an error.
func (s *WorkbookStore) GetHomework(day int) []models.HomeworkItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		log.Printf("Error opening homework workbook %s: %v", s.filePath, err)
		return nil
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		log.Printf("Error reading homework sheet %q: %v", sheet, err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	// Resolve column positions from the header row.
	dayIdx, textIdx, audioIdx := -1, -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colDay:
			dayIdx = i
		case colText:
			textIdx = i
		case colAudioURL:
			audioIdx = i
		}
	}
	if dayIdx < 0 || textIdx < 0 {
		log.Printf("Homework sheet %q is missing day/text columns", sheet)
		return nil
	}

	target := strconv.Itoa(day)
	var items []models.HomeworkItem
	for _, row := range rows[1:] {
		if dayIdx >= len(row) || textIdx >= len(row) {
			continue
		}
		if strings.TrimSpace(row[dayIdx]) != target {
			continue
		}
		text := strings.TrimSpace(row[textIdx])
		if text == "" {
			continue
		}
		item := models.HomeworkItem{Day: day, Text: text}
		if audioIdx >= 0 && audioIdx < len(row) {
			item.AudioURL = strings.TrimSpace(row[audioIdx])
		}
		items = append(items, item)
	}
	return items
}

// Reload drops the cached workbook handle so the next lookup re-reads the file.
func (s *WorkbookStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}

func (s *WorkbookStore) open() (*excelize.File, error) {
	if s.file != nil {
		return s.file, nil
	}
	if _, err := os.Stat(s.filePath); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.filePath)
	if err != nil {
		return nil, err
	}
	s.file = f
	return f, nil
}
