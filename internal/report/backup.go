package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"spesometro/internal/core"
)

// BackupVersion is written into every JSON backup.
const BackupVersion = "1.0"

var ErrNothingToExport = errors.New("no expenses to export")

// Backup is the JSON document written by WriteJSONBackup.
type Backup struct {
	Expenses   []core.Expense  `json:"expenses"`
	Categories []core.Category `json:"categories"`
	ExportedAt time.Time       `json:"exportedAt"`
	Version    string          `json:"version"`
}

// BackupFileName is the default file name for a backup taken at now.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("spesometro-backup-%s.json", now.Format(core.DateLayout))
}

// WriteJSONBackup writes every expense and category as one indented JSON
// document. An empty ledger is refused with ErrNothingToExport.
func WriteJSONBackup(w io.Writer, expenses []core.Expense, categories []core.Category, now time.Time) error {
	if len(expenses) == 0 {
		return ErrNothingToExport
	}
	if categories == nil {
		categories = []core.Category{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Backup{
		Expenses:   expenses,
		Categories: categories,
		ExportedAt: now.UTC(),
		Version:    BackupVersion,
	}); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ReadJSONBackup decodes a document produced by WriteJSONBackup.
func ReadJSONBackup(r io.Reader) (Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	return b, nil
}
