package export

import (
	"bytes"
	"encoding/csv"

	"jira-extract/internal/report"

	"github.com/rs/zerolog/log"
)

// ToCSV renders rows as comma-separated text. URL columns are dropped because CSV cannot carry links.
func ToCSV(rows report.RowSet) ([]byte, error) {
	if len(rows) == 0 {
		return nil, &ExportError{Format: "CSV", Err: ErrEmpty}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(report.DisplayColumns); err != nil {
		return nil, &ExportError{Format: "CSV", Err: err}
	}
	for _, r := range rows {
		if err := w.Write(r.Values()); err != nil {
			return nil, &ExportError{Format: "CSV", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &ExportError{Format: "CSV", Err: err}
	}

	log.Info().Int("rows", len(rows)).Msg("Exported rows to CSV")
	return buf.Bytes(), nil
}
