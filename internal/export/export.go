package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExportError reports a failed export in the named format.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to export to %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

var ErrEmpty = errors.New("cannot export an empty result set")

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv"

	DefaultBaseName = "QA_Refinement_Session"
)

// Filename builds a safe download name, e.g. QA_Refinement_Session_20240315_101500.xlsx.
func Filename(base, ext string, withTimestamp bool, now time.Time) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	safe := strings.Map(func(r rune) rune {
		if isAlnum(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, base)
	if withTimestamp {
		return fmt.Sprintf("%s_%s%s", safe, now.Format("20060102_150405"), ext)
	}
	return safe + ext
}

// ValidateFilename rejects traversal, unexpected extensions and overlong names.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return errors.New("filename cannot be empty")
	case strings.Contains(name, "..") || strings.ContainsAny(name, `/\`):
		return errors.New("invalid filename: path traversal detected")
	case len(name) > 255:
		return errors.New("filename too long")
	}
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".csv") {
		return errors.New("invalid file extension. Allowed: .xlsx, .csv")
	}
	return nil
}

// SheetName trims a sheet title to Excel's 31 character limit and strips unsupported characters.
func SheetName(name string) string {
	if len(name) > 31 {
		name = name[:31]
	}
	name = strings.Map(func(r rune) rune {
		if isAlnum(r) || r == '-' || r == '_' || r == ' ' {
			return r
		}
		return -1
	}, name)
	if name == "" {
		return "Sheet1"
	}
	return name
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
