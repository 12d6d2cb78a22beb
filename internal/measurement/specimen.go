package measurement

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philipparndt/gomeasure/pkg/photo"
)

// DefaultLogExtension is used for batch logs when no format is requested
const DefaultLogExtension = ".xlsx"

// SpecimenID identifies a specimen by lot and subject
type SpecimenID struct {
	Lot     string
	Subject string
	Suffix  string
}

func (id SpecimenID) String() string {
	return id.Lot + "_" + id.Subject
}

// ParseSpecimenID splits a file name of the form lot_subject_<suffix>.
// The suffix may itself contain underscores.
func ParseSpecimenID(path string) (SpecimenID, error) {
	stem := photo.Stem(path)
	parts := strings.SplitN(stem, "_", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return SpecimenID{}, fmt.Errorf("%q does not match lot_subject_<suffix>: %w", filepath.Base(path), ErrInvalidSpecimenName)
	}
	return SpecimenID{Lot: parts[0], Subject: parts[1], Suffix: parts[2]}, nil
}

// BatchLogPath returns the log shared by every photo in the folder of imagePath:
// <folder>/<folder>_droop<ext>
func BatchLogPath(imagePath, ext string) string {
	if ext == "" {
		ext = DefaultLogExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Dir(imagePath)
	abs, err := filepath.Abs(dir)
	if err == nil {
		dir = abs
	}
	return filepath.Join(dir, filepath.Base(dir)+"_droop"+ext)
}
