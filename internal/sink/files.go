package sink

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// TimestampFormat is used in every generated file name
const TimestampFormat = "2006-01-02_15-04-05"

const fineTimestampFormat = "2006-01-02_15-04-05.000"

// createExclusive creates <dir>/<stem>_<timestamp>_<tag><ext> without ever
// replacing an existing file. On a collision the timestamp gains
// milliseconds, then a counter.
func createExclusive(dir, stem, tag, ext string, now time.Time) (*os.File, string, error) {
	candidates := []string{
		fmt.Sprintf("%s_%s_%s%s", stem, now.Format(TimestampFormat), tag, ext),
		fmt.Sprintf("%s_%s_%s%s", stem, now.Format(fineTimestampFormat), tag, ext),
	}
	for i := 1; i <= 99; i++ {
		candidates = append(candidates, fmt.Sprintf("%s_%s-%d_%s%s", stem, now.Format(fineTimestampFormat), i, tag, ext))
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s in %s", stem, dir)
}

// writeExclusive creates a file like createExclusive and fills it with
// write. A file whose content could not be written completely is removed.
func writeExclusive(dir, stem, tag, ext string, now time.Time, write func(io.Writer) error) (string, error) {
	file, path, err := createExclusive(dir, stem, tag, ext, now)
	if err != nil {
		return "", err
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// outputDir returns dir, or the folder of source when dir is empty
func outputDir(dir, source string) string {
	if dir != "" {
		return dir
	}
	if source != "" {
		return filepath.Dir(source)
	}
	return "."
}
