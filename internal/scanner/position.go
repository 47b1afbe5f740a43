package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/processedlog"
)

// CVDirName is the sub-directory of a position that holds candidate files.
const CVDirName = "CVs"

// Position is one job opening folder.
type Position struct {
	Path string
	Name string
	// JobDescription is the path of the only job description file.
	JobDescription string
	CVDir          string
	Log            *processedlog.Log
	// Discovered lists every supported CV file, sorted by name.
	Discovered []string
	// Pending lists the discovered files missing from the processed log.
	Pending []string
}

// JobDescriptionCountError is returned when a position does not hold exactly one job description.
type JobDescriptionCountError struct {
	Found int
}

func (e *JobDescriptionCountError) Error() string {
	return fmt.Sprintf("expected exactly one job description file, found %d", e.Found)
}

// JobDescription returns the single .pdf or .docx file directly inside dir.
func JobDescription(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read position directory: %w", err)
	}

	var found []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || skipName(entry.Name()) || !extract.Supported(entry.Name()) {
			continue
		}
		found = append(found, filepath.Join(dir, entry.Name()))
	}

	if len(found) != 1 {
		return "", &JobDescriptionCountError{Found: len(found)}
	}
	return found[0], nil
}

// CVFiles lists the supported files directly inside dir.
func CVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s directory: %w", CVDirName, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || skipName(entry.Name()) || !extract.Supported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// IsPosition reports whether dir has a CVs sub-directory.
func IsPosition(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, CVDirName))
	return err == nil && info.IsDir()
}

// Hidden files and editor lock files.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}

func loadPosition(dir string) (*Position, error) {
	jd, err := JobDescription(dir)
	if err != nil {
		return nil, err
	}

	pos := &Position{
		Path:           dir,
		Name:           filepath.Base(dir),
		JobDescription: jd,
		CVDir:          filepath.Join(dir, CVDirName),
		Log:            processedlog.New(dir),
	}

	if pos.Discovered, err = CVFiles(pos.CVDir); err != nil {
		return nil, err
	}

	processed, err := pos.Log.Read()
	if err != nil {
		return nil, err
	}
	for _, path := range pos.Discovered {
		if _, ok := processed[filepath.Base(path)]; ok {
			continue
		}
		pos.Pending = append(pos.Pending, path)
	}

	return pos, nil
}
