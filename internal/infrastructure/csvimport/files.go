package csvimport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logicalc/loancalc/internal/application/dto"
)

// File is one parsed rate table file.
type File struct {
	Path     string
	Sections []dto.RateTableSection
}

// Request builds the import request for f.
func (f File) Request() dto.ImportRateTableRequest {
	return dto.ImportRateTableRequest{Source: f.Path, Sections: f.Sections}
}

// LoadPath parses path, or every .csv file directly inside it when path is a
// directory. Files come back sorted by name. A directory without CSV files
// is an error.
func LoadPath(path string) ([]File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		f, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []File{f}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .csv files in %s", path)
	}
	sort.Strings(names)

	files := make([]File, 0, len(names))
	for _, name := range names {
		f, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func loadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	sections, err := Parse(fh)
	if err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return File{Path: path, Sections: sections}, nil
}
