package fileio

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// ReadStrippedLines returns the non-blank lines of path with surrounding
// whitespace removed, in file order.
func ReadStrippedLines(fs afero.Fs, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// ReadTOML decodes path into a generic document.
func ReadTOML(fs afero.Fs, path string) (map[string]any, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	data := map[string]any{}
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode toml %s: %w", path, err)
	}
	return data, nil
}
