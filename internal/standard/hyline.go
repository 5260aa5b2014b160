package standard

import (
	_ "embed"
	"fmt"
	"io"
	"os"
)

// HyLineMaxProText is the Hy-Line Max Pro performance guide, weeks 18–30.
//
//go:embed hyline_max_pro.txt
var HyLineMaxProText string

// HyLineMaxPro parses the embedded Hy-Line Max Pro guide. Each call builds a
// fresh table; callers construct it once and share it.
func HyLineMaxPro() *Table {
	return ParseTable(HyLineMaxProText)
}

// Load reads a complete table text from r and parses it.
func Load(r io.Reader) (*Table, Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read standard table: %w", err)
	}
	t, report := ParseTableReport(string(data))
	return t, report, nil
}

// LoadFile parses the table at path, or the embedded Hy-Line Max Pro guide
// when path is empty.
func LoadFile(path string) (*Table, Report, error) {
	if path == "" {
		t, report := ParseTableReport(HyLineMaxProText)
		return t, report, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open standard table: %w", err)
	}
	defer f.Close()
	return Load(f)
}
