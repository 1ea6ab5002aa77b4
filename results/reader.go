package results

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/harmosat/harmc/errs"
)

// Decode parses a table from its encoded form, decompressing first when a
// compression option is given.
//
// A structurally valid table holding fewer rows than its declared trial
// count is returned together with errs.ErrTableIncomplete, so an aborted
// run's partial results remain inspectable but are clearly flagged.
func Decode(data []byte, opts ...Option) (*Table, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	text, err := cfg.codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTableFormat, err)
	}

	t := &Table{Coefficients: -1}
	sawColumns := false

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if err := parseHeaderLine(t, line); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", errs.ErrTableFormat, lineNo, err)
			}
			continue
		}
		if !sawColumns {
			// The first non-comment line names the columns.
			sawColumns = true
			continue
		}
		row, err := parseRow(line, t.Coefficients)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", errs.ErrTableFormat, lineNo, err)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTableFormat, err)
	}
	if t.Coefficients < 0 {
		return nil, fmt.Errorf("%w: missing coefficients header", errs.ErrTableFormat)
	}

	if len(t.Rows) < t.Trials {
		return t, fmt.Errorf("%w: %d of %d trials present", errs.ErrTableIncomplete, len(t.Rows), t.Trials)
	}

	return t, nil
}

func parseHeaderLine(t *Table, line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(fields) < 2 {
		return nil // title line
	}
	key := fields[0]
	value := fields[len(fields)-1]

	switch key {
	case "coefficients":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad coefficients value %q", value)
		}
		t.Coefficients = n
	case "trials":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad trials value %q", value)
		}
		t.Trials = n
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("bad seed value %q", value)
		}
		t.Seed = n
	case "window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad window value %q", value)
		}
		t.WindowLength = n
	case "fingerprint":
		n, err := strconv.ParseUint(value, 16, 64)
		if err != nil {
			return fmt.Errorf("bad fingerprint value %q", value)
		}
		t.Fingerprint = n
	}

	return nil
}

func parseRow(line string, coefficients int) (Row, error) {
	fields := strings.Split(line, ",")
	if len(fields) != coefficients+1 {
		return Row{}, fmt.Errorf("%d fields, want %d", len(fields), coefficients+1)
	}

	row := Row{Beta: make([]float64, coefficients)}
	for j := 0; j < coefficients; j++ {
		v, err := strconv.ParseFloat(fields[j], 64)
		if err != nil {
			return Row{}, fmt.Errorf("bad coefficient %q", fields[j])
		}
		row.Beta[j] = v
	}
	status, err := strconv.Atoi(fields[coefficients])
	if err != nil {
		return Row{}, fmt.Errorf("bad status %q", fields[coefficients])
	}
	row.Status = status

	return row, nil
}

// Read decodes a table from r.
func Read(r io.Reader, opts ...Option) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Decode(data, opts...)
}

// ReadFile decodes a table from path.
func ReadFile(path string, opts ...Option) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data, opts...)
}
