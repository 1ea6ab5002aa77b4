package results

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

// formatVersion tags the table layout; bump on incompatible changes.
const formatVersion = 1

// Encode renders the table to its delimited text form and applies the
// configured compression.
func Encode(t *Table, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# harmc trial table v%d\n", formatVersion)
	fmt.Fprintf(&buf, "# coefficients %d\n", t.Coefficients)
	fmt.Fprintf(&buf, "# trials %d\n", t.Trials)
	fmt.Fprintf(&buf, "# seed %d\n", t.Seed)
	fmt.Fprintf(&buf, "# window %d\n", t.WindowLength)
	fmt.Fprintf(&buf, "# fingerprint %016x\n", t.Fingerprint)

	for j := 0; j < t.Coefficients; j++ {
		fmt.Fprintf(&buf, "b%d,", j)
	}
	buf.WriteString("status\n")

	for i, row := range t.Rows {
		if len(row.Beta) != t.Coefficients {
			return nil, fmt.Errorf("row %d has %d coefficients, table declares %d",
				i, len(row.Beta), t.Coefficients)
		}
		for _, v := range row.Beta {
			buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(row.Status))
		buf.WriteByte('\n')
	}

	return cfg.codec.Compress(buf.Bytes())
}

// Write encodes the table and writes it to w.
func Write(w io.Writer, t *Table, opts ...Option) error {
	data, err := Encode(t, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)

	return err
}

// WriteFile encodes the table and writes it to path, replacing any existing
// file.
func WriteFile(path string, t *Table, opts ...Option) error {
	data, err := Encode(t, opts...)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
