package state

import (
	"fmt"
	"io"
	"os"
)

// Record is the human-readable summary of the most recent config stage.
// Every line is written both to the console and to the record file, so the
// file mirrors what the user saw. The file is recreated at the start of each
// config stage and read-only afterward.
type Record struct {
	file *os.File
	out  io.Writer
}

// CreateRecord truncates any previous record at path and starts a new one
// teeing to out.
func CreateRecord(path string, out io.Writer) (*Record, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create build record %q: %w", path, err)
	}
	return &Record{file: file, out: out}, nil
}

// Printf writes one formatted line to both the console and the record file.
func (r *Record) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, line)
	fmt.Fprintln(r.file, line)
}

// Close flushes and closes the record file.
func (r *Record) Close() error {
	return r.file.Close()
}
