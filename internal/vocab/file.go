package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hrrnet/internal/hrr"
)

// FileName is the conventional vocabulary file name.
func FileName(dimension, numwords int, seed int64) string {
	return fmt.Sprintf("RPMvocab_%dx%d_%d.txt", numwords, dimension, seed)
}

// Write emits one line per symbol: the name followed by its components,
// space separated, in shortest round-trip decimal form.
func Write(w io.Writer, v *Vocabulary) error {
	bw := bufio.NewWriter(w)
	for _, s := range v.symbols {
		if _, err := bw.WriteString(s.Name); err != nil {
			return err
		}
		for _, x := range s.Vector {
			if err := bw.WriteByte(' '); err != nil {
				return err
			}
			if _, err := bw.WriteString(strconv.FormatFloat(x, 'g', -1, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses the format produced by Write. Blank lines are skipped.
func Read(r io.Reader) (*Vocabulary, error) {
	v := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		vec := make(hrr.Vector, len(fields)-1)
		for i, f := range fields[1:] {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = x
		}
		if d := v.Dimension(); v.Len() > 0 && len(vec) != d {
			return nil, fmt.Errorf("line %d: %w: symbol %s has %d components, want %d",
				line, hrr.ErrDimensionMismatch, fields[0], len(vec), d)
		}
		if err := v.Add(fields[0], vec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

func SaveFile(path string, v *Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func LoadFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
