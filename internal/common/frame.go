// Package common provides the CSV plumbing shared by the statement adapters
// and the exporters: decoding institution exports into typed rows and
// writing normalized transactions back out.
package common

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/stmt-import/internal/parsererror"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names the character set of an institution export.
type Encoding string

const (
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
	EncodingCP932    Encoding = "cp932"
)

// decoder returns the x/text decoder for e. UTF-8 input has its BOM removed.
// CP932 is decoded with the Shift-JIS table, which includes the Microsoft
// extensions.
func (e Encoding) decoder() (*encoding.Decoder, error) {
	switch Encoding(strings.ToLower(string(e))) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	case EncodingShiftJIS, "sjis", EncodingCP932, "windows-31j":
		return japanese.ShiftJIS.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", e)
}

// FrameConfig describes the physical layout of an export file.
type FrameConfig struct {
	Encoding         Encoding
	HeaderRowsToSkip int
	FooterRowsToSkip int
	// Columns, when set, renames the leading columns positionally. The
	// file's own header row is still consumed and columns past len(Columns)
	// are discarded.
	Columns []string
}

// FrameReader yields the header record followed by the data records of an
// export, with preamble and footer rows removed. It satisfies
// gocsv.CSVReader so that rows can be decoded straight into tagged structs.
// Records are streamed; only FooterRowsToSkip records are buffered.
type FrameReader struct {
	csv     *csv.Reader
	header  []string
	pending [][]string
	footer  int
	sentHdr bool
	done    bool
}

// NewFrameReader decodes r according to cfg, consumes the preamble and the
// header, and checks that every required column is present.
func NewFrameReader(r io.Reader, name string, cfg FrameConfig, required []string) (*FrameReader, error) {
	dec, err := cfg.Encoding.decoder()
	if err != nil {
		return nil, &parsererror.InvalidFormatError{FilePath: name, ExpectedFormat: string(cfg.Encoding), Msg: err.Error()}
	}

	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for i := 0; i < cfg.HeaderRowsToSkip; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, formatError(name, cfg, "file ended inside the preamble", err)
		}
	}

	fr := &FrameReader{csv: reader, footer: cfg.FooterRowsToSkip}

	rec, err := reader.Read()
	if err != nil {
		return nil, formatError(name, cfg, "missing header row", err)
	}
	fr.header = cleanHeader(rec)
	if len(cfg.Columns) > 0 {
		fr.header = append([]string(nil), cfg.Columns...)
	}

	if missing := missingColumns(fr.header, required); len(missing) > 0 {
		return nil, &parsererror.InvalidFormatError{
			FilePath:             name,
			ExpectedFormat:       "columns " + strings.Join(required, ", "),
			ActualContentSnippet: strings.Join(fr.header, ","),
			Msg:                  "missing column " + strings.Join(missing, ", "),
		}
	}
	return fr, nil
}

func formatError(name string, cfg FrameConfig, msg string, err error) error {
	if errors.Is(err, io.EOF) {
		return &parsererror.InvalidFormatError{FilePath: name, ExpectedFormat: string(cfg.Encoding) + " CSV", Msg: msg}
	}
	return &parsererror.InvalidFormatError{
		FilePath:       name,
		ExpectedFormat: string(cfg.Encoding) + " CSV",
		Msg:            fmt.Sprintf("%s: %v", msg, err),
		Err:            err,
	}
}

func cleanHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, col := range rec {
		col = strings.TrimPrefix(col, "\ufeff")
		out[i] = strings.TrimSpace(col)
	}
	return out
}

func missingColumns(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Header returns the effective column names.
func (f *FrameReader) Header() []string {
	return f.header
}

// Read returns the header on the first call and data records afterwards,
// each padded or truncated to the header width. It returns io.EOF once the
// records preceding the footer are exhausted.
func (f *FrameReader) Read() ([]string, error) {
	if !f.sentHdr {
		f.sentHdr = true
		return f.header, nil
	}
	if f.done {
		return nil, io.EOF
	}

	for len(f.pending) <= f.footer {
		rec, err := f.csv.Read()
		if errors.Is(err, io.EOF) {
			f.done = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		f.pending = append(f.pending, f.fit(rec))
	}

	rec := f.pending[0]
	f.pending = f.pending[1:]
	return rec, nil
}

// ReadAll drains the reader, header included.
func (f *FrameReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := f.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func (f *FrameReader) fit(rec []string) []string {
	if len(rec) == len(f.header) {
		return rec
	}
	out := make([]string, len(f.header))
	copy(out, rec)
	return out
}

// DecodeFrame reads an export into a slice of gocsv-tagged row structs.
func DecodeFrame[TRow any](r io.Reader, name string, cfg FrameConfig, required []string) ([]TRow, error) {
	fr, err := NewFrameReader(r, name, cfg, required)
	if err != nil {
		return nil, err
	}

	var rows []TRow
	if err := gocsv.UnmarshalCSV(fr, &rows); err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       name,
			ExpectedFormat: string(cfg.Encoding) + " CSV",
			Msg:            fmt.Sprintf("failed to decode rows: %v", err),
			Err:            err,
		}
	}
	return rows, nil
}
