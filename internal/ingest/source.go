package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// MissingText is what an absent or empty text field is scored and stored as.
const MissingText = "nan"

var encodingAliases = map[string]string{
	"latin-1": "ISO-8859-1",
	"latin1":  "ISO-8859-1",
	"l1":      "ISO-8859-1",
	"cp1252":  "windows-1252",
}

// Field is one text cell. OK is false when the row had no such column.
type Field struct {
	Value string
	OK    bool
}

// CoerceText maps a possibly missing field to the text that gets scored.
func CoerceText(value string, ok bool) string {
	if !ok || value == "" {
		return MissingText
	}
	return value
}

// CSVSource reads one column of a CSV file in fixed-size chunks. Only the
// current chunk is held in memory.
type CSVSource struct {
	path      string
	file      *os.File
	reader    *csv.Reader
	column    int
	chunkSize int
	checkUTF8 bool
}

// OpenCSV opens cfg.Path, decodes it from cfg.Encoding and locates the
// cfg.TextColumn header.
func OpenCSV(cfg config.SourceConfig, chunkSize int) (*CSVSource, error) {
	if chunkSize < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "chunk size must be >= 1, got %d", chunkSize)
	}
	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrSourceNotFound, err, cfg.Path)
		}
		return nil, apperrors.Wrap(apperrors.ErrSourceRead, err, cfg.Path)
	}

	var r io.Reader = f
	if enc != nil {
		r = transform.NewReader(f, enc.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Newf(apperrors.ErrSourceRead, "%s: empty file, no header row", cfg.Path)
		}
		return nil, apperrors.Wrap(apperrors.ErrSourceRead, err, cfg.Path+": reading header")
	}
	column := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if strings.TrimSpace(name) == cfg.TextColumn {
			column = i
			break
		}
	}
	if column < 0 {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrSourceRead, "%s: column %q not found in header", cfg.Path, cfg.TextColumn)
	}

	return &CSVSource{
		path:      cfg.Path,
		file:      f,
		reader:    cr,
		column:    column,
		chunkSize: chunkSize,
		checkUTF8: enc == nil,
	}, nil
}

// Next returns up to chunkSize fields in file order. It returns io.EOF once
// the file is exhausted and no fields remain.
func (s *CSVSource) Next() ([]Field, error) {
	chunk := make([]Field, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrSourceRead, err, s.path)
		}
		if s.column >= len(record) {
			chunk = append(chunk, Field{})
			continue
		}
		value := record[s.column]
		if s.checkUTF8 && !utf8.ValidString(value) {
			line, _ := s.reader.FieldPos(s.column)
			return nil, apperrors.Newf(apperrors.ErrSourceRead,
				"%s:%d: text is not valid UTF-8, set source.encoding", s.path, line)
		}
		chunk = append(chunk, Field{Value: value, OK: true})
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

func (s *CSVSource) Close() error {
	return s.file.Close()
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if alias, ok := encodingAliases[n]; ok {
		n = alias
	}
	enc, err := ianaindex.IANA.Encoding(n)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSourceRead, err, fmt.Sprintf("unknown encoding %q", name))
	}
	if enc == nil {
		return nil, apperrors.Newf(apperrors.ErrSourceRead, "unsupported encoding %q", name)
	}
	return enc, nil
}
