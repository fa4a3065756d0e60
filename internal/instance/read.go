package instance

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/schema"
)

// readText reads a file and decodes it from the named encoding to UTF-8.
// A leading byte order mark is honoured and stripped. Bytes that are not
// valid in the encoding are an error; nothing is replaced.
func readText(kind FileKind, path, encoding string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: kind, File: path, Code: ErrCodeFileUnreadable, Err: err}
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, &ParseError{Kind: kind, File: path, Code: ErrCodeEncoding, Err: fmt.Errorf("encoding %q: %w", encoding, err)}
	}

	if name, _ := htmlindex.Name(enc); name == "utf-8" || bytes.HasPrefix(raw, utf8BOM) {
		body := bytes.TrimPrefix(raw, utf8BOM)
		if off := invalidUTF8Offset(body); off >= 0 {
			off += len(raw) - len(body)
			return nil, &ParseError{
				Kind: kind, File: path, Code: ErrCodeEncoding,
				Line: bytes.Count(raw[:off], []byte{'\n'}) + 1,
				Err:  fmt.Errorf("invalid UTF-8 at byte offset %d", off),
			}
		}
		return body, nil
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), raw)
	if err != nil {
		return nil, &ParseError{Kind: kind, File: path, Code: ErrCodeEncoding, Err: err}
	}
	// Legacy decoders substitute U+FFFD for undecodable input.
	if bytes.Count(decoded, replacementChar) > encodedReplacements(enc, raw) {
		return nil, &ParseError{
			Kind: kind, File: path, Code: ErrCodeEncoding,
			Err: fmt.Errorf("invalid %s byte sequence", encoding),
		}
	}
	return decoded, nil
}

var (
	utf8BOM         = []byte("\xef\xbb\xbf")
	replacementChar = []byte(string(utf8.RuneError))
)

// invalidUTF8Offset returns the offset of the first byte that does not start
// a valid UTF-8 sequence, or -1.
func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// encodedReplacements counts U+FFFD characters literally present in raw.
func encodedReplacements(enc encoding.Encoding, raw []byte) int {
	seq, err := enc.NewEncoder().Bytes(replacementChar)
	if err != nil || len(seq) == 0 {
		return 0
	}
	return bytes.Count(raw, seq)
}

// checkShape runs the CUE schema and maps its failures to parse errors.
func checkShape(kind FileKind, definition, path string, data []byte) error {
	err := schema.Check(definition, path, data)
	if err == nil {
		return nil
	}

	var syntaxErr *schema.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Kind: kind, File: path, Code: ErrCodeMalformed, Line: syntaxErr.Line, Err: errors.New(syntaxErr.Message)}
	}
	var shapeErr *schema.Error
	if errors.As(err, &shapeErr) {
		return &ParseError{Kind: kind, File: path, Code: ErrCodeSchema, Line: shapeErr.Line, Err: errors.New(shapeErr.Message)}
	}
	return &ParseError{Kind: kind, File: path, Code: ErrCodeSchema, Err: err}
}

// splitSequenced decodes a document of the form {"<seqKey>": [...], "<id>": [...], ...}.
func splitSequenced(data []byte, seqKey string) ([]string, map[string][]string, error) {
	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	seq := doc[seqKey]
	delete(doc, seqKey)
	if doc == nil {
		doc = map[string][]string{}
	}
	return seq, doc, nil
}

// ReadMachineEnvironment reads a *_mc_env.json file.
func ReadMachineEnvironment(path, encoding string) (MachineEnvironment, error) {
	data, err := readText(FileMachineEnv, path, encoding)
	if err != nil {
		return MachineEnvironment{}, err
	}
	if err := checkShape(FileMachineEnv, schema.MachineEnvironment, path, data); err != nil {
		return MachineEnvironment{}, err
	}

	seq, machines, err := splitSequenced(data, StageSeqKey)
	if err != nil {
		return MachineEnvironment{}, &ParseError{Kind: FileMachineEnv, File: path, Code: ErrCodeMalformed, Err: err}
	}
	if len(seq) == 0 {
		return MachineEnvironment{}, &ParseError{Kind: FileMachineEnv, File: path, Code: ErrCodeNoStageSeq, Err: errors.New("stage sequence not defined")}
	}
	return MachineEnvironment{StageSeq: seq, Machines: machines}, nil
}

// ReadCasts reads a *_cast.json file.
func ReadCasts(path, encoding string) (CastSet, error) {
	data, err := readText(FileCast, path, encoding)
	if err != nil {
		return CastSet{}, err
	}
	if err := checkShape(FileCast, schema.Cast, path, data); err != nil {
		return CastSet{}, err
	}

	seq, charges, err := splitSequenced(data, CastSeqKey)
	if err != nil {
		return CastSet{}, &ParseError{Kind: FileCast, File: path, Code: ErrCodeMalformed, Err: err}
	}
	if len(seq) == 0 {
		return CastSet{}, &ParseError{Kind: FileCast, File: path, Code: ErrCodeNoCastSeq, Err: errors.New("cast sequence not defined")}
	}
	return CastSet{CastSeq: seq, Charges: charges}, nil
}

// ReadDueDates reads a *_duedate.json file.
func ReadDueDates(path, encoding string) (DueDates, error) {
	data, err := readText(FileDueDate, path, encoding)
	if err != nil {
		return nil, err
	}
	if err := checkShape(FileDueDate, schema.DueDate, path, data); err != nil {
		return nil, err
	}

	var due DueDates
	if err := json.Unmarshal(data, &due); err != nil {
		return nil, &ParseError{Kind: FileDueDate, File: path, Code: ErrCodeMalformed, Err: err}
	}
	if due == nil {
		due = DueDates{}
	}
	return due, nil
}

// ReadProcessingTimes reads a *_pt.csv file with the given header names.
// Column order is free; extra columns are ignored.
func ReadProcessingTimes(path, encoding string, header Header) (ProcessingTimes, error) {
	data, err := readText(FileProcessingTime, path, encoding)
	if err != nil {
		return nil, err
	}

	fail := func(code string, line int, err error) error {
		return &ParseError{Kind: FileProcessingTime, File: path, Code: code, Line: line, Err: err}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	names, err := r.Read()
	if err == io.EOF {
		return nil, fail(ErrCodeBadHeader, 1, errors.New("empty file, header expected"))
	}
	if err != nil {
		return nil, fail(ErrCodeMalformed, csvLine(err), err)
	}

	col := make(map[string]int, len(names))
	for i, name := range names {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, want := range []string{header.Charge, header.Machine, header.Time} {
		if _, ok := col[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fail(ErrCodeBadHeader, 1, fmt.Errorf("missing column(s) %s", strings.Join(missing, ", ")))
	}
	chCol, mcCol, ptCol := col[header.Charge], col[header.Machine], col[header.Time]

	pt := make(ProcessingTimes)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fail(ErrCodeMalformed, csvLine(err), err)
		}
		line, _ := r.FieldPos(0)

		charge := strings.TrimSpace(record[chCol])
		machine := strings.TrimSpace(record[mcCol])
		if charge == "" || machine == "" {
			return nil, fail(ErrCodeMalformed, line, errors.New("empty charge or machine id"))
		}
		value, err := strconv.Atoi(strings.TrimSpace(record[ptCol]))
		if err != nil {
			return nil, fail(ErrCodeBadTime, line, fmt.Errorf("processing time %q is not an integer", record[ptCol]))
		}

		rows, ok := pt[charge]
		if !ok {
			rows = make(map[string]int)
			pt[charge] = rows
		}
		if _, dup := rows[machine]; dup {
			return nil, fail(ErrCodeDuplicateRow, line, fmt.Errorf("duplicate row for charge %s on machine %s", charge, machine))
		}
		rows[machine] = value
	}
	return pt, nil
}

func csvLine(err error) int {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return perr.Line
	}
	return 0
}
