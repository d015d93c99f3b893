package core

// parser.go implements the CSV state machine shared by every load path.
//
// A Parser is fed bytes in arbitrarily sized pieces through Write and
// hands out fully terminated rows through Rows. Because all decisions that
// need a lookahead byte (escaped quotes, "\r\n") are carried across calls as
// explicit state, splitting the input at any offset yields the same rows.
//
// Quoting is lenient:
//   - '"' outside quotes opens a quoted section, even mid-field
//   - '""' inside quotes is a literal '"'
//   - '"' followed by ',', '\n', '\r' or end of input closes the section
//   - any other '"' inside quotes is dropped and the section stays open
//
// Rows end at "\n", "\r\n" or a lone "\r". Blank lines are skipped.

import (
	"errors"
	"fmt"
)

// ErrRowTooLarge is returned when a single row grows past the parser's
// row limit without being terminated.
var ErrRowTooLarge = errors.New("csv row too large")

// DefaultMaxRowBytes bounds the bytes buffered for one unterminated row.
const DefaultMaxRowBytes = 16 << 20

var utf8BOM = [3]byte{0xEF, 0xBB, 0xBF}

// Parser is an incremental CSV tokenizer. It is not safe for concurrent use.
type Parser struct {
	maxRow int

	// bomMatched counts leading bytes that matched the UTF-8 BOM so far;
	// -1 once the start of input has been resolved.
	bomMatched int

	inQuotes     bool
	quotePending bool // saw '"' inside quotes, next byte decides its meaning
	skipLF       bool // previous byte was a row-ending '\r'

	field    []byte
	row      []string
	rowBytes int
	rows     [][]string

	err    error
	closed bool
}

// NewParser returns a Parser that fails with ErrRowTooLarge once a single
// row exceeds maxRowBytes. A value <= 0 disables the limit.
func NewParser(maxRowBytes int) *Parser {
	return &Parser{maxRow: maxRowBytes}
}

// Write feeds the next piece of input. It implements io.Writer so a Parser
// can be the destination of io.Copy.
func (p *Parser) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.closed {
		return 0, errors.New("csv parser: write after close")
	}

	for i, c := range b {
		if p.bomMatched >= 0 {
			if c == utf8BOM[p.bomMatched] {
				p.bomMatched++
				if p.bomMatched == len(utf8BOM) {
					p.bomMatched = -1
				}
				continue
			}
			if err := p.replayBOMPrefix(); err != nil {
				return i, err
			}
		}
		if err := p.step(c); err != nil {
			p.err = err
			return i, err
		}
	}
	return len(b), nil
}

// Close marks the end of input and flushes a trailing row that has no
// line terminator. Rows produced by the flush are available from Rows.
func (p *Parser) Close() error {
	if p.closed {
		return p.err
	}
	p.closed = true
	if p.err != nil {
		return p.err
	}
	if p.bomMatched >= 0 {
		if err := p.replayBOMPrefix(); err != nil {
			return err
		}
	}
	if p.quotePending {
		p.quotePending = false
		p.inQuotes = false
	}
	if len(p.field) > 0 || len(p.row) > 0 {
		p.endRow()
	}
	return nil
}

// Rows returns the rows completed since the previous call and releases them.
func (p *Parser) Rows() [][]string {
	rows := p.rows
	p.rows = nil
	return rows
}

// InQuotes reports whether the parser is inside an open quoted section.
func (p *Parser) InQuotes() bool {
	return p.inQuotes || p.quotePending
}

// replayBOMPrefix feeds back bytes that looked like a BOM but were not one.
func (p *Parser) replayBOMPrefix() error {
	matched := p.bomMatched
	p.bomMatched = -1
	for _, c := range utf8BOM[:matched] {
		if err := p.step(c); err != nil {
			p.err = err
			return err
		}
	}
	return nil
}

func (p *Parser) step(c byte) error {
	if p.skipLF {
		p.skipLF = false
		if c == '\n' {
			return nil
		}
	}

	if p.quotePending {
		p.quotePending = false
		switch c {
		case '"':
			return p.appendByte('"')
		case ',', '\n', '\r':
			p.inQuotes = false
		}
	}

	if p.inQuotes {
		if c == '"' {
			p.quotePending = true
			return nil
		}
		return p.appendByte(c)
	}

	switch c {
	case '"':
		p.inQuotes = true
	case ',':
		p.endField()
	case '\n':
		p.endRow()
	case '\r':
		p.endRow()
		p.skipLF = true
	default:
		return p.appendByte(c)
	}
	return nil
}

func (p *Parser) appendByte(c byte) error {
	if p.maxRow > 0 && p.rowBytes >= p.maxRow {
		return fmt.Errorf("%w: exceeds %d bytes without a row boundary", ErrRowTooLarge, p.maxRow)
	}
	p.field = append(p.field, c)
	p.rowBytes++
	return nil
}

func (p *Parser) endField() {
	p.row = append(p.row, string(p.field))
	p.field = p.field[:0]
}

func (p *Parser) endRow() {
	p.endField()
	// A row whose only field is empty carries no data, whether the line was
	// blank or held just "".
	if !(len(p.row) == 1 && p.row[0] == "") {
		p.rows = append(p.rows, p.row)
	}
	p.row = nil
	p.rowBytes = 0
}
