// Package idl compiles Avro IDL sources into protocol documents.
package idl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.trai.ch/zerr"
)

// TokenType represents the type of token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenString
	TokenNumber
	TokenPunctuation
)

func (t TokenType) String() string {
	switch t {
	case TokenIdentifier:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenPunctuation:
		return "punctuation"
	default:
		return "end of file"
	}
}

// Position is a location in the source.
type Position struct {
	Line   int
	Column int
}

// Token represents a lexical token.
type Token struct {
	Type TokenType
	Text string
	Pos  Position
	// Doc is the last documentation comment that preceded the token.
	Doc string
	// Quoted is set for identifiers written between backticks.
	Quoted bool
}

// Scanner is a lexical scanner for Avro IDL. It works on the whole source in
// memory so the parser can take raw JSON values directly from the input.
type Scanner struct {
	src    []byte
	offset int
	line   int
	column int
}

// NewScanner creates a new Scanner.
func NewScanner(src []byte) *Scanner {
	return &Scanner{src: src, line: 1, column: 1}
}

func (s *Scanner) peekRune() (rune, int) {
	if s.offset >= len(s.src) {
		return -1, 0
	}
	return utf8.DecodeRune(s.src[s.offset:])
}

func (s *Scanner) advance() rune {
	r, size := s.peekRune()
	if size == 0 {
		return -1
	}
	s.offset += size
	if r == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return r
}

func (s *Scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(string(s.src[s.offset:min(len(s.src), s.offset+len(prefix))]), prefix)
}

func (s *Scanner) pos() Position {
	return Position{Line: s.line, Column: s.column}
}

func (s *Scanner) errorf(pos Position, msg string) error {
	err := zerr.With(zerr.New(msg), "line", pos.Line)
	return zerr.With(err, "column", pos.Column)
}

// skipTrivia skips whitespace and comments and returns the last doc comment seen.
func (s *Scanner) skipTrivia() (string, error) {
	var doc string
	for {
		r, _ := s.peekRune()
		switch {
		case r == -1:
			return doc, nil
		case unicode.IsSpace(r):
			s.advance()
		case s.hasPrefix("//"):
			for r, _ := s.peekRune(); r != '\n' && r != -1; r, _ = s.peekRune() {
				s.advance()
			}
		case s.hasPrefix("/*"):
			start := s.pos()
			isDoc := s.hasPrefix("/**") && !s.hasPrefix("/**/")
			s.advance()
			s.advance()
			begin := s.offset
			for !s.hasPrefix("*/") {
				if s.advance() == -1 {
					return "", s.errorf(start, "unterminated comment")
				}
			}
			body := string(s.src[begin:s.offset])
			s.advance()
			s.advance()
			if isDoc {
				doc = cleanDoc(body)
			}
		default:
			return doc, nil
		}
	}
}

// Next returns the next token.
func (s *Scanner) Next() (Token, error) {
	doc, err := s.skipTrivia()
	if err != nil {
		return Token{}, err
	}

	pos := s.pos()
	r, _ := s.peekRune()
	switch {
	case r == -1:
		return Token{Type: TokenEOF, Pos: pos, Doc: doc}, nil
	case r == '`':
		s.advance()
		text := s.scanWhile(isIdentPart)
		if r, _ := s.peekRune(); r != '`' || text == "" {
			return Token{}, s.errorf(pos, "malformed quoted identifier")
		}
		s.advance()
		return Token{Type: TokenIdentifier, Text: text, Pos: pos, Doc: doc, Quoted: true}, nil
	case isIdentStart(r):
		return Token{Type: TokenIdentifier, Text: s.scanWhile(isIdentPart), Pos: pos, Doc: doc}, nil
	case unicode.IsDigit(r) || r == '-':
		s.advance()
		text := string(r) + s.scanWhile(unicode.IsDigit)
		if text == "-" {
			return Token{}, s.errorf(pos, "unexpected '-'")
		}
		return Token{Type: TokenNumber, Text: text, Pos: pos, Doc: doc}, nil
	case r == '"':
		text, err := s.scanString()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenString, Text: text, Pos: pos, Doc: doc}, nil
	case strings.ContainsRune("{}()<>[],;=@?:", r):
		s.advance()
		return Token{Type: TokenPunctuation, Text: string(r), Pos: pos, Doc: doc}, nil
	default:
		return Token{}, s.errorf(pos, "unexpected character "+string(r))
	}
}

func (s *Scanner) scanWhile(ok func(rune) bool) string {
	start := s.offset
	for r, _ := s.peekRune(); r != -1 && ok(r); r, _ = s.peekRune() {
		s.advance()
	}
	return string(s.src[start:s.offset])
}

func (s *Scanner) scanString() (string, error) {
	pos := s.pos()
	start := s.offset
	s.advance()
	for {
		switch s.advance() {
		case -1, '\n':
			return "", s.errorf(pos, "unterminated string")
		case '\\':
			s.advance()
		case '"':
			return unquote(string(s.src[start:s.offset]))
		}
	}
}

// RawJSON reads a JSON value starting at the current offset and ending before
// the first stop character found outside brackets and strings.
func (s *Scanner) RawJSON(stops string) (string, error) {
	if _, err := s.skipTrivia(); err != nil {
		return "", err
	}
	pos := s.pos()
	start := s.offset
	depth := 0
	for {
		r, _ := s.peekRune()
		switch {
		case r == -1:
			return "", s.errorf(pos, "unterminated value")
		case r == '"':
			if _, err := s.scanString(); err != nil {
				return "", err
			}
			continue
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			if depth == 0 && strings.ContainsRune(stops, r) {
				return strings.TrimSpace(string(s.src[start:s.offset])), nil
			}
			depth--
		case depth == 0 && strings.ContainsRune(stops, r):
			return strings.TrimSpace(string(s.src[start:s.offset])), nil
		}
		s.advance()
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-'
}

// cleanDoc strips the comment decoration from the body of a /** */ comment.
func cleanDoc(body string) string {
	body = strings.TrimPrefix(body, "*")
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
