// Package scanner tokenizes C source into a linked list of *token.Token,
// grounded on original_source/tokenize.c: whitespace and comments are
// dropped as they're seen, and what survives is threaded through Token.Next
// for lang/pp and lang/parser to consume and splice further. The
// byte-at-a-time mechanics (peek/advance/error) follow the teacher's
// lang/scanner/scanner.go shape; the token grammar itself (punctuators,
// numeric-literal typing, escapes) follows tokenize.c line for line, since
// this is a different language from the teacher's.
package scanner

import (
	"strconv"
	"strings"

	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// Scanner tokenizes one source.File into a Token stream.
type Scanner struct {
	file *source.File
	src  []byte
	errs *diag.List

	off   int // byte offset of cur
	roff  int // offset just past cur
	cur   byte
	atBOL bool
}

// Tokenize scans file and returns the head of its token list (an IDENT/
// KEYWORD/NUM/STRING/PUNCT stream terminated by an EOF token), collecting
// any lexical errors into errs rather than stopping at the first one, so
// that a single invocation can report several mistakes (original_source's
// tokenize() instead calls error_at and exits immediately; diag.List lets
// the CLI choose whether to keep going).
func Tokenize(file *source.File, errs *diag.List) *token.Token {
	s := &Scanner{file: file, src: file.Contents(), errs: errs, atBOL: true}
	s.cur = s.byteAt(0)

	head := &token.Token{}
	cur := head

	for s.off < len(s.src) && s.cur != 0 {
		switch {
		case s.startsWith("//"):
			for s.cur != '\n' && s.cur != 0 {
				s.advance()
			}
			continue

		case s.startsWith("/*"):
			end := strings.Index(string(s.src[s.off+2:]), "*/")
			if end < 0 {
				s.errorAt(s.off, "unclosed block comment")
				s.off = len(s.src)
				s.cur = 0
				continue
			}
			s.seek(s.off + 2 + end + 2)
			continue

		case s.cur == '\n':
			s.advance()
			s.atBOL = true
			continue

		case isSpace(s.cur):
			s.advance()
			continue

		case isDigit(s.cur) || (s.cur == '.' && isDigit(s.byteAt(1))):
			t := s.readNumber()
			cur.Next = t
			cur = t
			s.seek(t.Offset + t.Len)
			continue

		case s.cur == '"':
			t := s.readStringLiteral()
			cur.Next = t
			cur = t
			s.seek(t.Offset + t.Len)
			continue

		case s.cur == '\'':
			t := s.readCharLiteral()
			cur.Next = t
			cur = t
			s.seek(t.Offset + t.Len)
			continue

		case isIdentStart(s.cur):
			start := s.off
			for isIdentCont(s.cur) {
				s.advance()
			}
			cur.Next = s.newToken(token.IDENT, start, s.off)
			cur = cur.Next
			continue

		default:
			if n := readPunct(s.src[s.off:]); n > 0 {
				cur.Next = s.newToken(token.PUNCT, s.off, s.off+n)
				cur = cur.Next
				s.seek(s.off + n)
				continue
			}
			s.errorAt(s.off, "invalid token")
			s.advance()
		}
	}

	cur.Next = s.newToken(token.EOF, s.off, s.off)
	s.addLineNumbers(head.Next)
	return head.Next
}

func (s *Scanner) byteAt(delta int) byte {
	i := s.off + delta
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *Scanner) startsWith(prefix string) bool {
	return strings.HasPrefix(string(s.src[s.off:]), prefix)
}

func (s *Scanner) advance() {
	s.off++
	s.cur = s.byteAt(0)
}

func (s *Scanner) seek(off int) {
	s.off = off
	s.cur = s.byteAt(0)
}

func (s *Scanner) errorAt(off int, format string, args ...any) {
	s.errs.Add(s.file, off, format, args...)
}

func (s *Scanner) newToken(kind token.Kind, start, end int) *token.Token {
	t := &token.Token{
		Kind:   kind,
		File:   s.file,
		Offset: start,
		Len:    end - start,
		AtBOL:  s.atBOL,
	}
	s.atBOL = false
	return t
}

func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHex(c byte) bool    { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isOctal(c byte) bool  { return c >= '0' && c <= '7' }
func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

// readPunct finds the longest punctuator in token.Punctuators that p starts
// with, mirroring tokenize.c's read_punct.
func readPunct(p []byte) int {
	for _, kw := range token.Punctuators {
		if len(p) >= len(kw) && string(p[:len(kw)]) == kw {
			return len(kw)
		}
	}
	if len(p) > 0 && isPunctByte(p[0]) {
		return 1
	}
	return 0
}

func isPunctByte(c byte) bool {
	switch {
	case c >= '!' && c <= '/', c >= ':' && c <= '@', c >= '[' && c <= '`', c >= '{' && c <= '~':
		return true
	}
	return false
}

// addLineNumbers walks the file's contents and the token list in lockstep,
// mirroring tokenize.c's add_line_number and registering each newline with
// the source.File so diagnostics and #line bookkeeping can report columns.
func (s *Scanner) addLineNumbers(head *token.Token) {
	t := head
	line := 1
	for i := 0; i <= len(s.src); i++ {
		for t != nil && t.Offset == i {
			t.Line = line
			t = t.Next
		}
		if i < len(s.src) && s.src[i] == '\n' {
			s.file.AddLine(i + 1)
			line++
		}
	}
}

func (s *Scanner) readNumber() *token.Token {
	start := s.off
	t := s.readIntLiteral(start)

	// If the byte right after the would-be integer literal is one of
	// ".eEfF", this was actually a floating-point constant (read_number).
	next := start + t.Len
	if next >= len(s.src) || strings.IndexByte(".eEfF", s.src[next]) < 0 {
		return t
	}
	return s.readFloatLiteral(start)
}

// readIntLiteral mirrors tokenize.c's read_int_literal: base detection,
// digit scan, then the U/L/LL suffix combinations and the resulting type
// selection table (spec §4.1).
func (s *Scanner) readIntLiteral(start int) *token.Token {
	p := start
	base := 10
	src := s.src

	switch {
	case hasPrefixFold(src[p:], "0x") && p+2 < len(src) && isHex(src[p+2]):
		p += 2
		base = 16
	case hasPrefixFold(src[p:], "0b") && p+2 < len(src) && (src[p+2] == '0' || src[p+2] == '1'):
		p += 2
		base = 2
	case p < len(src) && src[p] == '0':
		base = 8
	}

	digitsStart := p
	for p < len(src) && isBaseDigit(src[p], base) {
		p++
	}
	text := string(src[digitsStart:p])
	if text == "" {
		text = "0"
	}
	val, _ := strconv.ParseUint(text, base, 64)

	l, u := false, false
	switch {
	case matchesAnyFold(src[p:], "LLU", "ULL"):
		p += 3
		l, u = true, true
	case hasPrefixFold(src[p:], "lu"), hasPrefixFold(src[p:], "ul"):
		p += 2
		l, u = true, true
	case hasPrefixFold(src[p:], "ll"):
		p += 2
		l = true
	case p < len(src) && (src[p] == 'L' || src[p] == 'l'):
		p++
		l = true
	case p < len(src) && (src[p] == 'U' || src[p] == 'u'):
		p++
		u = true
	}

	ty := intLiteralType(base, l, u, val)

	t := s.newToken(token.NUM, start, p)
	t.NumKind = token.NumInt
	t.IntVal = val
	t.NumType = ty
	return t
}

// intLiteralType implements read_int_literal's base==10 vs other-base type
// selection table exactly (spec §4.1).
func intLiteralType(base int, l, u bool, val uint64) *types.Type {
	if base == 10 {
		switch {
		case l && u:
			return types.ULong
		case l:
			return types.Long
		case u:
			if val>>32 != 0 {
				return types.ULong
			}
			return types.UInt
		default:
			if val>>31 != 0 {
				return types.Long
			}
			return types.Int
		}
	}
	switch {
	case l && u:
		return types.ULong
	case l:
		if val>>63 != 0 {
			return types.ULong
		}
		return types.Long
	case u:
		if val>>32 != 0 {
			return types.ULong
		}
		return types.UInt
	case val>>63 != 0:
		return types.ULong
	case val>>32 != 0:
		return types.Long
	case val>>31 != 0:
		return types.UInt
	default:
		return types.Int
	}
}

func (s *Scanner) readFloatLiteral(start int) *token.Token {
	p := start
	src := s.src
	for p < len(src) && (isDigit(src[p]) || src[p] == '.') {
		p++
	}
	if p < len(src) && (src[p] == 'e' || src[p] == 'E') {
		p++
		if p < len(src) && (src[p] == '+' || src[p] == '-') {
			p++
		}
		for p < len(src) && isDigit(src[p]) {
			p++
		}
	}
	val, _ := strconv.ParseFloat(string(src[start:p]), 64)

	ty := types.Double
	switch {
	case p < len(src) && (src[p] == 'f' || src[p] == 'F'):
		ty = types.Float
		p++
	case p < len(src) && (src[p] == 'l' || src[p] == 'L'):
		ty = types.Double
		p++
	}

	t := s.newToken(token.NUM, start, p)
	t.NumKind = token.NumFloat
	t.FloatVal = val
	t.NumType = ty
	return t
}

func hasPrefixFold(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return strings.EqualFold(string(b[:len(prefix)]), prefix)
}

func matchesAnyFold(b []byte, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(b) >= len(p) && strings.EqualFold(string(b[:len(p)]), p) {
			return true
		}
	}
	return false
}

func isBaseDigit(c byte, base int) bool {
	switch base {
	case 16:
		return isHex(c)
	case 2:
		return c == '0' || c == '1'
	case 8:
		return isOctal(c)
	default:
		return isDigit(c)
	}
}

// readStringLiteral mirrors read_string_literal/string_literal_end: scan to
// the closing quote (erroring on newline/EOF first), decoding escapes along
// the way, and attach an array-of-char type sized len+1 for the NUL.
func (s *Scanner) readStringLiteral() *token.Token {
	start := s.off
	p := start + 1
	for p < len(s.src) && s.src[p] != '"' {
		if s.src[p] == '\n' || s.src[p] == 0 {
			s.errorAt(start, "unclosed string literal")
			break
		}
		if s.src[p] == '\\' {
			p += 2
		} else {
			p++
		}
	}
	end := p
	if end < len(s.src) {
		end++ // past closing quote
	}

	var buf []byte
	p = start + 1
	for p < end-1 {
		if s.src[p] == '\\' {
			c, np := readEscapedChar(s.src, p+1)
			buf = append(buf, c)
			p = np
		} else {
			buf = append(buf, s.src[p])
			p++
		}
	}
	buf = append(buf, 0)

	t := s.newToken(token.STRING, start, end)
	t.StrVal = buf
	t.NumType = types.ArrayOf(types.Char, len(buf))
	return t
}

func (s *Scanner) readCharLiteral() *token.Token {
	start := s.off
	p := start + 1
	if p >= len(s.src) {
		s.errorAt(start, "unclosed char literal")
		return s.newToken(token.NUM, start, start+1)
	}

	var c byte
	if s.src[p] == '\\' {
		var np int
		c, np = readEscapedChar(s.src, p+1)
		p = np
	} else {
		c = s.src[p]
		p++
	}

	end := p
	for end < len(s.src) && s.src[end] != '\'' {
		end++
	}
	if end >= len(s.src) {
		s.errorAt(p, "unclosed char literal")
	} else {
		end++ // past closing quote
	}

	t := s.newToken(token.NUM, start, end)
	t.NumKind = token.NumInt
	t.IntVal = uint64(int64(int8(c)))
	t.NumType = types.Int
	return t
}

// readEscapedChar mirrors read_escaped_char's octal/hex/named-escape table,
// including the GNU \e extension, and returns the decoded byte plus the
// offset just past it.
func readEscapedChar(src []byte, p int) (byte, int) {
	if p < len(src) && isOctal(src[p]) {
		c := 0
		i := 0
		for p < len(src) && isOctal(src[p]) && i < 3 {
			c = c<<3 + int(src[p]-'0')
			p++
			i++
		}
		return byte(c), p
	}

	if p < len(src) && src[p] == 'x' {
		p++
		c := 0
		for p < len(src) && isHex(src[p]) {
			c = c<<4 + hexVal(src[p])
			p++
		}
		return byte(c), p
	}

	if p >= len(src) {
		return 0, p
	}
	ch := src[p]
	p++
	switch ch {
	case 'a':
		return 7, p
	case 'b':
		return 8, p
	case 't':
		return 9, p
	case 'n':
		return 10, p
	case 'v':
		return 11, p
	case 'f':
		return 12, p
	case 'r':
		return 13, p
	case 'e':
		return 27, p
	default:
		return ch, p
	}
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
