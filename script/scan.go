package script

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// tracer traces with key 'steplens.script'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.script")
}

// Internal token ids for the lexmachine DFA. They are mapped onto the
// exported token categories after scanning.
const (
	lmIdent = iota
	lmInt
	lmFloat
	lmString
	lmKeyword
	lmOp
	lmComment
)

var lmCategory = map[int]steplens.TokType{
	lmIdent:   Ident,
	lmInt:     Int,
	lmFloat:   Float,
	lmString:  String,
	lmKeyword: Keyword,
	lmOp:      Op,
	lmComment: Comment,
}

var (
	lexerOnce sync.Once
	lexer     *lexmachine.Lexer
	lexerErr  error
)

// sharedLexer compiles the DFA for the teaching language exactly once.
func sharedLexer() (*lexmachine.Lexer, error) {
	lexerOnce.Do(func() {
		lexer = lexmachine.NewLexer()
		lexer.Add([]byte(`( |\t)+`), skip)
		lexer.Add([]byte(`#[^\n]*`), makeToken(lmComment))
		for _, kw := range keywords {
			lexer.Add([]byte(kw), makeToken(lmKeyword))
		}
		lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), makeToken(lmIdent))
		lexer.Add([]byte(`[0-9]+\.[0-9]+`), makeToken(lmFloat))
		lexer.Add([]byte(`[0-9]+`), makeToken(lmInt))
		lexer.Add([]byte(`"([^"\\]|\\.)*"`), makeToken(lmString))
		lexer.Add([]byte(`'([^'\\]|\\.)*'`), makeToken(lmString))
		for _, op := range operators {
			r := "\\" + strings.Join(strings.Split(op, ""), "\\")
			lexer.Add([]byte(r), makeToken(lmOp))
		}
		if err := lexer.Compile(); err != nil {
			tracer().Errorf("error compiling DFA: %v", err)
			lexerErr = err
		}
	})
	return lexer, lexerErr
}

// skip is a pre-defined action which ignores the scanned match.
func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// makeToken is a pre-defined action which wraps a scanned match into a token.
func makeToken(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// --- Tokens -----------------------------------------------------------

// LToken is the token type produced by the script scanner.
type LToken struct {
	kind   steplens.TokType
	lexeme string
	val    interface{}
	span   steplens.Span
}

var _ steplens.Token = LToken{}

// TokType is part of the Token interface.
func (t LToken) TokType() steplens.TokType { return t.kind }

// Lexeme is part of the Token interface.
func (t LToken) Lexeme() string { return t.lexeme }

// Value is part of the Token interface. Literal tokens carry their converted
// value (int64, float64 or unquoted string), all others carry nil.
func (t LToken) Value() interface{} { return t.val }

// Span is part of the Token interface. Positions are byte offsets into the
// scanned line.
func (t LToken) Span() steplens.Span { return t.span }

func (t LToken) String() string {
	return fmt.Sprintf("[%s %q %v]", tokType2String(t.kind), t.lexeme, t.span)
}

// --- Line scanning ----------------------------------------------------

// ScanLine tokenizes one line of teaching-language source. Leading
// whitespace is skipped (indentation is measured separately by the parser);
// a trailing comment is returned as a Comment token. Unrecognized input
// yields an error naming the byte position.
func ScanLine(input string) ([]steplens.Token, error) {
	lx, err := sharedLexer()
	if err != nil {
		return nil, err
	}
	s, err := lx.Scanner([]byte(input))
	if err != nil {
		return nil, err
	}
	var toks []steplens.Token
	for {
		tok, err, eof := s.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, is := err.(*machines.UnconsumedInput); is {
				return nil, fmt.Errorf("unexpected input at position %d: %q",
					ui.StartTC, input[ui.StartTC:ui.FailTC])
			}
			return nil, err
		}
		if tok == nil { // skipped whitespace
			continue
		}
		lt, err := convertToken(tok.(*lexmachine.Token))
		if err != nil {
			return nil, err
		}
		toks = append(toks, lt)
	}
	return toks, nil
}

func convertToken(token *lexmachine.Token) (LToken, error) {
	lexeme := string(token.Lexeme)
	t := LToken{
		kind:   lmCategory[token.Type],
		lexeme: lexeme,
		span:   steplens.Span{uint64(token.TC), uint64(token.TC + len(token.Lexeme))},
	}
	var err error
	switch token.Type {
	case lmInt:
		t.val, err = strconv.ParseInt(lexeme, 10, 64)
	case lmFloat:
		t.val, err = strconv.ParseFloat(lexeme, 64)
	case lmString:
		t.val = unquote(lexeme)
	}
	if err != nil {
		return t, fmt.Errorf("malformed literal %q: %w", lexeme, err)
	}
	return t, nil
}

// unquote strips the surrounding quotes of a string literal and resolves the
// usual escapes.
func unquote(lexeme string) string {
	body := lexeme[1 : len(lexeme)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	escaped := false
	for _, r := range body {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		escaped = false
		switch r {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		default: // covers \\ \' \"
			b.WriteRune(r)
		}
	}
	return b.String()
}
