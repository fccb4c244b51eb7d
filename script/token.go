package script

import (
	"github.com/steplens/steplens"
)

// Token categories of the teaching language. The scanner produces tokens
// carrying these as their TokType.
const (
	EOF steplens.TokType = -(iota + 1)
	Ident
	Int
	Float
	String
	Keyword
	Op
	Comment
)

// Keywords of the teaching language. Keywords scan as category Keyword,
// with the keyword itself as the lexeme.
var keywords = []string{
	"if", "elif", "else", "while", "for", "in", "def", "class",
	"return", "break", "continue", "pass", "and", "or", "not",
	"True", "False", "None",
}

// Operators and delimiters, longest first so that the DFA prefers
// two-character operators over their one-character prefixes.
var operators = []string{
	"==", "!=", "<=", ">=", "//", "+=", "-=", "*=", "/=",
	"+", "-", "*", "/", "%", "<", ">", "=",
	"(", ")", "[", "]", "{", "}", ",", ":", ".",
}

func tokType2String(t steplens.TokType) string {
	switch t {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Keyword:
		return "Keyword"
	case Op:
		return "Op"
	case Comment:
		return "Comment"
	}
	return "<illegal>"
}

var _ steplens.TokTypeStringer = tokType2String
