package condition

import (
	"bytes"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken int = iota
	parenthesesToken
	andToken
	orToken
	commaToken
	atomToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var parenthesesMatcher = parsly.NewToken(parenthesesToken, "Parentheses", matcher.NewBlock('(', ')', '\\'))

var andMatcher = parsly.NewToken(andToken, "And", newKeyword("and"))
var orMatcher = parsly.NewToken(orToken, "Or", newKeyword("or"))
var commaMatcher = parsly.NewToken(commaToken, "Comma", matcher.NewByte(','))

var atomMatcher = parsly.NewToken(atomToken, "Comparison", &atom{})

var keywords = [][]byte{[]byte("and"), []byte("or")}

// keyword matches a case-insensitive word that is followed by whitespace, '(' or the end of input.
type keyword struct {
	word []byte
}

func (k *keyword) Match(cursor *parsly.Cursor) (matched int) {
	if hasKeyword(cursor.Input[cursor.Pos:cursor.InputSize], k.word) {
		return len(k.word)
	}
	return 0
}

func newKeyword(word string) *keyword {
	return &keyword{word: []byte(word)}
}

// atom matches a comparison up to a parenthesis, a comma, or a whitespace
// delimited and/or keyword. Trailing whitespace is part of the match.
type atom struct{}

func (a *atom) Match(cursor *parsly.Cursor) (matched int) {
	input := cursor.Input
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		switch c := input[i]; {
		case c == '(' || c == ')' || c == ',':
			return matched
		case isSpace(c):
			j := i
			for j < cursor.InputSize && isSpace(input[j]) {
				j++
			}
			if startsWithKeyword(input[j:cursor.InputSize]) {
				return matched
			}
		}
		matched++
	}
	return matched
}

func startsWithKeyword(input []byte) bool {
	for _, word := range keywords {
		if hasKeyword(input, word) {
			return true
		}
	}
	return false
}

func hasKeyword(input []byte, word []byte) bool {
	if len(input) < len(word) || !bytes.EqualFold(input[:len(word)], word) {
		return false
	}
	if len(input) == len(word) {
		return true
	}
	next := input[len(word)]
	return isSpace(next) || next == '('
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
