package solver

import (
	"errors"
	"fmt"
	"go/constant"
	"go/scanner"
	"go/token"
	"go/types"
	"regexp"
	"strconv"
	"strings"
)

// ErrExpression is returned for expressions that cannot be evaluated.
var ErrExpression = errors.New("solver: invalid expression")

var percent = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

var allowed = map[token.Token]bool{
	token.ADD:    true,
	token.SUB:    true,
	token.MUL:    true,
	token.QUO:    true,
	token.LPAREN: true,
	token.RPAREN: true,
}

// Evaluate computes an arithmetic expression with exact rational arithmetic.
// "x%" means x/100; thousands separators are ignored.
func Evaluate(expression string) (string, error) {
	expr, err := normalize(expression)
	if err != nil {
		return "", err
	}
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrExpression, strings.TrimSpace(expression), err)
	}
	if tv.Value == nil {
		return "", fmt.Errorf("%w: %q is not constant", ErrExpression, strings.TrimSpace(expression))
	}
	return format(tv.Value), nil
}

// normalize rewrites percentages and promotes integer literals to floats so
// that division is never truncated.
func normalize(expression string) (string, error) {
	src := strings.TrimSpace(expression)
	src = strings.ReplaceAll(src, ",", "")
	src = percent.ReplaceAllString(src, "($1/100)")
	if src == "" {
		return "", fmt.Errorf("%w: empty", ErrExpression)
	}
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var failed error
	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if failed == nil {
			failed = fmt.Errorf("%w: %s", ErrExpression, msg)
		}
	}, 0)
	var out []string
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		switch {
		case tok == token.SEMICOLON:
		case tok == token.INT:
			out = append(out, lit+".0")
		case tok == token.FLOAT:
			out = append(out, lit)
		case allowed[tok]:
			out = append(out, tok.String())
		default:
			text := lit
			if text == "" {
				text = tok.String()
			}
			return "", fmt.Errorf("%w: unsupported token %q", ErrExpression, text)
		}
	}
	if failed != nil {
		return "", failed
	}
	return strings.Join(out, " "), nil
}

func format(value constant.Value) string {
	if i := constant.ToInt(value); i.Kind() == constant.Int {
		return i.ExactString()
	}
	f, _ := constant.Float64Val(value)
	return strconv.FormatFloat(f, 'f', -1, 64)
}
