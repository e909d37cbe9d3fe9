package reader

import (
	"fmt"
	"strconv"

	"cinder/pkg/lexer"
)

// Reader is a recursive-descent parser over a lexer.Lexer's token stream,
// with a single token of lookahead.
type Reader struct {
	lex     *lexer.Lexer
	current lexer.Token
}

// New returns a Reader over src.
func New(src string) *Reader {
	r := &Reader{lex: lexer.New(src)}
	r.current = r.lex.Next()
	return r
}

func (r *Reader) advance() {
	r.current = r.lex.Next()
}

// ReadAll parses every top-level form in the source.
func ReadAll(src string) ([]Datum, error) {
	r := New(src)
	var forms []Datum
	for r.current.Type != lexer.TokenEOF {
		d, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		forms = append(forms, d)
	}
	return forms, nil
}

// ReadOne parses a single datum and advances past it.
func (r *Reader) ReadOne() (Datum, error) {
	tok := r.current
	switch tok.Type {
	case lexer.TokenEOF:
		return Datum{}, fmt.Errorf("unexpected end of input")

	case lexer.TokenLParen:
		r.advance()
		return r.readList(tok.Line, tok.Column)

	case lexer.TokenRParen:
		return Datum{}, fmt.Errorf("unexpected ')' at %d:%d", tok.Line, tok.Column)

	case lexer.TokenQuote:
		r.advance()
		inner, err := r.ReadOne()
		if err != nil {
			return Datum{}, err
		}
		return List(Symbol("quote"), inner), nil

	case lexer.TokenInteger:
		r.advance()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return Datum{}, fmt.Errorf("malformed integer %q at %d:%d", tok.Literal, tok.Line, tok.Column)
		}
		return Int(n), nil

	case lexer.TokenFloat:
		r.advance()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return Datum{}, fmt.Errorf("malformed float %q at %d:%d", tok.Literal, tok.Line, tok.Column)
		}
		return Float(f), nil

	case lexer.TokenString:
		r.advance()
		return String(tok.Literal), nil

	case lexer.TokenTrue:
		r.advance()
		return Bool(true), nil

	case lexer.TokenFalse:
		r.advance()
		return Bool(false), nil

	case lexer.TokenNil:
		r.advance()
		return Nil(), nil

	case lexer.TokenSymbol:
		r.advance()
		return Symbol(tok.Literal), nil

	default:
		return Datum{}, fmt.Errorf("unexpected token %s at %d:%d", tok.Type, tok.Line, tok.Column)
	}
}

func (r *Reader) readList(line, col int) (Datum, error) {
	var items []Datum
	for {
		if r.current.Type == lexer.TokenEOF {
			return Datum{}, fmt.Errorf("unterminated list starting at %d:%d", line, col)
		}
		if r.current.Type == lexer.TokenRParen {
			r.advance()
			return List(items...), nil
		}
		item, err := r.ReadOne()
		if err != nil {
			return Datum{}, err
		}
		items = append(items, item)
	}
}
