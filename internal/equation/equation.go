// Package equation evaluates the calculation templates stored on scoring
// models and categories. A template is an arithmetic expression over named
// placeholders such as {sum} or {count}, optionally wrapped in the clamp
// syntax "MAX > expression > MIN". Templates are parsed into a typed AST and
// evaluated against a binding set; the evaluator does not care which
// placeholder vocabulary a caller supplies.
//
// A broken rubric must never block scoring, so every fault (malformed
// template, unknown placeholder, divide by zero) resolves to 0 and is logged
// for operators instead of being returned.
package equation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/observability"
)

// Evaluator parses and evaluates calculation templates.
type Evaluator struct {
	logger zerolog.Logger
}

// New constructs an Evaluator that reports faults to the given logger.
func New(logger zerolog.Logger) *Evaluator {
	return &Evaluator{logger: logger.With().Str("component", "equation").Logger()}
}

// Evaluate resolves the template against the bindings and returns the
// clamped result. Faults resolve to 0.
func (e *Evaluator) Evaluate(template string, bindings map[string]float64) float64 {
	result, err := evaluate(template, bindings)
	if err != nil {
		e.logger.Warn().Err(err).Str("template", template).Msg("equation fault resolved to zero")
		observability.EquationFaults().Inc()
		return 0
	}
	return result
}

func evaluate(template string, bindings map[string]float64) (float64, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return 0, fmt.Errorf("empty template")
	}

	expr := template
	upper := math.Inf(1)
	lower := math.Inf(-1)

	if strings.Contains(template, ">") {
		segments := strings.SplitN(template, ">", 3)
		parsed, err := strconv.ParseFloat(strings.TrimSpace(segments[0]), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid upper clamp %q: %w", segments[0], err)
		}
		upper = parsed
		expr = segments[1]
		if len(segments) == 3 {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(segments[2]), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid lower clamp %q: %w", segments[2], err)
			}
			lower = parsed
		}
	}

	root, err := parse(expr)
	if err != nil {
		return 0, err
	}

	value, err := root.eval(bindings)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("expression %q produced a non-finite value", expr)
	}

	return math.Min(upper, math.Max(lower, value)), nil
}

type node interface {
	eval(bindings map[string]float64) (float64, error)
}

type numberNode float64

func (n numberNode) eval(map[string]float64) (float64, error) {
	return float64(n), nil
}

type bindingNode string

func (n bindingNode) eval(bindings map[string]float64) (float64, error) {
	value, ok := bindings[string(n)]
	if !ok {
		return 0, fmt.Errorf("unknown placeholder {%s}", string(n))
	}
	return value, nil
}

type negateNode struct {
	operand node
}

func (n negateNode) eval(bindings map[string]float64) (float64, error) {
	value, err := n.operand.eval(bindings)
	if err != nil {
		return 0, err
	}
	return -value, nil
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(bindings map[string]float64) (float64, error) {
	left, err := n.left.eval(bindings)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(bindings)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", string(n.op))
	}
}

type parser struct {
	input string
	pos   int
}

func parse(input string) (node, error) {
	p := &parser{input: input}
	root, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected %q at offset %d", string(p.input[p.pos]), p.pos)
	}
	return root, nil
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return left, nil
		}
		op := p.input[p.pos]
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++

		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseProduct() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return left, nil
		}
		op := p.input[p.pos]
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	p.skipSpaces()
	if p.pos < len(p.input) && p.input[p.pos] == '-' {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negateNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch c := p.input[p.pos]; {
	case c == '(':
		p.pos++
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil

	case c == '{':
		end := strings.IndexByte(p.input[p.pos:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated placeholder at offset %d", p.pos)
		}
		name := p.input[p.pos+1 : p.pos+end]
		if name == "" {
			return nil, fmt.Errorf("empty placeholder at offset %d", p.pos)
		}
		p.pos += end + 1
		return bindingNode(name), nil

	case c == '.' || unicode.IsDigit(rune(c)):
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] == '.' || unicode.IsDigit(rune(p.input[p.pos]))) {
			p.pos++
		}
		value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p.input[start:p.pos], err)
		}
		return numberNode(value), nil

	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", string(c), p.pos)
	}
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}
