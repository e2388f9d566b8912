package rrepr

import (
	"strings"
	"unicode/utf8"
)

// doc is a node of a literal's layout tree. Every node has a single-line
// rendering; groups may also be broken across lines.
type doc interface {
	flat() string
}

// text is an unbreakable token
type text string

func (t text) flat() string { return string(t) }

// seq concatenates nodes on one line. Only its last node may break.
type seq []doc

func (s seq) flat() string {
	var b strings.Builder
	for _, d := range s {
		b.WriteString(d.flat())
	}
	return b.String()
}

type commaStyle uint8

const (
	// trailing comma only when broken across lines
	commaBroken commaStyle = iota
	// single-element tuples always carry a trailing comma
	commaTuple
	// call arguments: a lone argument never gets a trailing comma
	commaArgs
)

// group is a bracketed, comma-separated list of items. Broken, it puts each
// item on its own line one indent deeper than the line that opened it.
type group struct {
	open, close string
	items       []doc
	comma       commaStyle
}

func (g *group) flat() string {
	var b strings.Builder
	b.WriteString(g.open)
	for i, it := range g.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.flat())
	}
	if g.comma == commaTuple && len(g.items) == 1 {
		b.WriteByte(',')
	}
	b.WriteString(g.close)
	return b.String()
}

func (g *group) trailingComma() bool {
	return !(g.comma == commaArgs && len(g.items) == 1)
}

func tuple(items ...doc) *group {
	return &group{open: "(", close: ")", items: items, comma: commaTuple}
}

func call(fn string, args ...doc) *group {
	return &group{open: fn + "(", close: ")", items: args, comma: commaArgs}
}

func list(items ...doc) *group {
	return &group{open: "[", close: "]", items: items}
}

func dict(items ...doc) *group {
	return &group{open: "{", close: "}", items: items}
}

func kwarg(key string, value doc) doc {
	return seq{text(key + "="), value}
}

// printer lays a doc out within a line width, breaking the outermost groups
// first, in the manner of black and ruff
type printer struct {
	b      strings.Builder
	width  int
	indent int
	col    int
}

func layout(d doc, width, indent int) string {
	p := &printer{width: width, indent: indent}
	p.print(d, 0, 0)
	return p.b.String()
}

func (p *printer) write(s string) {
	p.b.WriteString(s)
	p.col += utf8.RuneCountInString(s)
}

func (p *printer) newline(depth int) {
	p.b.WriteByte('\n')
	p.col = 0
	p.write(strings.Repeat(" ", depth*p.indent))
}

// print writes d at the current column. tail is the width of whatever must
// follow d on the same line, e.g. a trailing comma.
func (p *printer) print(d doc, depth, tail int) {
	flat := d.flat()
	if p.col+utf8.RuneCountInString(flat)+tail <= p.width {
		p.write(flat)
		return
	}

	switch d := d.(type) {
	case seq:
		if len(d) == 0 {
			return
		}
		for _, n := range d[:len(d)-1] {
			p.write(n.flat())
		}
		p.print(d[len(d)-1], depth, tail)
	case *group:
		if len(d.items) == 0 {
			p.write(flat)
			return
		}
		p.write(d.open)
		comma := d.trailingComma()
		for i, it := range d.items {
			p.newline(depth + 1)
			last := i == len(d.items)-1
			if last && !comma {
				p.print(it, depth+1, 0)
				continue
			}
			p.print(it, depth+1, 1)
			p.write(",")
		}
		p.newline(depth)
		p.write(d.close)
	default:
		p.write(flat)
	}
}
