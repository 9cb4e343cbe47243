package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints a Node tree for the `toycc parse` subcommand's
// debug dump, following the teacher's lang/ast/printer.go structure
// (indent-by-depth via the Visitor/Walk pair) but describing nodes by
// Kind/Tok instead of calling a per-type Format method.
type Printer struct {
	Output io.Writer
}

func (p *Printer) Print(n *Node) error {
	pp := &printer{w: p.Output}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (p *printer) Visit(n *Node, dir VisitDirection) Visitor {
	if dir == VisitExit {
		p.depth--
		return nil
	}
	if p.err != nil {
		return nil
	}

	indent := strings.Repeat(". ", p.depth)
	p.depth++

	desc := n.Kind.String()
	switch n.Kind {
	case Var:
		if n.Obj != nil {
			desc += " " + n.Obj.Name
		}
	case Num:
		desc += fmt.Sprintf(" %d", n.Val)
	case FuncCall:
		desc += " " + n.FuncName
	case Label, Goto:
		desc += " " + n.Label
	case Member:
		if n.Mem != nil && n.Mem.Name != nil {
			desc += " " + n.Mem.Name.Text()
		}
	}

	_, p.err = fmt.Fprintf(p.w, "%s%s\n", indent, desc)
	return p
}
