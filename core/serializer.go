package core

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// SerializeOptions controls serializer output.
type SerializeOptions struct {
	Indent            bool            // pretty-print vs. single line
	IncludedLibraries map[string]bool // affects symbolic opcode rendering
	Comments          map[*TreeNode]string
	BlockComments     map[*TreeNode]string // attached between mod's param list and body
	LineWidth         int                  // single-line threshold; 0 -> default 80
}

func (o SerializeOptions) lineWidth() int {
	if o.LineWidth <= 0 {
		return 80
	}
	return o.LineWidth
}

// Serialize renders a TreeNode as ChiaLisp source text using default options.
func Serialize(n *TreeNode) (string, error) {
	return SerializeWithOptions(n, SerializeOptions{})
}

// SerializeWithOptions renders a TreeNode with explicit options.
func SerializeWithOptions(n *TreeNode, opts SerializeOptions) (string, error) {
	s := &serializer{opts: opts}
	out, err := s.render(n, 0)
	if err != nil {
		return "", err
	}
	return out, nil
}

type serializer struct {
	opts SerializeOptions
}

func (s *serializer) render(n *TreeNode, depth int) (string, error) {
	if n == nil {
		return "()", nil
	}
	switch n.Kind {
	case KindAtom:
		return s.renderAtom(n)
	case KindList:
		return s.renderSeq(n.Items, Nil(), depth)
	case KindCons:
		items, tail := n.AsList()
		return s.renderSeq(items, tail, depth)
	}
	return "", SerializeError("unknown node kind %d", n.Kind)
}

func (s *serializer) renderAtom(n *TreeNode) (string, error) {
	switch n.AKind {
	case AtomNil:
		return "()", nil
	case AtomInteger:
		if libHas(s.opts.IncludedLibraries, "condition_codes.clib") {
			if name, ok := conditionNameByOpcode(n.Int); ok {
				return name, nil
			}
		}
		if libHas(s.opts.IncludedLibraries, "opcodes.clib") {
			if name, ok := primitiveSymbolByOpcode(n.Int); ok {
				return strings.ToUpper(name), nil
			}
		}
		return n.Int.String(), nil
	case AtomBytes:
		return "0x" + hex.EncodeToString(n.Bytes), nil
	case AtomSymbol:
		if !libHas(s.opts.IncludedLibraries, "opcodes.clib") {
			if op, ok := primitiveOpcodeBySymbol(strings.ToUpper(n.Sym)); ok {
				_ = op
				return strings.ToLower(n.Sym), nil
			}
		}
		return renderSymbol(n.Sym), nil
	case AtomString:
		return quoteString(string(n.Bytes)), nil
	}
	return "", SerializeError("cannot render atom value")
}

func libHas(m map[string]bool, name string) bool {
	return m != nil && m[name]
}

func renderSymbol(name string) string {
	if symbolSafe(name) {
		return name
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range name {
		switch r {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func symbolSafe(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == '"' || c == ';' {
			return false
		}
	}
	if strings.HasPrefix(name, "0x") || strings.HasPrefix(name, "0X") {
		return false
	}
	if isIntegerLiteral(name) || isBigIntLiteral(name) {
		return false
	}
	return true
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (s *serializer) renderSeq(items []*TreeNode, tail *TreeNode, depth int) (string, error) {
	if !tail.IsNil() {
		a, err := s.render(items[0], depth)
		if err != nil {
			return "", err
		}
		rest := toConsChain(items[1:], tail)
		b, err := s.render(rest, depth)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s . %s)", a, b), nil
	}
	if len(items) == 0 {
		return "()", nil
	}
	if head, ok := headSymbol(items); ok {
		switch head {
		case "mod":
			return s.renderMod(items, depth)
		case "defun", "defun-inline":
			return s.renderDefun(head, items, depth)
		case "defmacro":
			return s.renderDefun(head, items, depth)
		case "i":
			return s.renderIf(items, depth)
		case "include":
			return s.renderFlat(items, depth)
		}
	}
	return s.renderGeneric(items, depth)
}

func headSymbol(items []*TreeNode) (string, bool) {
	if len(items) == 0 || items[0].Kind != KindAtom || items[0].AKind != AtomSymbol {
		return "", false
	}
	return items[0].Sym, true
}

func (s *serializer) renderGeneric(items []*TreeNode, depth int) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		p, err := s.render(it, depth+1)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	oneLine := "(" + strings.Join(parts, " ") + ")"
	if !s.opts.Indent || len(oneLine) <= s.opts.lineWidth() && !strings.Contains(oneLine, "\n") {
		return oneLine, nil
	}
	indent := strings.Repeat("  ", depth+1)
	return "(" + strings.Join(parts, "\n"+indent) + ")", nil
}

func (s *serializer) renderFlat(items []*TreeNode, depth int) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		p, err := s.render(it, depth)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "(" + strings.Join(parts, " ") + ")", nil
}

func (s *serializer) renderMod(items []*TreeNode, depth int) (string, error) {
	// (mod <params> <include>* <body>)
	if len(items) < 2 {
		return "", SerializeError("mod requires a parameter list and a body")
	}
	paramsStr, err := s.render(items[1], depth+1)
	if err != nil {
		return "", err
	}
	rest := items[2:]
	var out strings.Builder
	out.WriteString("(mod ")
	out.WriteString(paramsStr)
	if blk, ok := s.opts.BlockComments[items[0]]; ok && blk != "" {
		out.WriteString("\n  ; " + blk)
	}
	for _, r := range rest {
		rs, err := s.render(r, depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString("\n  " + rs)
		if c, ok := s.opts.Comments[r]; ok && c != "" {
			out.WriteString("  ; " + c)
		}
	}
	out.WriteString("\n)")
	return out.String(), nil
}

func (s *serializer) renderDefun(head string, items []*TreeNode, depth int) (string, error) {
	if len(items) < 3 {
		return "", SerializeError("%s requires a name, a parameter list, and a body", head)
	}
	name, err := s.render(items[1], depth)
	if err != nil {
		return "", err
	}
	params, err := s.render(items[2], depth)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.WriteString("(" + head + " " + name + " " + params + ")")
	indent := strings.Repeat("  ", depth+1)
	bodyStr := out.String()
	bodyStr = strings.TrimSuffix(bodyStr, ")")
	out.Reset()
	out.WriteString(bodyStr)
	for _, b := range items[3:] {
		bs, err := s.render(b, depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString("\n" + indent + bs)
	}
	out.WriteString("\n)")
	return out.String(), nil
}

func (s *serializer) renderIf(items []*TreeNode, depth int) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		p, err := s.render(it, depth+1)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	oneLine := "(" + strings.Join(parts, " ") + ")"
	if len(oneLine) <= s.opts.lineWidth() && !strings.Contains(oneLine, "\n") {
		return oneLine, nil
	}
	indent := strings.Repeat("  ", depth+1)
	return "(" + strings.Join(parts, "\n"+indent) + ")", nil
}

// sortedLibraryNames is used by callers that want deterministic include
// ordering irrespective of map iteration order.
func sortedLibraryNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
