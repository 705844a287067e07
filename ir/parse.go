package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
)

// This file implements a parser for the subset of textual assembly
// the printer emits. Modules parse top to bottom; globals and
// functions must be declared before they are referenced. Within a
// function body, locals may be referenced before their definition,
// which phi nodes in loops require.

type itemType uint8

const (
	itemError itemType = iota
	itemEOF
	itemLocal   // %name
	itemGlobal  // @name
	itemName    // bare identifier or keyword
	itemInt     // integer literal, possibly hex or negative
	itemFloat   // floating point literal
	itemCString // c"..." with escapes decoded
	itemQuoted  // bare "..." string
	itemLParen
	itemRParen
	itemLBrace
	itemRBrace
	itemLBracket
	itemRBracket
	itemLAngle
	itemRAngle
	itemStar
	itemComma
	itemEquals
	itemColon
	itemEllipsis
)

var itemDesc = [...]string{
	itemError:    "error",
	itemEOF:      "end of input",
	itemLocal:    "local",
	itemGlobal:   "global",
	itemName:     "identifier",
	itemInt:      "integer",
	itemFloat:    "float",
	itemCString:  "string",
	itemQuoted:   "string",
	itemLParen:   "'('",
	itemRParen:   "')'",
	itemLBrace:   "'{'",
	itemRBrace:   "'}'",
	itemLBracket: "'['",
	itemRBracket: "']'",
	itemLAngle:   "'<'",
	itemRAngle:   "'>'",
	itemStar:     "'*'",
	itemComma:    "','",
	itemEquals:   "'='",
	itemColon:    "':'",
	itemEllipsis: "'...'",
}

type position struct{ line, col int }

func (p position) String() string { return fmt.Sprintf("%d:%d", p.line, p.col) }

type item struct {
	typ itemType
	val string
	pos position
}

func (it item) describe() string {
	switch it.typ {
	case itemName, itemInt, itemFloat:
		return "'" + it.val + "'"
	case itemLocal:
		return "'%" + it.val + "'"
	case itemGlobal:
		return "'@" + it.val + "'"
	}
	return itemDesc[it.typ]
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(pos position, format string, args ...any) item {
	return item{typ: itemError, val: fmt.Sprintf(format, args...), pos: pos}
}

func (l *lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) item() item {
	for l.off < len(l.src) {
		switch c := l.src[l.off]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == ';':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.advance()
			}
		default:
			return l.lexToken()
		}
	}
	return item{typ: itemEOF, pos: position{l.line, l.col}}
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '$' || c == '-'
}

func (l *lexer) lexToken() item {
	pos := position{l.line, l.col}
	c := l.advance()
	switch c {
	case '(':
		return item{typ: itemLParen, pos: pos}
	case ')':
		return item{typ: itemRParen, pos: pos}
	case '{':
		return item{typ: itemLBrace, pos: pos}
	case '}':
		return item{typ: itemRBrace, pos: pos}
	case '[':
		return item{typ: itemLBracket, pos: pos}
	case ']':
		return item{typ: itemRBracket, pos: pos}
	case '<':
		return item{typ: itemLAngle, pos: pos}
	case '>':
		return item{typ: itemRAngle, pos: pos}
	case '*':
		return item{typ: itemStar, pos: pos}
	case ',':
		return item{typ: itemComma, pos: pos}
	case '=':
		return item{typ: itemEquals, pos: pos}
	case ':':
		return item{typ: itemColon, pos: pos}
	case '"':
		s, ok := l.lexQuoted()
		if !ok {
			return l.errorf(pos, "unterminated string")
		}
		return item{typ: itemQuoted, val: s, pos: pos}
	case '%', '@':
		typ := itemLocal
		if c == '@' {
			typ = itemGlobal
		}
		if l.off < len(l.src) && l.src[l.off] == '"' {
			l.advance()
			name, ok := l.lexQuoted()
			if !ok {
				return l.errorf(pos, "unterminated quoted name")
			}
			return item{typ: typ, val: name, pos: pos}
		}
		start := l.off
		for l.off < len(l.src) && isNameByte(l.src[l.off]) {
			l.advance()
		}
		if l.off == start {
			return l.errorf(pos, "empty name after %q", string(c))
		}
		return item{typ: typ, val: l.src[start:l.off], pos: pos}
	}

	if c == '.' {
		if strings.HasPrefix(l.src[l.off:], "..") {
			l.advance()
			l.advance()
			return item{typ: itemEllipsis, pos: pos}
		}
		return l.errorf(pos, "unexpected '.'")
	}

	if c == '-' || c >= '0' && c <= '9' {
		return l.lexNumber(pos, c)
	}

	if c == 'c' && l.off < len(l.src) && l.src[l.off] == '"' {
		l.advance()
		s, ok := l.lexQuoted()
		if !ok {
			return l.errorf(pos, "unterminated string")
		}
		decoded, err := decodeString(s)
		if err != nil {
			return l.errorf(pos, "%s", err)
		}
		return item{typ: itemCString, val: decoded, pos: pos}
	}

	if isNameByte(c) {
		start := l.off - 1
		for l.off < len(l.src) && isNameByte(l.src[l.off]) {
			l.advance()
		}
		return item{typ: itemName, val: l.src[start:l.off], pos: pos}
	}

	return l.errorf(pos, "unexpected character %q", string(c))
}

// lexQuoted consumes up to the closing quote, which has no escape
// mechanism of its own; escapes are decoded later for c strings.
func (l *lexer) lexQuoted() (string, bool) {
	start := l.off
	for l.off < len(l.src) {
		if l.src[l.off] == '"' {
			s := l.src[start:l.off]
			l.advance()
			return s, true
		}
		l.advance()
	}
	return "", false
}

func (l *lexer) lexNumber(pos position, first byte) item {
	start := l.off - 1
	c := first
	if c == '-' {
		if l.off >= len(l.src) || l.src[l.off] < '0' || l.src[l.off] > '9' {
			return l.errorf(pos, "expected digit after '-'")
		}
		c = l.advance()
	}
	if c == '0' && l.off < len(l.src) && (l.src[l.off] == 'x' || l.src[l.off] == 'X') {
		l.advance()
		for l.off < len(l.src) && isHexDigit(l.src[l.off]) {
			l.advance()
		}
		return item{typ: itemInt, val: l.src[start:l.off], pos: pos}
	}
	float := false
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c >= '0' && c <= '9' {
			l.advance()
			continue
		}
		if c == '.' && !float {
			float = true
			l.advance()
			continue
		}
		if (c == 'e' || c == 'E') && l.off+1 < len(l.src) {
			next := l.src[l.off+1]
			if next >= '0' && next <= '9' || next == '+' || next == '-' {
				float = true
				l.advance()
				l.advance()
				continue
			}
		}
		break
	}
	typ := itemInt
	if float {
		typ = itemFloat
	}
	return item{typ: typ, val: l.src[start:l.off], pos: pos}
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func decodeString(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\\' {
			sb.WriteByte('\\')
			i++
			continue
		}
		if i+2 >= len(s) || !isHexDigit(s[i+1]) || !isHexDigit(s[i+2]) {
			return "", fmt.Errorf("invalid escape in string constant")
		}
		b, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
		sb.WriteByte(byte(b))
		i += 2
	}
	return sb.String(), nil
}

// fwdRef stands in for a local that has not yet been defined. All
// occurrences are replaced once the enclosing function has been fully
// parsed.
type fwdRef struct {
	name string
	typ  Type
	pos  position
}

func (r *fwdRef) Type() Type     { return r.typ }
func (r *fwdRef) String() string { return "%" + quoteName(r.name) }

type pendingAlias struct {
	alias *Alias
	name  string
	pos   position
}

type parser struct {
	lex  *lexer
	cur  item
	last *item

	m              *Module
	globals        map[string]Value
	pendingAliases []pendingAlias

	// per function
	fn       *Function
	locals   map[string]Value
	blocks   map[string]*Block
	declared map[string]bool
}

// Parse reads a module in textual form.
func Parse(src string) (*Module, error) {
	p := &parser{
		lex:     newLexer(src),
		m:       &Module{},
		globals: map[string]Value{},
	}
	if err := p.module(); err != nil {
		return nil, err
	}
	return p.m, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static inputs.
func MustParse(src string) *Module {
	m, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *parser) next() item {
	if p.last != nil {
		n := *p.last
		p.last = nil
		p.cur = n
		return n
	}
	p.cur = p.lex.item()
	return p.cur
}

func (p *parser) rewind() {
	p.last = &p.cur
}

func (p *parser) peek() item {
	n := p.next()
	p.rewind()
	return n
}

func (p *parser) accept(typ itemType) (item, bool) {
	n := p.next()
	if n.typ == typ {
		return n, true
	}
	p.rewind()
	return item{}, false
}

func (p *parser) acceptName(name string) bool {
	n := p.next()
	if n.typ == itemName && n.val == name {
		return true
	}
	p.rewind()
	return false
}

func (p *parser) expect(typ itemType, what string) (item, error) {
	n := p.next()
	if n.typ == itemError {
		return item{}, fmt.Errorf("%s: %s", n.pos, n.val)
	}
	if n.typ != typ {
		return item{}, fmt.Errorf("%s: expected %s, found %s", n.pos, what, n.describe())
	}
	return n, nil
}

func (p *parser) errf(pos position, format string, args ...any) error {
	return fmt.Errorf("%s: "+format, append([]any{pos}, args...)...)
}

func (p *parser) module() error {
	for {
		n := p.next()
		switch {
		case n.typ == itemEOF:
			return p.resolveAliases()
		case n.typ == itemError:
			return fmt.Errorf("%s: %s", n.pos, n.val)
		case n.typ == itemGlobal:
			if err := p.globalDef(n); err != nil {
				return err
			}
		case n.typ == itemName && n.val == "declare":
			if err := p.declare(); err != nil {
				return err
			}
		case n.typ == itemName && n.val == "define":
			if err := p.define(); err != nil {
				return err
			}
		case n.typ == itemName && n.val == "target":
			if err := p.targetLine(); err != nil {
				return err
			}
		default:
			return p.errf(n.pos, "expected top level entity, found %s", n.describe())
		}
	}
}

func (p *parser) targetLine() error {
	kind, err := p.expect(itemName, "'datalayout' or 'triple'")
	if err != nil {
		return err
	}
	if _, err := p.expect(itemEquals, "'='"); err != nil {
		return err
	}
	s, err := p.expect(itemQuoted, "string")
	if err != nil {
		return err
	}
	switch kind.val {
	case "datalayout":
		p.m.TargetLayout = s.val
	case "triple":
		p.m.TargetTriple = s.val
	default:
		return p.errf(kind.pos, "expected 'datalayout' or 'triple', found %q", kind.val)
	}
	return nil
}

var linkageKeywords = map[string]Linkage{
	"private":     Private,
	"internal":    Internal,
	"linkonce":    LinkOnce,
	"weak":        Weak,
	"common":      Common,
	"extern_weak": ExternWeak,
}

func (p *parser) resolveAliases() error {
	for _, pa := range p.pendingAliases {
		v, ok := p.globals[pa.name]
		if !ok {
			return p.errf(pa.pos, "reference to undefined global @%s", pa.name)
		}
		c, ok := v.(Constant)
		if !ok || !Same(c.Type(), pa.alias.typ) {
			return p.errf(pa.pos, "@%s has type %s, not %s", pa.name, v.Type(), pa.alias.typ)
		}
		pa.alias.Aliasee = c
	}
	return nil
}

func (p *parser) linkage() (Linkage, bool, bool) {
	if p.acceptName("external") {
		return External, true, true
	}
	n := p.peek()
	if n.typ == itemName {
		if l, ok := linkageKeywords[n.val]; ok {
			p.next()
			return l, l == ExternWeak, true
		}
	}
	return External, false, false
}

func (p *parser) globalDef(name item) error {
	if _, err := p.expect(itemEquals, "'='"); err != nil {
		return err
	}
	linkage, decl, _ := p.linkage()
	unnamedAddr := p.acceptName("unnamed_addr")

	if p.acceptName("alias") {
		aliaseeTyp, err := p.typ()
		if err != nil {
			return err
		}
		a := &Alias{name: name.val, typ: aliaseeTyp, Linkage: linkage}
		p.m.Aliases = append(p.m.Aliases, a)
		if err := p.defineGlobalName(name, a); err != nil {
			return err
		}
		// A plain global as the aliasee may name a function defined
		// further down; resolution waits until the end of the module.
		if n, ok := p.accept(itemGlobal); ok {
			if _, known := p.globals[n.val]; !known {
				p.pendingAliases = append(p.pendingAliases, pendingAlias{a, n.val, n.pos})
				return nil
			}
			p.rewind()
		}
		v, err := p.value(aliaseeTyp)
		if err != nil {
			return err
		}
		c, ok := v.(Constant)
		if !ok {
			return p.errf(name.pos, "alias of non-constant value")
		}
		a.Aliasee = c
		return nil
	}

	isConst := false
	switch {
	case p.acceptName("global"):
	case p.acceptName("constant"):
		isConst = true
	default:
		return p.errf(p.peek().pos, "expected 'global', 'constant' or 'alias', found %s", p.peek().describe())
	}

	valType, err := p.typ()
	if err != nil {
		return err
	}
	g := NewGlobal(name.val, valType)
	g.Linkage = linkage
	g.IsConst = isConst
	g.UnnamedAddr = unnamedAddr
	if !decl {
		v, err := p.value(valType)
		if err != nil {
			return err
		}
		c, ok := v.(Constant)
		if !ok {
			return p.errf(name.pos, "initializer of @%s is not a constant", name.val)
		}
		g.Init = c
	}
	if _, ok := p.accept(itemComma); ok {
		if err := p.alignAttr(&g.Align); err != nil {
			return err
		}
	}
	p.m.Globals = append(p.m.Globals, g)
	return p.defineGlobalName(name, g)
}

func (p *parser) alignAttr(out *int) error {
	n := p.next()
	if n.typ != itemName || n.val != "align" {
		return p.errf(n.pos, "expected 'align', found %s", n.describe())
	}
	v, err := p.expect(itemInt, "alignment")
	if err != nil {
		return err
	}
	a, err := strconv.Atoi(v.val)
	if err != nil || a < 0 {
		return p.errf(v.pos, "invalid alignment %q", v.val)
	}
	*out = a
	return nil
}

func (p *parser) defineGlobalName(name item, v Value) error {
	if _, ok := p.globals[name.val]; ok {
		return p.errf(name.pos, "redefinition of @%s", name.val)
	}
	p.globals[name.val] = v
	return nil
}

func (p *parser) declare() error {
	ret, err := p.typ()
	if err != nil {
		return err
	}
	name, err := p.expect(itemGlobal, "function name")
	if err != nil {
		return err
	}
	params, variadic, err := p.paramList(false)
	if err != nil {
		return err
	}
	f := NewFunction(name.val, ret, params...)
	f.Sig.Variadic = variadic
	p.m.Funcs = append(p.m.Funcs, f)
	return p.defineGlobalName(name, f)
}

func (p *parser) define() error {
	linkage, _, _ := p.linkage()
	ret, err := p.typ()
	if err != nil {
		return err
	}
	name, err := p.expect(itemGlobal, "function name")
	if err != nil {
		return err
	}
	params, variadic, err := p.paramList(true)
	if err != nil {
		return err
	}
	f := NewFunction(name.val, ret, params...)
	f.Linkage = linkage
	f.Sig.Variadic = variadic
	p.m.Funcs = append(p.m.Funcs, f)
	if err := p.defineGlobalName(name, f); err != nil {
		return err
	}

	if _, err := p.expect(itemLBrace, "'{'"); err != nil {
		return err
	}
	p.fn = f
	p.locals = map[string]Value{}
	p.blocks = map[string]*Block{}
	p.declared = map[string]bool{}
	for _, param := range params {
		p.locals[param.Name()] = param
	}
	if err := p.body(); err != nil {
		return err
	}
	if err := p.resolveForwards(); err != nil {
		return err
	}
	f.BuildReferrers()
	p.fn = nil
	return nil
}

func (p *parser) paramList(named bool) ([]*Param, bool, error) {
	if _, err := p.expect(itemLParen, "'('"); err != nil {
		return nil, false, err
	}
	var params []*Param
	variadic := false
	if _, ok := p.accept(itemRParen); ok {
		return params, false, nil
	}
	for {
		if _, ok := p.accept(itemEllipsis); ok {
			variadic = true
			break
		}
		typ, err := p.typ()
		if err != nil {
			return nil, false, err
		}
		byval := false
		align := 0
		for {
			if p.acceptName("byval") {
				byval = true
				continue
			}
			if p.peek().typ == itemName && p.peek().val == "align" {
				if err := p.alignAttr(&align); err != nil {
					return nil, false, err
				}
				continue
			}
			break
		}
		pname := fmt.Sprintf("arg%d", len(params))
		if n, ok := p.accept(itemLocal); ok {
			pname = n.val
		} else if named {
			return nil, false, p.errf(p.peek().pos, "expected parameter name, found %s", p.peek().describe())
		}
		param := NewParam(pname, typ)
		param.ByVal = byval
		param.Align = align
		params = append(params, param)
		if _, ok := p.accept(itemComma); !ok {
			break
		}
	}
	if _, err := p.expect(itemRParen, "')'"); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

func (p *parser) blockFor(name string) *Block {
	if b, ok := p.blocks[name]; ok {
		return b
	}
	b := &Block{name: name, parent: p.fn}
	p.blocks[name] = b
	return b
}

func (p *parser) body() error {
	cur := (*Block)(nil)
	entry := func() *Block {
		if cur == nil {
			cur = p.blockFor("entry")
			p.declared["entry"] = true
			p.fn.Blocks = append(p.fn.Blocks, cur)
		}
		return cur
	}
	for {
		n := p.next()
		switch {
		case n.typ == itemRBrace:
			for name, b := range p.blocks {
				if !p.declared[name] {
					return p.errf(n.pos, "reference to undefined label %%%s", b.name)
				}
			}
			return nil
		case n.typ == itemError:
			return fmt.Errorf("%s: %s", n.pos, n.val)
		case n.typ == itemEOF:
			return p.errf(n.pos, "unexpected end of input in function body")
		case n.typ == itemName:
			if p.peek().typ == itemColon {
				p.next()
				if p.declared[n.val] {
					return p.errf(n.pos, "redefinition of label %%%s", n.val)
				}
				b := p.blockFor(n.val)
				p.declared[n.val] = true
				p.fn.Blocks = append(p.fn.Blocks, b)
				cur = b
				continue
			}
			// n is the opcode of an unnamed instruction.
			if err := p.instrCommon(entry(), "", false, n); err != nil {
				return err
			}
		case n.typ == itemLocal:
			p.rewind()
			if err := p.instr(entry()); err != nil {
				return err
			}
		default:
			return p.errf(n.pos, "expected instruction or label, found %s", n.describe())
		}
	}
}

func (p *parser) resolveForwards() error {
	for _, b := range p.fn.Blocks {
		for _, instr := range b.Instrs {
			for n, op := range instr.Operands() {
				ref, ok := op.(*fwdRef)
				if !ok {
					continue
				}
				v, ok := p.locals[ref.name]
				if !ok {
					return p.errf(ref.pos, "reference to undefined local %%%s", ref.name)
				}
				if ref.typ != nil && !Same(v.Type(), ref.typ) {
					return p.errf(ref.pos, "%%%s has type %s, not %s", ref.name, v.Type(), ref.typ)
				}
				instr.SetOperand(n, v)
			}
		}
	}
	return nil
}

var opKeywords = map[string]Op{}

func init() {
	for op := OpRet; op <= OpLandingPad; op++ {
		opKeywords[op.String()] = op
	}
}

var icmpPreds = map[string]Predicate{
	"eq": IntEQ, "ne": IntNE,
	"ugt": IntUGT, "uge": IntUGE, "ult": IntULT, "ule": IntULE,
	"sgt": IntSGT, "sge": IntSGE, "slt": IntSLT, "sle": IntSLE,
}

var fcmpPreds = map[string]Predicate{
	"false": FloatFalse, "oeq": FloatOEQ, "ogt": FloatOGT, "oge": FloatOGE,
	"olt": FloatOLT, "ole": FloatOLE, "one": FloatONE, "ord": FloatORD,
	"ueq": FloatUEQ, "ugt": FloatUGT, "uge": FloatUGE, "ult": FloatULT,
	"ule": FloatULE, "une": FloatUNE, "uno": FloatUNO, "true": FloatTrue,
}

var orderingKeywords = map[string]AtomicOrdering{
	"unordered": Unordered,
	"monotonic": Monotonic,
	"acquire":   Acquire,
	"release":   Release,
	"acq_rel":   AcquireRelease,
	"seq_cst":   SeqCst,
}

func (p *parser) instr(b *Block) error {
	name := ""
	named := false
	if n, ok := p.accept(itemLocal); ok {
		name = n.val
		named = true
		if _, err := p.expect(itemEquals, "'='"); err != nil {
			return err
		}
	}
	opItem, err := p.expect(itemName, "instruction opcode")
	if err != nil {
		return err
	}
	return p.instrCommon(b, name, named, opItem)
}

func (p *parser) instrCommon(b *Block, name string, named bool, opItem item) error {
	op, ok := opKeywords[opItem.val]
	if !ok {
		return p.errf(opItem.pos, "unknown instruction %q", opItem.val)
	}

	i, err := p.instrBody(op, opItem.pos)
	if err != nil {
		return err
	}
	i.block = b
	b.Instrs = append(b.Instrs, i)

	_, void := i.typ.(*VoidType)
	if named {
		if void {
			return p.errf(opItem.pos, "cannot name a void instruction")
		}
		if _, dup := p.locals[name]; dup {
			return p.errf(opItem.pos, "redefinition of %%%s", name)
		}
		i.name = name
		p.locals[name] = i
	} else if !void {
		i.name = fmt.Sprintf("t%d", p.fn.nvalues)
		p.fn.nvalues++
		if _, dup := p.locals[i.name]; dup {
			return p.errf(opItem.pos, "redefinition of %%%s", i.name)
		}
		p.locals[i.name] = i
	}
	return nil
}

func (p *parser) instrBody(op Op, pos position) (*Instr, error) {
	switch {
	case op >= OpAdd && op <= OpXor:
		return p.binop(op)
	case op.IsCast():
		return p.cast(op)
	}
	switch op {
	case OpRet:
		if p.acceptName("void") {
			return NewInstr(OpRet, Void), nil
		}
		v, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		return NewInstr(OpRet, Void, v), nil
	case OpBr:
		if p.acceptName("label") {
			b, err := p.labelRef()
			if err != nil {
				return nil, err
			}
			i := NewInstr(OpBr, Void)
			i.Blocks = []*Block{b}
			return i, nil
		}
		cond, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		var targets []*Block
		for n := 0; n < 2; n++ {
			if _, err := p.expect(itemComma, "','"); err != nil {
				return nil, err
			}
			if !p.acceptName("label") {
				return nil, p.errf(p.peek().pos, "expected 'label', found %s", p.peek().describe())
			}
			b, err := p.labelRef()
			if err != nil {
				return nil, err
			}
			targets = append(targets, b)
		}
		i := NewInstr(OpBr, Void, cond)
		i.Blocks = targets
		return i, nil
	case OpSwitch:
		v, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma, "','"); err != nil {
			return nil, err
		}
		if !p.acceptName("label") {
			return nil, p.errf(p.peek().pos, "expected 'label', found %s", p.peek().describe())
		}
		def, err := p.labelRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemLBracket, "'['"); err != nil {
			return nil, err
		}
		i := NewInstr(OpSwitch, Void, v)
		i.Blocks = []*Block{def}
		for {
			if _, ok := p.accept(itemRBracket); ok {
				return i, nil
			}
			c, err := p.typedValue()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemComma, "','"); err != nil {
				return nil, err
			}
			if !p.acceptName("label") {
				return nil, p.errf(p.peek().pos, "expected 'label', found %s", p.peek().describe())
			}
			b, err := p.labelRef()
			if err != nil {
				return nil, err
			}
			i.ops = append(i.ops, c)
			i.Blocks = append(i.Blocks, b)
		}
	case OpUnreachable, OpUnwind:
		return NewInstr(op, Void), nil
	case OpResume:
		v, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		return NewInstr(OpResume, Void, v), nil
	case OpAlloca:
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		i := NewInstr(OpAlloca, PointerTo(typ))
		i.Alloc = typ
		if _, ok := p.accept(itemComma); ok {
			if p.peek().typ == itemName && p.peek().val == "align" {
				if err := p.alignAttr(&i.Align); err != nil {
					return nil, err
				}
				return i, nil
			}
			count, err := p.typedValue()
			if err != nil {
				return nil, err
			}
			i.ops = append(i.ops, count)
			if _, ok := p.accept(itemComma); ok {
				if err := p.alignAttr(&i.Align); err != nil {
					return nil, err
				}
			}
		}
		return i, nil
	case OpLoad:
		atomic := p.acceptName("atomic")
		volatile := p.acceptName("volatile")
		ptr, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		pt, ok := ptr.Type().(*PointerType)
		if !ok {
			return nil, p.errf(pos, "load of non-pointer type %s", ptr.Type())
		}
		i := NewInstr(OpLoad, pt.Elem, ptr)
		i.Volatile = volatile
		if atomic {
			if err := p.ordering(i); err != nil {
				return nil, err
			}
		}
		if _, ok := p.accept(itemComma); ok {
			if err := p.alignAttr(&i.Align); err != nil {
				return nil, err
			}
		}
		return i, nil
	case OpStore:
		atomic := p.acceptName("atomic")
		volatile := p.acceptName("volatile")
		val, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma, "','"); err != nil {
			return nil, err
		}
		ptr, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		i := NewInstr(OpStore, Void, val, ptr)
		i.Volatile = volatile
		if atomic {
			if err := p.ordering(i); err != nil {
				return nil, err
			}
		}
		if _, ok := p.accept(itemComma); ok {
			if err := p.alignAttr(&i.Align); err != nil {
				return nil, err
			}
		}
		return i, nil
	case OpGetElementPtr:
		inbounds := p.acceptName("inbounds")
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		rt, err := p.gepResultType(pos, ops)
		if err != nil {
			return nil, err
		}
		i := NewInstr(OpGetElementPtr, rt, ops...)
		i.InBounds = inbounds
		return i, nil
	case OpFence:
		i := NewInstr(OpFence, Void)
		return i, p.ordering(i)
	case OpAtomicCmpXchg:
		volatile := p.acceptName("volatile")
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		if len(ops) != 3 {
			return nil, p.errf(pos, "cmpxchg needs 3 operands, have %d", len(ops))
		}
		pt, ok := ops[0].Type().(*PointerType)
		if !ok {
			return nil, p.errf(pos, "cmpxchg of non-pointer type %s", ops[0].Type())
		}
		i := NewInstr(OpAtomicCmpXchg, pt.Elem, ops...)
		i.Volatile = volatile
		return i, p.ordering(i)
	case OpAtomicRMW:
		volatile := p.acceptName("volatile")
		kind, err := p.expect(itemName, "atomicrmw operation")
		if err != nil {
			return nil, err
		}
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		if len(ops) != 2 {
			return nil, p.errf(pos, "atomicrmw needs 2 operands, have %d", len(ops))
		}
		pt, ok := ops[0].Type().(*PointerType)
		if !ok {
			return nil, p.errf(pos, "atomicrmw of non-pointer type %s", ops[0].Type())
		}
		i := NewInstr(OpAtomicRMW, pt.Elem, ops...)
		i.Volatile = volatile
		i.RMWOp = kind.val
		return i, p.ordering(i)
	case OpICmp, OpFCmp:
		predItem, err := p.expect(itemName, "comparison predicate")
		if err != nil {
			return nil, err
		}
		preds := icmpPreds
		if op == OpFCmp {
			preds = fcmpPreds
		}
		pred, ok := preds[predItem.val]
		if !ok {
			return nil, p.errf(predItem.pos, "unknown predicate %q", predItem.val)
		}
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		lhs, err := p.value(typ)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma, "','"); err != nil {
			return nil, err
		}
		rhs, err := p.value(typ)
		if err != nil {
			return nil, err
		}
		i := NewInstr(op, I1, lhs, rhs)
		i.Pred = pred
		return i, nil
	case OpPHI:
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		i := NewInstr(OpPHI, typ)
		for {
			if _, err := p.expect(itemLBracket, "'['"); err != nil {
				return nil, err
			}
			v, err := p.value(typ)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemComma, "','"); err != nil {
				return nil, err
			}
			b, err := p.labelRef()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemRBracket, "']'"); err != nil {
				return nil, err
			}
			i.ops = append(i.ops, v)
			i.Blocks = append(i.Blocks, b)
			if _, ok := p.accept(itemComma); !ok {
				return i, nil
			}
		}
	case OpCall:
		ret, err := p.typ()
		if err != nil {
			return nil, err
		}
		// The callee may be spelled with just the return type or with
		// the full pointer-to-function type.
		if pt, ok := ret.(*PointerType); ok {
			if ft, ok := pt.Elem.(*FuncType); ok {
				ret = ft.Ret
			}
		}
		callee, err := p.valueRef(nil)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemLParen, "'('"); err != nil {
			return nil, err
		}
		i := NewInstr(OpCall, ret, callee)
		if _, ok := p.accept(itemRParen); ok {
			return i, nil
		}
		for {
			arg, err := p.typedValue()
			if err != nil {
				return nil, err
			}
			i.ops = append(i.ops, arg)
			if _, ok := p.accept(itemComma); !ok {
				break
			}
		}
		if _, err := p.expect(itemRParen, "')'"); err != nil {
			return nil, err
		}
		return i, nil
	case OpSelect:
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		if len(ops) != 3 {
			return nil, p.errf(pos, "select needs 3 operands, have %d", len(ops))
		}
		return NewInstr(OpSelect, ops[1].Type(), ops...), nil
	case OpVAArg:
		list, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma, "','"); err != nil {
			return nil, err
		}
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		return NewInstr(OpVAArg, typ, list), nil
	case OpExtractValue:
		agg, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		idxs, err := p.indexList()
		if err != nil {
			return nil, err
		}
		typ := IndexedType(agg.Type(), idxs)
		if typ == nil {
			return nil, p.errf(pos, "invalid extractvalue indices for %s", agg.Type())
		}
		i := NewInstr(OpExtractValue, typ, agg)
		i.Indices = idxs
		return i, nil
	case OpInsertValue:
		agg, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma, "','"); err != nil {
			return nil, err
		}
		elem, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		idxs, err := p.indexList()
		if err != nil {
			return nil, err
		}
		want := IndexedType(agg.Type(), idxs)
		if want == nil || !Same(want, elem.Type()) {
			return nil, p.errf(pos, "invalid insertvalue indices for %s", agg.Type())
		}
		i := NewInstr(OpInsertValue, agg.Type(), agg, elem)
		i.Indices = idxs
		return i, nil
	case OpExtractElement:
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		vt, ok := ops[0].Type().(*VectorType)
		if !ok || len(ops) != 2 {
			return nil, p.errf(pos, "invalid extractelement")
		}
		return NewInstr(OpExtractElement, vt.Elem, ops...), nil
	case OpInsertElement:
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		if len(ops) != 3 {
			return nil, p.errf(pos, "invalid insertelement")
		}
		return NewInstr(OpInsertElement, ops[0].Type(), ops...), nil
	case OpShuffleVector:
		ops, err := p.typedValueList()
		if err != nil {
			return nil, err
		}
		if len(ops) != 3 {
			return nil, p.errf(pos, "invalid shufflevector")
		}
		vt, ok := ops[0].Type().(*VectorType)
		mask, ok2 := ops[2].Type().(*VectorType)
		if !ok || !ok2 {
			return nil, p.errf(pos, "invalid shufflevector")
		}
		return NewInstr(OpShuffleVector, VectorOf(mask.Len, vt.Elem), ops...), nil
	}
	return nil, p.errf(pos, "instruction %q is not supported by the parser", op)
}

func (p *parser) binop(op Op) (*Instr, error) {
	var flags Flags
	for {
		switch {
		case p.acceptName("nuw"):
			flags.NUW = true
		case p.acceptName("nsw"):
			flags.NSW = true
		case p.acceptName("exact"):
			flags.Exact = true
		default:
			typ, err := p.typ()
			if err != nil {
				return nil, err
			}
			lhs, err := p.value(typ)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemComma, "','"); err != nil {
				return nil, err
			}
			rhs, err := p.value(typ)
			if err != nil {
				return nil, err
			}
			i := NewInstr(op, typ, lhs, rhs)
			i.Flags = flags
			return i, nil
		}
	}
}

func (p *parser) cast(op Op) (*Instr, error) {
	v, err := p.typedValue()
	if err != nil {
		return nil, err
	}
	if !p.acceptName("to") {
		return nil, p.errf(p.peek().pos, "expected 'to', found %s", p.peek().describe())
	}
	to, err := p.typ()
	if err != nil {
		return nil, err
	}
	return NewInstr(op, to, v), nil
}

func (p *parser) ordering(i *Instr) error {
	n, err := p.expect(itemName, "atomic ordering")
	if err != nil {
		return err
	}
	o, ok := orderingKeywords[n.val]
	if !ok {
		return p.errf(n.pos, "unknown atomic ordering %q", n.val)
	}
	i.Ordering = o
	return nil
}

func (p *parser) labelRef() (*Block, error) {
	n, err := p.expect(itemLocal, "label name")
	if err != nil {
		return nil, err
	}
	return p.blockFor(n.val), nil
}

func (p *parser) indexList() ([]uint, error) {
	var idxs []uint
	for {
		if _, ok := p.accept(itemComma); !ok {
			if len(idxs) == 0 {
				return nil, p.errf(p.peek().pos, "expected index list")
			}
			return idxs, nil
		}
		n, err := p.expect(itemInt, "index")
		if err != nil {
			return nil, err
		}
		idx, err := strconv.ParseUint(n.val, 10, 32)
		if err != nil {
			return nil, p.errf(n.pos, "invalid index %q", n.val)
		}
		idxs = append(idxs, uint(idx))
	}
}

func (p *parser) typedValue() (Value, error) {
	typ, err := p.typ()
	if err != nil {
		return nil, err
	}
	return p.value(typ)
}

func (p *parser) typedValueList() ([]Value, error) {
	var ops []Value
	for {
		v, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		ops = append(ops, v)
		if _, ok := p.accept(itemComma); !ok {
			return ops, nil
		}
	}
}

// gepResultType walks the indexed types of a getelementptr operand
// list. Only the first index may step through a pointer.
func (p *parser) gepResultType(pos position, ops []Value) (Type, error) {
	if len(ops) < 2 {
		return nil, p.errf(pos, "getelementptr needs a base and at least one index")
	}
	pt, ok := ops[0].Type().(*PointerType)
	if !ok {
		return nil, p.errf(pos, "getelementptr base has non-pointer type %s", ops[0].Type())
	}
	cur := pt.Elem
	for _, idx := range ops[2:] {
		switch t := cur.(type) {
		case *ArrayType:
			cur = t.Elem
		case *VectorType:
			cur = t.Elem
		case *StructType:
			ci, ok := idx.(*ConstInt)
			if !ok {
				return nil, p.errf(pos, "struct index is not a constant")
			}
			n := ci.Val.Uint64()
			if !ci.Val.FitsUint64() || n >= uint64(len(t.Fields)) {
				return nil, p.errf(pos, "struct index %s out of range", ci.Val.Dec())
			}
			cur = t.Fields[n]
		default:
			return nil, p.errf(pos, "cannot index into type %s", cur)
		}
	}
	return PointerTo(cur), nil
}

// valueRef parses a reference to a local or global. A nil typ skips
// the type check on forward references, for positions such as a
// call's callee where the operand type is not the spelled type.
func (p *parser) valueRef(typ Type) (Value, error) {
	n := p.next()
	switch n.typ {
	case itemLocal:
		if v, ok := p.locals[n.val]; ok {
			return v, nil
		}
		return &fwdRef{name: n.val, typ: typ, pos: n.pos}, nil
	case itemGlobal:
		v, ok := p.globals[n.val]
		if !ok {
			return nil, p.errf(n.pos, "reference to undefined global @%s", n.val)
		}
		return v, nil
	}
	return nil, p.errf(n.pos, "expected value, found %s", n.describe())
}

func (p *parser) value(typ Type) (Value, error) {
	n := p.next()
	switch n.typ {
	case itemLocal, itemGlobal:
		p.rewind()
		v, err := p.valueRef(typ)
		if err != nil {
			return nil, err
		}
		if _, fwd := v.(*fwdRef); !fwd && !Same(v.Type(), typ) {
			return nil, p.errf(n.pos, "%s has type %s, not %s", v, v.Type(), typ)
		}
		return v, nil
	case itemInt:
		switch t := typ.(type) {
		case *IntType:
			val, err := bitvec.Parse(t.Bits, n.val)
			if err != nil {
				return nil, p.errf(n.pos, "invalid integer literal %q", n.val)
			}
			return NewConstIntFromVec(t, val), nil
		case *FloatType:
			if strings.HasPrefix(n.val, "0x") || strings.HasPrefix(n.val, "0X") {
				bits, err := strconv.ParseUint(n.val[2:], 16, 64)
				if err != nil {
					return nil, p.errf(n.pos, "invalid float literal %q", n.val)
				}
				if t.Bits == 32 {
					// Hex float literals encode the equivalent double.
					return NewConstFloat(t, math.Float64frombits(bits)), nil
				}
				return NewConstFloatFromBits(t, bits), nil
			}
			f, err := strconv.ParseFloat(n.val, 64)
			if err != nil {
				return nil, p.errf(n.pos, "invalid float literal %q", n.val)
			}
			return NewConstFloat(t, f), nil
		}
		return nil, p.errf(n.pos, "integer literal for non-numeric type %s", typ)
	case itemFloat:
		t, ok := typ.(*FloatType)
		if !ok {
			return nil, p.errf(n.pos, "float literal for type %s", typ)
		}
		f, err := strconv.ParseFloat(n.val, 64)
		if err != nil {
			return nil, p.errf(n.pos, "invalid float literal %q", n.val)
		}
		return NewConstFloat(t, f), nil
	case itemCString:
		t, ok := typ.(*ArrayType)
		if !ok || IntBits(t.Elem) != 8 {
			return nil, p.errf(n.pos, "string constant for type %s", typ)
		}
		if int64(len(n.val)) != t.Len {
			return nil, p.errf(n.pos, "string constant has %d bytes, type wants %d", len(n.val), t.Len)
		}
		elems := make([]Constant, len(n.val))
		for idx := 0; idx < len(n.val); idx++ {
			elems[idx] = NewConstInt(I8, uint64(n.val[idx]))
		}
		return &ConstArray{Typ: t, Elems: elems}, nil
	case itemLBracket:
		t, ok := typ.(*ArrayType)
		if !ok {
			return nil, p.errf(n.pos, "array literal for type %s", typ)
		}
		elems, err := p.constList(itemRBracket, t.Elem)
		if err != nil {
			return nil, err
		}
		if int64(len(elems)) != t.Len {
			return nil, p.errf(n.pos, "array literal has %d elements, type wants %d", len(elems), t.Len)
		}
		return &ConstArray{Typ: t, Elems: elems}, nil
	case itemLBrace:
		t, ok := typ.(*StructType)
		if !ok {
			return nil, p.errf(n.pos, "struct literal for type %s", typ)
		}
		fields, err := p.constList(itemRBrace, nil)
		if err != nil {
			return nil, err
		}
		if len(fields) != len(t.Fields) {
			return nil, p.errf(n.pos, "struct literal has %d fields, type wants %d", len(fields), len(t.Fields))
		}
		for idx, f := range fields {
			if !Same(f.Type(), t.Fields[idx]) {
				return nil, p.errf(n.pos, "field %d has type %s, want %s", idx, f.Type(), t.Fields[idx])
			}
		}
		return &ConstStruct{Typ: t, Fields: fields}, nil
	case itemLAngle:
		t, ok := typ.(*VectorType)
		if !ok {
			return nil, p.errf(n.pos, "vector literal for type %s", typ)
		}
		elems, err := p.constList(itemRAngle, t.Elem)
		if err != nil {
			return nil, err
		}
		if int64(len(elems)) != t.Len {
			return nil, p.errf(n.pos, "vector literal has %d elements, type wants %d", len(elems), t.Len)
		}
		return &ConstVector{Typ: t, Elems: elems}, nil
	case itemName:
		switch n.val {
		case "null":
			t, ok := typ.(*PointerType)
			if !ok {
				return nil, p.errf(n.pos, "'null' for non-pointer type %s", typ)
			}
			return &ConstNull{Typ: t}, nil
		case "undef":
			return &Undef{Typ: typ}, nil
		case "zeroinitializer":
			return &ConstAggregateZero{Typ: typ}, nil
		case "true", "false":
			if IntBits(typ) != 1 {
				return nil, p.errf(n.pos, "boolean literal for type %s", typ)
			}
			v := uint64(0)
			if n.val == "true" {
				v = 1
			}
			return NewConstInt(I1, v), nil
		}
		if op, ok := opKeywords[n.val]; ok {
			return p.constExpr(op, n.pos, typ)
		}
	}
	return nil, p.errf(n.pos, "expected value, found %s", n.describe())
}

func (p *parser) constList(end itemType, elem Type) ([]Constant, error) {
	var out []Constant
	if _, ok := p.accept(end); ok {
		return out, nil
	}
	for {
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		pos := p.peek().pos
		v, err := p.value(typ)
		if err != nil {
			return nil, err
		}
		c, ok := v.(Constant)
		if !ok {
			return nil, p.errf(pos, "aggregate element is not a constant")
		}
		if elem != nil && !Same(typ, elem) {
			return nil, p.errf(pos, "element has type %s, want %s", typ, elem)
		}
		out = append(out, c)
		if _, ok := p.accept(itemComma); !ok {
			break
		}
	}
	if _, err := p.expect(end, itemDesc[end]); err != nil {
		return nil, err
	}
	return out, nil
}

// constExpr parses a constant expression operand such as
// "getelementptr inbounds ([6 x i8]* @s, i64 0, i64 0)". The declared
// type of the surrounding operand must match the expression's result.
func (p *parser) constExpr(op Op, pos position, want Type) (Value, error) {
	inbounds := false
	if op == OpGetElementPtr {
		inbounds = p.acceptName("inbounds")
	}
	if _, err := p.expect(itemLParen, "'('"); err != nil {
		return nil, err
	}

	check := func(v Value) (Value, error) {
		if !Same(v.Type(), want) {
			return nil, p.errf(pos, "constant expression has type %s, want %s", v.Type(), want)
		}
		return v, nil
	}

	if op.IsCast() {
		v, err := p.typedValue()
		if err != nil {
			return nil, err
		}
		c, ok := v.(Constant)
		if !ok {
			return nil, p.errf(pos, "cast of non-constant value")
		}
		if !p.acceptName("to") {
			return nil, p.errf(p.peek().pos, "expected 'to', found %s", p.peek().describe())
		}
		to, err := p.typ()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemRParen, "')'"); err != nil {
			return nil, err
		}
		return check(FoldCast(op, c, to))
	}

	ops, err := p.typedValueList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemRParen, "')'"); err != nil {
		return nil, err
	}
	consts := make([]Constant, len(ops))
	for i, v := range ops {
		c, ok := v.(Constant)
		if !ok {
			return nil, p.errf(pos, "constant expression has non-constant operand")
		}
		consts[i] = c
	}

	switch {
	case op >= OpAdd && op <= OpXor:
		if len(consts) != 2 {
			return nil, p.errf(pos, "%s needs 2 operands, have %d", op, len(consts))
		}
		return check(FoldBinop(op, consts[0], consts[1]))
	case op == OpGetElementPtr:
		rt, err := p.gepResultType(pos, ops)
		if err != nil {
			return nil, err
		}
		ce := NewConstExpr(OpGetElementPtr, rt, consts...)
		ce.InBounds = inbounds
		return check(ce)
	case op == OpSelect && len(consts) == 3:
		return check(NewConstExpr(OpSelect, consts[1].Type(), consts...))
	}
	return nil, p.errf(pos, "unsupported constant expression %q", op)
}

func (p *parser) typ() (Type, error) {
	base, err := p.baseType()
	if err != nil {
		return nil, err
	}
	return p.typSuffix(base)
}

func (p *parser) typSuffix(base Type) (Type, error) {
	for {
		if _, ok := p.accept(itemStar); ok {
			base = PointerTo(base)
			continue
		}
		if p.peek().typ == itemLParen {
			// A '(' after a type begins a function type:
			// "i32 (i8*, ...)".
			p.next()
			ft := &FuncType{Ret: base}
			if _, ok := p.accept(itemRParen); !ok {
				for {
					if _, ok := p.accept(itemEllipsis); ok {
						ft.Variadic = true
						break
					}
					param, err := p.typ()
					if err != nil {
						return nil, err
					}
					ft.Params = append(ft.Params, param)
					if _, ok := p.accept(itemComma); !ok {
						break
					}
				}
				if _, err := p.expect(itemRParen, "')'"); err != nil {
					return nil, err
				}
			}
			base = ft
			continue
		}
		return base, nil
	}
}

func (p *parser) baseType() (Type, error) {
	n := p.next()
	switch n.typ {
	case itemName:
		switch n.val {
		case "void":
			return Void, nil
		case "label":
			return Label, nil
		case "half":
			return &FloatType{Bits: 16}, nil
		case "float":
			return Float, nil
		case "double":
			return Double, nil
		case "x86_fp80":
			return &FloatType{Bits: 80}, nil
		case "fp128":
			return &FloatType{Bits: 128}, nil
		}
		if strings.HasPrefix(n.val, "i") {
			bits, err := strconv.Atoi(n.val[1:])
			if err == nil {
				if bits < 1 || bits > bitvec.MaxWidth {
					return nil, p.errf(n.pos, "unsupported integer width %d", bits)
				}
				return IntTy(bits), nil
			}
		}
		return nil, p.errf(n.pos, "unknown type %q", n.val)
	case itemLBracket:
		return p.seqType(itemRBracket)
	case itemLAngle:
		if p.peek().typ == itemLBrace {
			p.next()
			st, err := p.structBody()
			if err != nil {
				return nil, err
			}
			st.Packed = true
			if _, err := p.expect(itemRAngle, "'>'"); err != nil {
				return nil, err
			}
			return st, nil
		}
		return p.seqType(itemRAngle)
	case itemLBrace:
		return p.structBody()
	}
	return nil, p.errf(n.pos, "expected type, found %s", n.describe())
}

func (p *parser) seqType(end itemType) (Type, error) {
	lenItem, err := p.expect(itemInt, "element count")
	if err != nil {
		return nil, err
	}
	count, err := strconv.ParseInt(lenItem.val, 10, 64)
	if err != nil || count < 0 {
		return nil, p.errf(lenItem.pos, "invalid element count %q", lenItem.val)
	}
	x, err := p.expect(itemName, "'x'")
	if err != nil {
		return nil, err
	}
	if x.val != "x" {
		return nil, p.errf(x.pos, "expected 'x', found %q", x.val)
	}
	elem, err := p.typ()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(end, itemDesc[end]); err != nil {
		return nil, err
	}
	if end == itemRAngle {
		return VectorOf(count, elem), nil
	}
	return ArrayOf(count, elem), nil
}

func (p *parser) structBody() (*StructType, error) {
	st := &StructType{}
	if _, ok := p.accept(itemRBrace); ok {
		return st, nil
	}
	for {
		f, err := p.typ()
		if err != nil {
			return nil, err
		}
		st.Fields = append(st.Fields, f)
		if _, ok := p.accept(itemComma); !ok {
			break
		}
	}
	if _, err := p.expect(itemRBrace, "'}'"); err != nil {
		return nil, err
	}
	return st, nil
}
