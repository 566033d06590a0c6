package solidity

import (
	"fmt"
	"strings"
)

// bailout carries a syntax error up to parse through a panic.
type bailout struct{ err *SyntaxError }

type parser struct {
	file *File
	toks []Token
	p    int
}

type nameMode int

const (
	nameIdentifier nameMode = iota
	nameKeyword
	nameNone
)

var (
	variableAttributes = map[string]bool{
		"public": true, "private": true, "internal": true,
		"constant": true, "immutable": true, "transient": true,
	}
	functionKeywords = map[string]bool{
		"public": true, "private": true, "internal": true, "external": true,
		"pure": true, "view": true, "payable": true, "constant": true,
		"virtual": true,
	}
	functionTypeAttributes = map[string]bool{
		"internal": true, "external": true, "pure": true, "view": true, "payable": true,
	}
	closers = map[string]string{"(": ")", "[": "]", "{": "}"}
)

func parse(f *File) (root *Node, err error) {
	toks, err := Tokenize(f.ID, f.Source)
	if err != nil {
		return nil, err
	}
	p := &parser{file: f, toks: toks}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			root, err = nil, b.err
		}
	}()
	return p.parseSourceUnit(), nil
}

func (p *parser) peek() Token { return p.peekN(0) }

func (p *parser) peekN(k int) Token {
	if p.p+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.p+k]
}

func (p *parser) isN(k int, text string) bool {
	t := p.peekN(k)
	return (t.Kind == TokenIdentifier || t.Kind == TokenPunct) && t.Text == text
}

func (p *parser) is(text string) bool { return p.isN(0, text) }

func (p *parser) atEOF() bool { return p.peek().Kind == TokenEOF }

func (p *parser) failf(format string, args ...any) {
	panic(bailout{newSyntaxError(p.file.ID, p.file.Source, p.peek().Start, fmt.Sprintf(format, args...))})
}

func describe(t Token) string {
	if t.Kind == TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}

func (p *parser) node(kind NodeKind) *Node {
	return &Node{Kind: kind, file: p.file, pos: p.peek().Start}
}

func (p *parser) next() *Node {
	t := p.peek()
	if t.Kind == TokenEOF {
		p.failf("unexpected end of file")
	}
	p.p++
	return &Node{Kind: KindTerminal, Token: t, file: p.file, pos: t.Start}
}

func (p *parser) expect(text string) *Node {
	if !p.is(text) {
		p.failf("expected %q, found %s", text, describe(p.peek()))
	}
	return p.next()
}

func (p *parser) expectIdent() *Node {
	if p.peek().Kind != TokenIdentifier {
		p.failf("expected identifier, found %s", describe(p.peek()))
	}
	return p.next()
}

func (p *parser) parseSourceUnit() *Node {
	unit := p.node(KindSourceUnit)
	for !p.atEOF() {
		switch {
		case p.is("pragma"):
			unit.add(p.parseDirective(KindPragmaDirective))
		case p.is("import"):
			unit.add(p.parseDirective(KindImportDirective))
		case p.is("abstract"), p.is("contract"):
			unit.add(p.parseContract(KindContractDefinition))
		case p.is("interface"):
			unit.add(p.parseContract(KindInterfaceDefinition))
		case p.is("library"):
			unit.add(p.parseContract(KindLibraryDefinition))
		default:
			unit.add(p.parseMember(true))
		}
	}
	return unit
}

// parseDirective consumes everything up to and including the next ';'.
func (p *parser) parseDirective(kind NodeKind) *Node {
	n := p.node(kind)
	for !p.is(";") {
		n.add(p.next())
	}
	return n.add(p.next())
}

func (p *parser) parseContract(kind NodeKind) *Node {
	n := p.node(kind)
	if p.is("abstract") {
		n.add(p.next())
	}
	n.add(p.next())
	name := p.expectIdent()
	n.Name = name
	n.add(name)

	if p.is("is") {
		n.add(p.parseInheritance())
	}
	if !p.is("{") {
		// storage layout specifier
		n.add(p.skipUntil(KindExpression, "{"))
	}
	n.add(p.expect("{"))
	for !p.is("}") {
		if p.atEOF() {
			p.failf("unexpected end of file in body of %s", name.Text())
		}
		n.add(p.parseMember(false))
	}
	return n.add(p.next())
}

func (p *parser) parseInheritance() *Node {
	n := p.node(KindInheritanceSpecifier)
	n.add(p.next())
	for {
		t := p.node(KindInheritanceType)
		t.add(p.parseIdentifierPath())
		if p.is("(") {
			t.add(p.skipBalanced(KindExpression))
		}
		n.add(t)
		if !p.is(",") {
			return n
		}
		n.add(p.next())
	}
}

func (p *parser) parseIdentifierPath() *Node {
	n := p.node(KindIdentifierPath)
	n.add(p.expectIdent())
	for p.is(".") {
		n.add(p.next())
		n.add(p.expectIdent())
	}
	return n
}

func (p *parser) parseMember(topLevel bool) *Node {
	switch {
	case p.is("function"):
		if p.isN(1, "(") && !topLevel {
			if n, ok := p.tryStateVariable(); ok {
				return n
			}
			return p.parseFunctionLike(KindFallbackFunctionDefinition, nameNone)
		}
		return p.parseFunctionLike(KindFunctionDefinition, nameIdentifier)
	case p.is("constructor") && p.isN(1, "("):
		return p.parseFunctionLike(KindConstructorDefinition, nameNone)
	case p.is("receive") && p.isN(1, "("):
		return p.parseFunctionLike(KindReceiveFunctionDefinition, nameKeyword)
	case p.is("fallback") && p.isN(1, "("):
		return p.parseFunctionLike(KindFallbackFunctionDefinition, nameKeyword)
	case p.is("modifier"):
		return p.parseFunctionLike(KindModifierDefinition, nameIdentifier)
	case p.is("struct"):
		return p.parseStruct()
	case p.is("enum"):
		return p.parseEnum()
	case p.is("event"):
		return p.parseEventOrError(KindEventDefinition)
	case p.is("error") && p.peekN(1).Kind == TokenIdentifier && p.isN(2, "("):
		return p.parseEventOrError(KindErrorDefinition)
	case p.is("type") && p.peekN(1).Kind == TokenIdentifier && p.isN(2, "is"):
		return p.parseUserDefinedValueType()
	case p.is("using"):
		return p.parseDirective(KindUsingDirective)
	case p.is(";"):
		return p.next()
	}

	if topLevel {
		return p.parseStateVariable(KindConstantDefinition)
	}
	return p.parseStateVariable(KindStateVariableDefinition)
}

// tryStateVariable parses a function-typed state variable, rewinding when
// the tokens turn out to be an unnamed fallback function instead.
func (p *parser) tryStateVariable() (n *Node, ok bool) {
	save := p.p
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			p.p = save
			n, ok = nil, false
		}
	}()
	return p.parseStateVariable(KindStateVariableDefinition), true
}

func (p *parser) parseFunctionLike(kind NodeKind, mode nameMode) *Node {
	n := p.node(kind)
	kw := p.next()
	n.add(kw)
	switch mode {
	case nameIdentifier:
		name := p.expectIdent()
		n.Name = name
		n.add(name)
	case nameKeyword:
		n.Name = kw
	}

	if p.is("(") {
		n.add(p.parseParameters())
	} else if kind != KindModifierDefinition {
		p.failf("expected %q, found %s", "(", describe(p.peek()))
	}

	n.add(p.parseFunctionAttributes())

	if p.is("returns") {
		n.add(p.parseReturns())
	}

	switch {
	case p.is("{"):
		n.add(p.skipBalanced(KindBlock))
	case p.is(";"):
		n.add(p.next())
	default:
		p.failf("expected function body or %q, found %s", ";", describe(p.peek()))
	}
	return n
}

func (p *parser) parseReturns() *Node {
	r := p.node(KindReturnsDeclaration)
	r.add(p.next())
	return r.add(p.parseParameters())
}

func (p *parser) parseFunctionAttributes() *Node {
	n := p.node(KindFunctionAttributes)
	for !p.is("{") && !p.is(";") && !p.is("returns") {
		t := p.peek()
		switch {
		case p.is("override"):
			n.add(p.parseOverride())
		case t.Kind == TokenIdentifier && functionKeywords[t.Text]:
			n.add(p.next())
		case t.Kind == TokenIdentifier:
			m := p.node(KindModifierInvocation)
			m.add(p.parseIdentifierPath())
			if p.is("(") {
				m.add(p.skipBalanced(KindExpression))
			}
			n.add(m)
		default:
			p.failf("unexpected %s in function header", describe(t))
		}
	}
	return n
}

func (p *parser) parseOverride() *Node {
	o := p.node(KindOverrideSpecifier)
	o.add(p.next())
	if !p.is("(") {
		return o
	}
	o.add(p.next())
	for !p.is(")") {
		o.add(p.parseIdentifierPath())
		if p.is(",") {
			o.add(p.next())
		} else if !p.is(")") {
			p.failf("expected %q or %q, found %s", ",", ")", describe(p.peek()))
		}
	}
	return o.add(p.next())
}

func (p *parser) parseParameters() *Node {
	n := p.node(KindParameters)
	n.add(p.expect("("))
	for !p.is(")") {
		n.add(p.parseParameter())
		if p.is(",") {
			n.add(p.next())
		} else if !p.is(")") {
			p.failf("expected %q or %q, found %s", ",", ")", describe(p.peek()))
		}
	}
	return n.add(p.next())
}

func (p *parser) parseParameter() *Node {
	n := p.node(KindParameter)
	n.add(p.parseTypeName())
	for p.is("memory") || p.is("storage") || p.is("calldata") || p.is("indexed") {
		n.add(p.next())
	}
	if p.peek().Kind == TokenIdentifier {
		name := p.next()
		n.Name = name
		n.add(name)
	}
	return n
}

func (p *parser) parseTypeName() *Node {
	var t *Node
	tok := p.peek()
	switch {
	case p.is("mapping"):
		t = p.parseMapping()
	case p.is("function"):
		t = p.parseFunctionType()
	case tok.Kind == TokenIdentifier && IsElementaryTypeName(tok.Text):
		t = p.parseElementaryType()
	case tok.Kind == TokenIdentifier:
		t = p.node(KindUserDefinedTypeName).add(p.parseIdentifierPath())
	default:
		p.failf("expected type name, found %s", describe(tok))
	}

	for p.is("[") {
		a := p.node(KindArrayTypeName)
		a.add(t)
		a.add(p.next())
		if !p.is("]") {
			a.add(p.skipUntil(KindExpression, "]"))
		}
		a.add(p.expect("]"))
		t = a
	}
	return t
}

func (p *parser) parseElementaryType() *Node {
	e := p.node(KindElementaryType)
	kw := p.next()
	e.add(kw)
	if kw.Text() == "address" && p.is("payable") {
		e.add(p.next())
	}
	return e
}

func (p *parser) parseMapping() *Node {
	m := p.node(KindMappingType)
	m.add(p.next())
	m.add(p.expect("("))

	key := p.node(KindMappingKey)
	if tok := p.peek(); tok.Kind == TokenIdentifier && IsElementaryTypeName(tok.Text) {
		key.add(p.parseElementaryType())
	} else {
		key.add(p.parseIdentifierPath())
	}
	if p.peek().Kind == TokenIdentifier {
		name := p.next()
		key.Name = name
		key.add(name)
	}
	m.add(key)

	m.add(p.expect("=>"))

	value := p.node(KindMappingValue)
	value.add(p.parseTypeName())
	if p.peek().Kind == TokenIdentifier {
		name := p.next()
		value.Name = name
		value.add(name)
	}
	m.add(value)

	return m.add(p.expect(")"))
}

func (p *parser) parseFunctionType() *Node {
	f := p.node(KindFunctionType)
	f.add(p.next())
	f.add(p.parseParameters())
	for tok := p.peek(); tok.Kind == TokenIdentifier && functionTypeAttributes[tok.Text]; tok = p.peek() {
		f.add(p.next())
	}
	if p.is("returns") {
		f.add(p.parseReturns())
	}
	return f
}

func (p *parser) parseStateVariable(kind NodeKind) *Node {
	n := p.node(kind)
	n.add(p.parseTypeName())

	attrs := p.node(KindStateVariableAttributes)
	for {
		tok := p.peek()
		if p.is("override") {
			attrs.add(p.parseOverride())
			continue
		}
		if tok.Kind == TokenIdentifier && variableAttributes[tok.Text] {
			attrs.add(p.next())
			continue
		}
		break
	}
	n.add(attrs)

	name := p.expectIdent()
	n.Name = name
	n.add(name)

	if p.is("=") {
		n.add(p.next())
		n.add(p.skipUntil(KindExpression, ";"))
	}
	return n.add(p.expect(";"))
}

func (p *parser) parseStruct() *Node {
	n := p.node(KindStructDefinition)
	n.add(p.next())
	name := p.expectIdent()
	n.Name = name
	n.add(name)
	n.add(p.expect("{"))
	for !p.is("}") {
		m := p.node(KindStructMember)
		m.add(p.parseTypeName())
		field := p.expectIdent()
		m.Name = field
		m.add(field)
		m.add(p.expect(";"))
		n.add(m)
	}
	return n.add(p.next())
}

func (p *parser) parseEnum() *Node {
	n := p.node(KindEnumDefinition)
	n.add(p.next())
	name := p.expectIdent()
	n.Name = name
	n.add(name)
	n.add(p.expect("{"))
	for !p.is("}") {
		n.add(p.expectIdent())
		if p.is(",") {
			n.add(p.next())
		} else if !p.is("}") {
			p.failf("expected %q or %q, found %s", ",", "}", describe(p.peek()))
		}
	}
	return n.add(p.next())
}

func (p *parser) parseEventOrError(kind NodeKind) *Node {
	n := p.node(kind)
	n.add(p.next())
	name := p.expectIdent()
	n.Name = name
	n.add(name)
	n.add(p.parseParameters())
	if p.is("anonymous") {
		n.add(p.next())
	}
	return n.add(p.expect(";"))
}

func (p *parser) parseUserDefinedValueType() *Node {
	n := p.node(KindUserDefinedValueTypeDefinition)
	n.add(p.next())
	name := p.expectIdent()
	n.Name = name
	n.add(name)
	n.add(p.expect("is"))
	n.add(p.parseElementaryType())
	return n.add(p.expect(";"))
}

// skipBalanced consumes a bracketed token run starting at an opening
// bracket, through its matching closer.
func (p *parser) skipBalanced(kind NodeKind) *Node {
	n := p.node(kind)
	open := p.peek().Text
	closer, ok := closers[open]
	if !ok {
		p.failf("expected bracket, found %s", describe(p.peek()))
	}
	n.add(p.next())
	for !p.is(closer) {
		p.skipToken(n)
	}
	return n.add(p.next())
}

// skipUntil consumes tokens up to, but not including, one of stops at
// bracket depth zero.
func (p *parser) skipUntil(kind NodeKind, stops ...string) *Node {
	n := p.node(kind)
	for {
		for _, s := range stops {
			if p.is(s) {
				return n
			}
		}
		p.skipToken(n)
	}
}

func (p *parser) skipToken(into *Node) {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.failf("unexpected end of file")
	}
	if tok.Kind == TokenPunct {
		if _, ok := closers[tok.Text]; ok {
			for _, t := range p.skipBalanced(KindExpression).Children {
				into.add(t)
			}
			return
		}
		if strings.ContainsAny(tok.Text, ")]}") {
			p.failf("unbalanced %s", describe(tok))
		}
	}
	into.add(p.next())
}

// IsElementaryTypeName reports whether s names a built-in value type.
func IsElementaryTypeName(s string) bool {
	switch s {
	case "address", "bool", "string", "bytes", "byte", "int", "uint", "fixed", "ufixed":
		return true
	}
	for _, prefix := range []string{"uint", "int", "bytes", "ufixed", "fixed"} {
		rest, ok := strings.CutPrefix(s, prefix)
		if !ok || rest == "" || !isDigit(rest[0]) {
			continue
		}
		if strings.Trim(rest, "0123456789x") == "" {
			return true
		}
	}
	return false
}
