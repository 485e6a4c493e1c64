// Package preprocessor expands #include, #define and conditional
// directives into a normalised source text, emitting a codemap that
// traces every expanded character back to its origin file and
// position.
package preprocessor

import (
	"log"
	"slices"
	"strings"

	"github.com/z33toolchain/z33/codemap"
	"github.com/z33toolchain/z33/internal/lex"
	"github.com/z33toolchain/z33/internal/uuid"
	"github.com/z33toolchain/z33/resolver"
)

// Context is shared by one preprocessing job and all the include
// expansions it spawns: the file resolver, the #define table, and the
// codemap of every file expanded so far keyed by its UUID.
type Context struct {
	Verbose bool // Set to enable verbose logging.

	Resolver resolver.FileResolver
	Defines  map[string]Value
	Maps     map[uuid.UUID]*codemap.CodeMap

	stack []string
}

// NewContext builds a fresh context over a resolver.
func NewContext(r resolver.FileResolver) *Context {
	return &Context{
		Resolver: r,
		Defines:  map[string]Value{},
		Maps:     map[uuid.UUID]*codemap.CodeMap{},
	}
}

// Preprocessor expands a single file. Every included file gets its own
// instance with its own UUID.
type Preprocessor struct {
	Verbose bool // Set to enable verbose logging.

	ctx  *Context
	uuid uuid.UUID
	path string
}

// Preprocess expands the program at path and returns its codemap (the
// Modified text is the expanded program) together with the file's
// UUID. Per-file codemaps for every include are recorded in the
// context.
func Preprocess(ctx *Context, path string) (cm *codemap.CodeMap, id uuid.UUID, err error) {
	canonical, err := ctx.Resolver.CanonicalPath(path)
	if err != nil {
		return
	}
	if slices.Contains(ctx.stack, canonical) {
		err = ErrIncludeCycle
		return
	}
	ctx.stack = append(ctx.stack, canonical)
	defer func() {
		ctx.stack = ctx.stack[:len(ctx.stack)-1]
	}()

	source, err := ctx.Resolver.FileContents(canonical)
	if err != nil {
		return
	}

	p := &Preprocessor{
		Verbose: ctx.Verbose,
		ctx:     ctx,
		uuid:    uuid.New(),
		path:    canonical,
	}
	id = p.uuid

	cm, err = p.expand(source)
	if err != nil {
		return
	}
	ctx.Maps[id] = cm
	return
}

// emitItem is one surviving element of the evaluated tree, in document
// order: a run of local code, or the expansion of an include.
type emitItem struct {
	pos codemap.Range // span in this file's original text

	external bool
	text     string    // include expansion
	file     uuid.UUID // include child UUID
	newline  bool      // expansion lacked a trailing line break
}

// expand runs the full pipeline over one file's source: lex, build the
// directive tree, evaluate it, emit the codemap, substitute symbols.
func (p *Preprocessor) expand(source string) (cm *codemap.CodeMap, err error) {
	tokens, err := lexTokens(source)
	if err != nil {
		return
	}
	t, root, err := buildTree(tokens)
	if err != nil {
		return
	}

	var items []emitItem
	if err = p.eval(t, root, &items); err != nil {
		return
	}

	cm = codemap.New(source)

	// Walk the original text front to back: spans between surviving
	// items are removed, include spans are replaced by the child's
	// expansion. delta tracks the running original-to-modified shift.
	delta := 0
	cursor := 0
	remove := func(from, to int) {
		if from == to {
			return
		}
		cm.ReplaceCharacters(codemap.Range{Start: from + delta, End: to + delta}, "")
		delta -= to - from
	}
	for _, item := range items {
		remove(cursor, item.pos.Start)
		if item.external {
			cm.InsertFileContents(item.text, item.file, codemap.Range{
				Start: item.pos.Start + delta,
				End:   item.pos.End + delta,
			})
			delta += len(item.text) - item.pos.Len()
			if item.newline {
				end := item.pos.End + delta
				cm.ReplaceCharacters(codemap.Range{Start: end, End: end}, "\n")
				delta++
			}
		}
		cursor = item.pos.End
	}
	remove(cursor, len(source))

	p.substitute(cm)
	return
}

// eval walks the tree in document order: defines extend the context,
// condition groups select at most one branch, includes expand
// recursively.
func (p *Preprocessor) eval(t *tree, idx int, items *[]emitItem) (err error) {
	n := t.nodes[idx]
	switch n.kind {
	case nodeRoot, nodeBranch:
		for _, child := range n.children {
			if err = p.eval(t, child, items); err != nil {
				return
			}
		}

	case nodeCode:
		*items = append(*items, emitItem{pos: n.tok.pos})

	case nodeDefine:
		if _, dup := p.ctx.Defines[n.tok.name]; dup {
			err = parseErrAt(n.tok.namePos, ErrDefineDuplicate)
			return
		}
		value := n.tok.value
		value.File = p.uuid
		p.ctx.Defines[n.tok.name] = value
		if p.Verbose {
			log.Printf("preprocessor: %v: #define %v", p.path, n.tok.name)
		}

	case nodeInclude:
		var child *codemap.CodeMap
		var id uuid.UUID
		child, id, err = Preprocess(p.ctx, n.tok.path)
		if err != nil {
			err = parseErrAt(n.tok.pathPos, err)
			return
		}
		if p.Verbose {
			log.Printf("preprocessor: %v: #include <%v>", p.path, n.tok.path)
		}
		*items = append(*items, emitItem{
			pos:      n.tok.pos,
			external: true,
			text:     child.Modified,
			file:     id,
			newline:  !strings.HasSuffix(child.Modified, "\n"),
		})

	case nodeGroup:
		for _, branch := range n.children {
			tok := t.nodes[branch].tok
			take := true
			if tok.kind != tokElse {
				_, defined := p.ctx.Defines[tok.expr.Name]
				take = defined != tok.expr.Negated
			}
			if take {
				return p.eval(t, branch, items)
			}
		}
	}
	return
}

// substitute replaces defined symbols in the expanded text. Only whole
// identifiers in local, unedited text are replaced; string literals,
// line comments and included text (already substituted by its own
// expansion) are skipped.
func (p *Preprocessor) substitute(cm *codemap.CodeMap) {
	type edit struct {
		rng   codemap.Range
		value Value
	}
	var edits []edit

	text := cm.Modified
	inString := false
	inComment := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			inComment = true
			i++
		case lex.IsIdentStart(c):
			start := i
			for i+1 < len(text) && lex.IsIdentPart(text[i+1]) {
				i++
			}
			value, ok := p.ctx.Defines[text[start:i+1]]
			if !ok {
				continue
			}
			result, ok := cm.ConvertToOriginal(start)
			if !ok || result.Kind != codemap.OneToOne {
				continue
			}
			edits = append(edits, edit{rng: codemap.Range{Start: start, End: i + 1}, value: value})
		}
	}

	// Apply back to front so earlier spans stay valid.
	for n := len(edits) - 1; n >= 0; n-- {
		e := edits[n]
		expansion := e.value.expand()
		if e.value.File == p.uuid {
			cm.ReplaceCharacters(e.rng, expansion)
		} else {
			cm.InsertFileSpan(expansion, e.value.File, e.value.Pos, e.rng)
		}
	}
}
