// Package compiler lowers compilation units and assembles the target text
// of a program together with every module it loads.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/config"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/lower"
	"github.com/funvibe/yjs/internal/modules"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

var log = commonlog.GetLogger("yjs.compiler")

// Options configure a Compiler.
type Options struct {
	Loader modules.SourceLoader
	// Cache is shared by every compilation of the process. A new cache is
	// created when nil.
	Cache *modules.Cache
	// Disk keeps lowered modules between runs. May be nil.
	Disk modules.Store
	// Preload names modules whose fields are bound in every unit.
	Preload     []string
	HostObjects []string
}

// Compiler turns units into target text. It is safe for concurrent use.
type Compiler struct {
	opts  Options
	cache *modules.Cache
}

// Result is a compiled unit.
type Result struct {
	Name string
	Text string
	// Type is the type of the unit as given by the front end.
	Type     typesystem.Type
	Warnings []*diagnostics.DiagnosticError
	// Modules lists the loaded modules in output order.
	Modules []string
}

func New(opts Options) *Compiler {
	c := &Compiler{opts: opts, cache: opts.Cache}
	if c.cache == nil {
		c.cache = modules.NewCache()
	}
	return c
}

// Cache returns the module cache of c.
func (c *Compiler) Cache() *modules.Cache {
	return c.cache
}

// Compile loads and compiles the named unit.
func (c *Compiler) Compile(ctx context.Context, name string) (*Result, error) {
	if c.opts.Loader == nil {
		return nil, fmt.Errorf("compile %s: no source loader", name)
	}
	src, err := c.opts.Loader.LoadUnit(name)
	if err != nil {
		return nil, notFound(name, err)
	}
	return c.CompileSource(ctx, src)
}

// CompileUnit compiles an already decoded unit.
func (c *Compiler) CompileUnit(ctx context.Context, unit *ast.Unit) (*Result, error) {
	return c.CompileSource(ctx, &modules.Source{Unit: unit})
}

// CompileSource compiles src. A module unit is lowered through the module
// cache, so later compilations loading it reuse the result.
func (c *Compiler) CompileSource(ctx context.Context, src *modules.Source) (*Result, error) {
	return c.compile(ctx, src, nil)
}

// Step describes a program evaluated as one step of an interactive
// session.
type Step struct {
	// Var receives the value of the program.
	Var string
	// Scope holds the values of earlier steps. Their fields are bound like
	// those of preloaded modules, later entries shadowing earlier ones.
	Scope []*lower.Module
}

// CompileStep compiles a program whose value is stored in step.Var instead
// of being discarded.
func (c *Compiler) CompileStep(ctx context.Context, unit *ast.Unit, step *Step) (*Result, error) {
	if unit.IsModule {
		return nil, fmt.Errorf("compile %s: a module cannot be a step", unit.Name)
	}
	return c.compile(ctx, &modules.Source{Unit: unit}, step)
}

func (c *Compiler) compile(ctx context.Context, src *modules.Source, step *Step) (*Result, error) {
	r := &run{
		c:       c,
		ctx:     ctx,
		session: c.cache.NewSession(),
		sink:    &diagnostics.Sink{},
		top:     src,
	}
	unit := src.Unit
	log.Debugf("session %s: compiling %s", r.session.ID, unit.Name)

	if err := r.loadPreload(); err != nil {
		return nil, err
	}
	visible := r.preload
	if step != nil {
		visible = append(append([]*lower.Module(nil), r.preload...), step.Scope...)
	}

	var (
		roots = append([]string(nil), r.preloadNames...)
		main  string
	)
	switch {
	case unit.IsModule:
		e, err := r.entry(unit.Name, token.Token{})
		if err != nil {
			return nil, err
		}
		roots = append(roots, e.Name)
		main = e.Var + ";\n"
	default:
		rs := &resolver{r: r}
		block, err := lower.Unit(unit, r.options(rs, visible))
		if err != nil {
			return nil, err
		}
		roots = append(roots, rs.deps...)
		if step != nil {
			block.Close()
			main = wrap(step.Var, jsir.RenderStatements(block))
		} else {
			main = jsir.RenderStatements(block)
		}
	}

	res := &Result{Name: unit.Name, Type: unit.Type, Warnings: r.sink.Warnings}
	var b strings.Builder
	preambleDone := false
	pending := map[string]bool{}
	for _, n := range r.preloadNames {
		pending[n] = true
	}
	preamble := func() {
		if !preambleDone {
			b.WriteString(jsir.RenderStatements(lower.Preamble(visible)))
			preambleDone = true
		}
	}
	for _, e := range c.cache.Order(roots) {
		if len(pending) == 0 {
			preamble()
		}
		b.WriteString(wrap(e.Var, e.Code))
		delete(pending, e.Name)
		res.Modules = append(res.Modules, e.Name)
	}
	preamble()
	b.WriteString(config.MainMarker)
	b.WriteByte('\n')
	b.WriteString(main)
	res.Text = b.String()

	log.Infof("compiled %s (%d modules, %d warnings)", unit.Name, len(res.Modules), len(res.Warnings))
	return res, nil
}

// wrap returns the declaration of v as the value of a function body.
func wrap(v, body string) string {
	return fmt.Sprintf("var %s = (function() {\n%s}());\n", v, body)
}

// run is the state of one compilation.
type run struct {
	c       *Compiler
	ctx     context.Context
	session *modules.Session
	sink    *diagnostics.Sink
	// top is the unit being compiled, used instead of loading it when it
	// is a module.
	top          *modules.Source
	preload      []*lower.Module
	preloadNames []string
	// warned holds the modules whose warnings were reported.
	warned map[string]bool
}

func (r *run) loadPreload() error {
	for _, name := range r.c.opts.Preload {
		e, err := r.entry(name, token.Token{})
		if err != nil {
			return fmt.Errorf("preload %s: %w", name, err)
		}
		r.preload = append(r.preload, descriptor(e))
		r.preloadNames = append(r.preloadNames, e.Name)
	}
	return nil
}

// preloadFor returns the preloaded modules visible while lowering a module.
// A preloaded module and its dependencies see only the modules preloaded
// before it.
func (r *run) preloadFor() []*lower.Module {
	for _, key := range r.session.Building() {
		if i := indexFold(r.c.opts.Preload, key); i >= 0 && i < len(r.preload) {
			return r.preload[:i]
		}
	}
	return r.preload
}

func indexFold(list []string, s string) int {
	for i, v := range list {
		if modules.Canonical(v) == s {
			return i
		}
	}
	return -1
}

func (r *run) options(rs *resolver, preload []*lower.Module) lower.Options {
	return lower.Options{
		Resolver:    rs,
		Preload:     preload,
		Warnings:    r.sink,
		HostObjects: r.c.opts.HostObjects,
	}
}

// entry returns the named module and reports its warnings once per run,
// whichever compilation lowered it.
func (r *run) entry(name string, tok token.Token) (*modules.Entry, error) {
	e, err := r.c.cache.Get(r.ctx, r.session, name, tok, r.build)
	if err != nil {
		return nil, err
	}
	if len(e.Warnings) > 0 && !r.warned[e.Name] {
		if r.warned == nil {
			r.warned = map[string]bool{}
		}
		r.warned[e.Name] = true
		r.sink.Warnings = append(r.sink.Warnings, e.Warnings...)
	}
	return e, nil
}

func descriptor(e *modules.Entry) *lower.Module {
	return &lower.Module{Name: e.Name, Var: jsir.NewSym(e.Var, ""), Type: e.Type}
}

func notFound(name string, err error) error {
	if errors.Is(err, modules.ErrNotFound) {
		return diagnostics.Errorf(diagnostics.ErrM001, token.Token{}, "Module %s not found", name)
	}
	return err
}

// build lowers a module. It is called by the cache at most once per
// module.
func (r *run) build(ctx context.Context, s *modules.Session, name string) (*modules.Entry, error) {
	src, err := r.source(name)
	if err != nil {
		return nil, err
	}
	unit := src.Unit
	key := modules.Canonical(name)
	if !unit.IsModule {
		return nil, diagnostics.Errorf(diagnostics.ErrM001, token.Token{}, "%s is not a module", name)
	}
	if modules.Canonical(unit.Name) != key {
		return nil, diagnostics.Errorf(diagnostics.ErrM001, token.Token{}, "Found %s instead of %s", unit.Name, name)
	}
	var warnings []*diagnostics.DiagnosticError
	if modules.Deprecated(unit.CompilerVersion) {
		w := diagnostics.Errorf(diagnostics.WarnW002, token.Token{},
			"The `%s' module is compiled with pre-%s version of the compiler and might not work with newer standard library",
			unit.Name, config.DeprecatedBefore)
		w.File = src.Path
		warnings = append(warnings, w)
	}

	if e := r.fromDisk(key, src); e != nil {
		e.Warnings = warnings
		return e, nil
	}

	rs := &resolver{r: r}
	block, err := lower.Unit(unit, r.options(rs, r.preloadFor()))
	if err != nil {
		return nil, err
	}
	block.Close()
	e := &modules.Entry{
		Name:            key,
		Var:             lower.ModuleVar(key).Name,
		Type:            unit.Type,
		Code:            jsir.RenderStatements(block),
		Deps:            rs.deps,
		CompilerVersion: unit.CompilerVersion,
		Digest:          src.Digest,
		Warnings:        warnings,
	}
	r.toDisk(e)
	log.Debugf("lowered module %s", key)
	return e, nil
}

func (r *run) source(name string) (*modules.Source, error) {
	if r.top != nil && r.top.Unit.IsModule && modules.Canonical(r.top.Unit.Name) == modules.Canonical(name) {
		return r.top, nil
	}
	if r.c.opts.Loader == nil {
		return nil, diagnostics.Errorf(diagnostics.ErrM001, token.Token{}, "Module %s not found", name)
	}
	src, err := r.c.opts.Loader.LoadUnit(name)
	if err != nil {
		return nil, notFound(name, err)
	}
	return src, nil
}

// fromDisk returns the stored module when it and every dependency are
// unchanged.
func (r *run) fromDisk(key string, src *modules.Source) *modules.Entry {
	if r.c.opts.Disk == nil || src.Digest == "" {
		return nil
	}
	e, deps, ok := r.c.opts.Disk.Lookup(key, src.Digest)
	if !ok {
		return nil
	}
	for dep, digest := range deps {
		de, err := r.entry(dep, token.Token{})
		if err != nil || de.Digest != digest {
			log.Debugf("stored module %s is stale: dependency %s changed", key, dep)
			return nil
		}
	}
	log.Debugf("module %s read from %s", key, r.c.opts.Disk.Location())
	return e
}

func (r *run) toDisk(e *modules.Entry) {
	if r.c.opts.Disk == nil || e.Digest == "" {
		return
	}
	deps := map[string]string{}
	for _, d := range e.Deps {
		de, ok := r.c.cache.Lookup(d)
		if !ok || de.Digest == "" {
			return
		}
		deps[d] = de.Digest
	}
	if err := r.c.opts.Disk.Store(e, deps); err != nil {
		log.Warningf("storing module %s: %s", e.Name, err)
	}
}

// resolver serves the module and script requests of one lowering run.
type resolver struct {
	r    *run
	deps []string
}

func (rs *resolver) ResolveModule(name string, tok token.Token) (*lower.Module, error) {
	e, err := rs.r.entry(name, tok)
	if err != nil {
		return nil, err
	}
	for _, d := range rs.deps {
		if d == e.Name {
			return descriptor(e), nil
		}
	}
	rs.deps = append(rs.deps, e.Name)
	return descriptor(e), nil
}

func (rs *resolver) ReadScript(name string) (string, error) {
	if rs.r.c.opts.Loader == nil {
		return "", diagnostics.Errorf(diagnostics.ErrM001, token.Token{}, "Script %s not found", name)
	}
	return rs.r.c.opts.Loader.ReadScript(name)
}
