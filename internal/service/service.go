// Package service exposes the compiler over the network: one-shot
// compilation and interactive sessions whose steps see the bindings of
// earlier steps.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/compiler"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/lower"
	"github.com/funvibe/yjs/internal/modules"
	"github.com/funvibe/yjs/internal/typesystem"
)

var log = commonlog.GetLogger("yjs.service")

var (
	ErrNoSession = errors.New("no session")
	ErrSequence  = errors.New("wrong sequence number")
	ErrNoSource  = errors.New("no source")
	ErrFormat    = errors.New("unknown document format")
)

// ResultName is the binding receiving the value of a step that ends with
// an expression.
const ResultName = "it"

// Reply is the outcome of a compile or step request.
type Reply struct {
	Code     string
	Type     string
	Warnings []string
	Modules  []string
	Session  string
	Seq      int64
}

// Service compiles documents for remote clients.
type Service struct {
	compiler *compiler.Compiler
	flights  singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(c *compiler.Compiler) *Service {
	return &Service{compiler: c, sessions: make(map[string]*Session)}
}

// ParseFormat maps a format name to a document format.
func ParseFormat(name string) (ast.Format, error) {
	switch strings.ToLower(name) {
	case "", "yaml", "yml", "json":
		return ast.FormatYAML, nil
	case "cbor":
		return ast.FormatCBOR, nil
	}
	return 0, fmt.Errorf("%w %q", ErrFormat, name)
}

func decode(doc []byte, format ast.Format) (*modules.Source, error) {
	if len(doc) == 0 {
		return nil, ErrNoSource
	}
	path := "request.yjs.yaml"
	if format == ast.FormatCBOR {
		path = "request.yjs.cbor"
	}
	return modules.DecodeSource(doc, path)
}

// Compile compiles one document. Identical requests in flight share one
// compilation.
func (s *Service) Compile(ctx context.Context, doc []byte, format ast.Format) (*Reply, error) {
	src, err := decode(doc, format)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%d:%s", format, src.Digest)
	v, err, shared := s.flights.Do(key, func() (any, error) {
		res, err := s.compiler.CompileSource(ctx, src)
		if err != nil {
			return nil, err
		}
		return reply(res), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debugf("compile of %s shared", src.Unit.Name)
	}
	r := *v.(*Reply)
	return &r, nil
}

func reply(res *compiler.Result) *Reply {
	r := &Reply{Code: res.Text, Modules: res.Modules}
	if res.Type != nil {
		r.Type = res.Type.String()
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

// Session is an interactive compilation context.
type Session struct {
	ID string

	mu       sync.Mutex
	seq      int64
	scope    []*lower.Module
	lastUsed atomic.Int64
}

// Seq returns the number of steps compiled so far.
func (ss *Session) Seq() int64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.seq
}

func (ss *Session) touch() {
	ss.lastUsed.Store(time.Now().UnixNano())
}

func (ss *Session) stepVar(n int64) string {
	return fmt.Sprintf("%sr%s_%d", jsir.TempPrefix, strings.ReplaceAll(ss.ID, "-", "")[:12], n)
}

// Open starts a session.
func (s *Service) Open() *Session {
	ss := &Session{ID: uuid.NewString()}
	ss.touch()
	s.mu.Lock()
	s.sessions[ss.ID] = ss
	s.mu.Unlock()
	log.Infof("session %s opened", ss.ID)
	return ss
}

// Get returns an open session.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	return ss, ok
}

// Close ends a session and reports whether it was open.
func (s *Service) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	if ok {
		log.Infof("session %s closed", id)
	}
	return ok
}

// Repl compiles one step of the session id, opening a session when id is
// empty. When seq is not negative it must equal the number of steps the
// session has compiled.
func (s *Service) Repl(ctx context.Context, id string, seq int64, doc []byte, format ast.Format) (*Reply, error) {
	var ss *Session
	if id == "" {
		ss = s.Open()
	} else {
		var ok bool
		if ss, ok = s.Get(id); !ok {
			return nil, fmt.Errorf("%w for id: %s", ErrNoSession, id)
		}
	}
	ss.touch()

	src, err := decode(doc, format)
	if err != nil {
		return nil, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if seq >= 0 && seq != ss.seq {
		return nil, fmt.Errorf("%w: got %d, session is at %d", ErrSequence, seq, ss.seq)
	}

	unit, typ := stepUnit(src.Unit, ss.seq)
	v := ss.stepVar(ss.seq)
	res, err := s.compiler.CompileStep(ctx, unit, &compiler.Step{Var: v, Scope: ss.scope})
	if err != nil {
		return nil, err
	}
	ss.scope = append(ss.scope, &lower.Module{Name: unit.Name, Var: jsir.NewSym(v, ""), Type: typ})
	ss.seq++

	r := reply(res)
	r.Session = ss.ID
	r.Seq = ss.seq
	return r, nil
}

// stepUnit turns a program into a step whose value is a structure of its
// top-level bindings. A trailing expression is bound to ResultName.
func stepUnit(unit *ast.Unit, seq int64) (*ast.Unit, typesystem.TRecord) {
	var stmts []ast.Expression
	if body, ok := unit.Body.(*ast.Sequence); ok {
		stmts = append(stmts, body.Statements...)
	} else if unit.Body != nil {
		stmts = []ast.Expression{unit.Body}
	}

	rec := typesystem.TRecord{Fields: map[string]typesystem.Type{}}
	var names []string
	export := func(name string, t typesystem.Type) {
		if t == nil {
			t = typesystem.TVar{Name: "a"}
		}
		if _, ok := rec.Fields[name]; !ok {
			names = append(names, name)
		}
		rec.Fields[name] = t
	}
	for i, st := range stmts {
		switch n := st.(type) {
		case *ast.Binding:
			export(n.Name, n.Value.GetType())
		case *ast.StructBinding:
			for _, f := range n.Fields {
				if p, ok := f.Pattern.(*ast.IdentifierPattern); ok && p.Value != "_" {
					export(p.Value, nil)
				}
			}
		case *ast.TypeDefinition, *ast.LoadModule:
		default:
			if i == len(stmts)-1 {
				stmts[i] = &ast.Binding{Token: st.GetToken(), Name: ResultName, Value: st, NoRec: true}
				export(ResultName, st.GetType())
			}
		}
	}
	if len(names) == 0 {
		stmts = append(stmts, &ast.Binding{Name: ResultName, Value: &ast.UnitLiteral{}, NoRec: true})
		export(ResultName, typesystem.TCon{Name: typesystem.Unit})
	}

	value := &ast.StructLiteral{}
	for _, name := range names {
		value.Fields = append(value.Fields, &ast.StructField{Name: name, Value: &ast.Identifier{Value: name}})
	}
	stmts = append(stmts, value)
	return &ast.Unit{
		Name:            fmt.Sprintf("repl%d", seq),
		File:            unit.File,
		CompilerVersion: unit.CompilerVersion,
		Body:            &ast.Sequence{Statements: stmts},
	}, rec
}

// Sweep closes sessions idle for longer than ttl and returns how many.
func (s *Service) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ss := range s.sessions {
		if ss.lastUsed.Load() < cutoff {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Infof("expired %d idle sessions", n)
	}
	return n
}

// StartSweeper runs Sweep every interval until the returned function is
// called.
func (s *Service) StartSweeper(interval, ttl time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
