package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/yjs/internal/backend"
	"github.com/funvibe/yjs/internal/compiler"
	"github.com/funvibe/yjs/internal/config"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/modules"
	"github.com/funvibe/yjs/internal/pipeline"
	"github.com/funvibe/yjs/internal/prettyprinter"
	"github.com/funvibe/yjs/internal/service"
	"github.com/funvibe/yjs/internal/watch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, errHelp) {
		fmt.Printf(usage, filepath.ListSeparator)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "yjs: %s\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "yjs: %s\n", err)
		}
		os.Exit(1)
	}
}

var errReported = errors.New("compilation failed")

func run(ctx context.Context, opts *options) error {
	proj, err := loadProject(opts)
	if err != nil {
		return err
	}
	proj.ConfigureLogging(opts.verbosity)

	dirs := proj.SourceDirs()
	loader := modules.NewDirLoader(dirs...)
	copts := compiler.Options{Loader: loader, Preload: proj.Preload}
	switch {
	case proj.CacheDB != "":
		db, err := modules.OpenSQLCache(proj.Resolve(proj.CacheDB))
		if err != nil {
			return err
		}
		defer db.Close()
		copts.Disk = db
	case proj.CacheDir != "":
		if copts.Disk, err = modules.NewDiskCache(proj.Resolve(proj.CacheDir)); err != nil {
			return err
		}
	}
	c := compiler.New(copts)

	if opts.server {
		return serve(ctx, c, proj)
	}

	d := &driver{
		opts:     opts,
		compiler: c,
		loader:   loader,
		writer:   writerFor(opts, proj),
		report:   newReporter(os.Stderr),
	}
	ok := d.compileAll(ctx)
	if !opts.watch {
		if !ok {
			return errReported
		}
		return nil
	}

	w, err := watch.New(c.Cache(), dirs, func(ctx context.Context, units []string) {
		d.compileAll(ctx)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadProject finds the project file above the working directory and
// applies the command line over it.
func loadProject(opts *options) (*config.Project, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path, err := config.FindProject(wd)
	if err != nil {
		return nil, err
	}
	proj := config.Default(wd)
	if path != "" {
		if proj, err = config.LoadProject(path); err != nil {
			return nil, err
		}
	}
	if len(opts.sourcePath) > 0 {
		proj.SourcePath = nil
		for _, sp := range opts.sourcePath {
			abs, err := filepath.Abs(sp)
			if err != nil {
				return nil, err
			}
			proj.SourcePath = append(proj.SourcePath, abs)
		}
	}
	return proj, nil
}

func writerFor(opts *options, proj *config.Project) backend.CodeWriter {
	switch {
	case opts.outDir != "":
		return backend.ToFile{Dir: opts.outDir}
	case opts.print || proj.OutDir == "":
		return &backend.Stream{W: os.Stdout}
	}
	return backend.ToFile{Dir: proj.Resolve(proj.OutDir)}
}

// driver compiles the inputs named on the command line.
type driver struct {
	opts     *options
	compiler *compiler.Compiler
	loader   *modules.DirLoader
	writer   backend.CodeWriter
	report   *reporter
	out      sync.Mutex
}

// compileAll compiles every input concurrently and reports whether all
// of them succeeded.
func (d *driver) compileAll(ctx context.Context) bool {
	g, ctx := errgroup.WithContext(ctx)
	failed := false
	var mu sync.Mutex
	fail := func() {
		mu.Lock()
		failed = true
		mu.Unlock()
	}

	if d.opts.expr != "" {
		g.Go(func() error {
			if !d.compile(ctx, "expr.yjs.yaml", []byte(d.opts.expr)) {
				fail()
			}
			return nil
		})
	}
	for _, input := range d.opts.inputs {
		g.Go(func() error {
			path, err := d.resolve(input)
			if err != nil {
				d.report.errors(err)
				fail()
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				d.report.errors(err)
				fail()
				return nil
			}
			if !d.compile(ctx, path, data) {
				fail()
			}
			return nil
		})
	}
	g.Wait()
	return !failed
}

// resolve maps an input to a document path; inputs that are not documents
// are unit names looked up on the source path.
func (d *driver) resolve(input string) (string, error) {
	if modules.IsDocument(input) {
		return input, nil
	}
	return d.loader.Find(input)
}

func (d *driver) compile(ctx context.Context, path string, data []byte) bool {
	start := time.Now()
	stages := []pipeline.Processor{pipeline.DecodeProcessor{}}
	if d.opts.parseTree {
		stages = append(stages, pipeline.ProcessorFunc(d.printTree))
	}
	stages = append(stages, compiler.NewProcessor(d.compiler))
	if d.opts.showType {
		stages = append(stages, pipeline.ProcessorFunc(d.printType))
	}
	if d.opts.emits() {
		stages = append(stages, backend.NewEmitProcessor(d.writer))
	}

	pc := pipeline.New(stages...).Run(pipeline.NewPipelineContext(path, data).WithContext(ctx))
	d.report.warnings(pc.Warnings)
	if pc.Failed() {
		d.report.errors(pc.Errors...)
		return false
	}
	if pc.Written != "" {
		d.report.info("%s -> %s (%s)", pc.Name(), pc.Written, time.Since(start).Round(time.Millisecond))
	}
	return true
}

func (d *driver) printTree(pc *pipeline.PipelineContext) *pipeline.PipelineContext {
	if pc.Unit != nil {
		d.stdout(prettyprinter.Print(pc.Unit))
	}
	return pc
}

func (d *driver) printType(pc *pipeline.PipelineContext) *pipeline.PipelineContext {
	if pc.Failed() || pc.Unit == nil {
		return pc
	}
	t := "()"
	if pc.Type != nil {
		t = pc.Type.String()
	}
	d.stdout(fmt.Sprintf("%s is %s\n", pc.Unit.Name, t))
	return pc
}

func (d *driver) stdout(text string) {
	d.out.Lock()
	defer d.out.Unlock()
	io.WriteString(os.Stdout, text)
}

// serve runs the compile service until ctx is done.
func serve(ctx context.Context, c *compiler.Compiler, proj *config.Project) error {
	svc := service.New(c)
	stopSweeper := svc.StartSweeper(time.Minute, config.SessionTTL)
	defer stopSweeper()

	grpcAddr, httpAddr := proj.Server.GRPCAddr, proj.Server.HTTPAddr
	if grpcAddr == "" && httpAddr == "" {
		grpcAddr, httpAddr = config.DefaultGRPCAddr, config.DefaultHTTPAddr
	}
	g, ctx := errgroup.WithContext(ctx)
	if grpcAddr != "" {
		g.Go(func() error { return service.ServeGRPC(ctx, svc, grpcAddr) })
	}
	if httpAddr != "" {
		g.Go(func() error { return service.ServeHTTP(ctx, svc, httpAddr) })
	}
	return g.Wait()
}

// reporter prints diagnostics, colored when w is a terminal.
type reporter struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

func newReporter(f *os.File) *reporter {
	return &reporter{
		w:     f,
		color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

func (r *reporter) paint(color, text string) string {
	if !r.color {
		return text
	}
	return color + text + colorReset
}

func (r *reporter) errors(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, err := range errs {
		fmt.Fprintln(r.w, r.paint(colorRed, err.Error()))
	}
}

func (r *reporter) warnings(ws []*diagnostics.DiagnosticError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range ws {
		fmt.Fprintln(r.w, r.paint(colorYellow, w.Error()))
	}
}

func (r *reporter) info(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format+"\n", args...)
}
