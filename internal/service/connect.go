package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/config"
	"github.com/funvibe/yjs/internal/diagnostics"
)

// Procedure paths of the HTTP transport.
const (
	CompileProcedure = "/" + ServiceName + "/Compile"
	ReplProcedure    = "/" + ServiceName + "/Repl"
	CloseProcedure   = "/" + ServiceName + "/Close"
)

const serverHelp = "yjs compile service version: " + config.Version + `

Requests are JSON objects posted to

` + CompileProcedure + `
   {"document": "<unit>", "format": "yaml|json|cbor"}
   compile the unit and respond with the target code

` + ReplProcedure + `
   {"session": "<id>", "seq": n, "document": "<unit>"}
   start a new session when no session id is given or compile using the
   session with the given id; seq, when present, must match the session

` + CloseProcedure + `
   {"session": "<id>"}
   close the given session

CBOR documents are sent base64 encoded.
`

// Handler returns the HTTP/JSON transport of svc.
func Handler(svc *Service, opts ...connect.HandlerOption) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			doc, format, err := document(req.Msg)
			if err != nil {
				return nil, err
			}
			r, err := svc.Compile(ctx, doc, format)
			if err != nil {
				return nil, connectError(err)
			}
			return respond(map[string]any{
				"code":     r.Code,
				"type":     r.Type,
				"warnings": list(r.Warnings),
				"modules":  list(r.Modules),
			})
		}, opts...))
	mux.Handle(ReplProcedure, connect.NewUnaryHandler(ReplProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			doc, format, err := document(req.Msg)
			if err != nil {
				return nil, err
			}
			fields := req.Msg.GetFields()
			seq := int64(-1)
			if v, ok := fields["seq"]; ok {
				seq = int64(v.GetNumberValue())
			}
			r, err := svc.Repl(ctx, fields["session"].GetStringValue(), seq, doc, format)
			if err != nil {
				return nil, connectError(err)
			}
			return respond(map[string]any{
				"code":     r.Code,
				"session":  r.Session,
				"seq":      float64(r.Seq),
				"warnings": list(r.Warnings),
			})
		}, opts...))
	mux.Handle(CloseProcedure, connect.NewUnaryHandler(CloseProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			closed := svc.Close(req.Msg.GetFields()["session"].GetStringValue())
			return respond(map[string]any{"closed": closed})
		}, opts...))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, serverHelp)
	})
	return mux
}

func document(msg *structpb.Struct) ([]byte, ast.Format, error) {
	fields := msg.GetFields()
	format, err := ParseFormat(fields["format"].GetStringValue())
	if err != nil {
		return nil, 0, connect.NewError(connect.CodeInvalidArgument, err)
	}
	text := fields["document"].GetStringValue()
	if text == "" {
		return nil, 0, connect.NewError(connect.CodeInvalidArgument, ErrNoSource)
	}
	if format == ast.FormatCBOR {
		doc, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, 0, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("document: %w", err))
		}
		return doc, format, nil
	}
	return []byte(text), format, nil
}

func respond(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func list(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func connectError(err error) error {
	var de *diagnostics.DiagnosticError
	switch {
	case errors.Is(err, ErrNoSession):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrSequence):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ErrNoSource), errors.Is(err, ErrFormat), errors.As(err, &de):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// ServeHTTP serves the HTTP/JSON transport on addr until ctx is done.
func ServeHTTP(ctx context.Context, svc *Service, addr string) error {
	srv := &http.Server{Addr: addr, Handler: Handler(svc)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Noticef("HTTP compile service listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
