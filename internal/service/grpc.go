package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/yjs/internal/diagnostics"
)

//go:embed yjs.proto
var protoSource string

// ServiceName is the full name of the compile service.
const ServiceName = "yjs.v1.CompileService"

// Descriptor parses the embedded service definition.
func Descriptor() (*desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"yjs.proto": protoSource}),
	}
	fds, err := parser.ParseFiles("yjs.proto")
	if err != nil {
		return nil, fmt.Errorf("parsing service definition: %w", err)
	}
	sd := fds[0].FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in definition", ServiceName)
	}
	return sd, nil
}

type unaryFunc func(ctx context.Context, in *dynamic.Message, out *dynamic.Message) error

// grpcHandler serves the methods of the service descriptor with dynamic
// messages.
type grpcHandler struct {
	svc     *Service
	sd      *desc.ServiceDescriptor
	methods map[string]unaryFunc
}

// RegisterGRPC adds the compile service to server.
func RegisterGRPC(server *grpc.Server, svc *Service) error {
	sd, err := Descriptor()
	if err != nil {
		return err
	}
	h := &grpcHandler{svc: svc, sd: sd}
	h.methods = map[string]unaryFunc{
		"Compile": h.compile,
		"Repl":    h.repl,
		"Close":   h.close,
	}

	gd := &grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    sd.GetFile().GetName(),
	}
	for _, method := range sd.GetMethods() {
		md := method
		if _, ok := h.methods[md.GetName()]; !ok {
			return fmt.Errorf("no handler for %s", md.GetFullyQualifiedName())
		}
		gd.Methods = append(gd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*grpcHandler).handleUnary(ctx, md, dec, interceptor)
			},
		})
	}
	server.RegisterService(gd, h)
	return nil
}

func (h *grpcHandler) handleUnary(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := dynamic.NewMessage(md.GetInputType())
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		out := dynamic.NewMessage(md.GetOutputType())
		if err := h.methods[md.GetName()](ctx, req.(*dynamic.Message), out); err != nil {
			return nil, grpcStatus(err)
		}
		return out, nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: h, FullMethod: "/" + ServiceName + "/" + md.GetName()}
	return interceptor(ctx, in, info, call)
}

func (h *grpcHandler) compile(ctx context.Context, in, out *dynamic.Message) error {
	format, err := ParseFormat(stringField(in, "format"))
	if err != nil {
		return err
	}
	r, err := h.svc.Compile(ctx, bytesField(in, "document"), format)
	if err != nil {
		return err
	}
	out.SetFieldByName("code", r.Code)
	out.SetFieldByName("type", r.Type)
	out.SetFieldByName("warnings", r.Warnings)
	out.SetFieldByName("modules", r.Modules)
	return nil
}

func (h *grpcHandler) repl(ctx context.Context, in, out *dynamic.Message) error {
	format, err := ParseFormat(stringField(in, "format"))
	if err != nil {
		return err
	}
	seq := int64(-1)
	if check, _ := in.GetFieldByName("check_seq").(bool); check {
		seq, _ = in.GetFieldByName("seq").(int64)
	}
	r, err := h.svc.Repl(ctx, stringField(in, "session"), seq, bytesField(in, "document"), format)
	if err != nil {
		return err
	}
	out.SetFieldByName("code", r.Code)
	out.SetFieldByName("session", r.Session)
	out.SetFieldByName("seq", r.Seq)
	out.SetFieldByName("warnings", r.Warnings)
	return nil
}

func (h *grpcHandler) close(ctx context.Context, in, out *dynamic.Message) error {
	out.SetFieldByName("closed", h.svc.Close(stringField(in, "session")))
	return nil
}

func stringField(m *dynamic.Message, name string) string {
	s, _ := m.GetFieldByName(name).(string)
	return s
}

func bytesField(m *dynamic.Message, name string) []byte {
	b, _ := m.GetFieldByName(name).([]byte)
	return b
}

// grpcStatus maps service errors to status codes.
func grpcStatus(err error) error {
	var de *diagnostics.DiagnosticError
	switch {
	case errors.Is(err, ErrNoSession):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrSequence):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrNoSource), errors.Is(err, ErrFormat), errors.As(err, &de):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// ServeGRPC serves the compile service on addr until ctx is done.
func ServeGRPC(ctx context.Context, svc *Service, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := grpc.NewServer()
	if err := RegisterGRPC(server, svc); err != nil {
		lis.Close()
		return err
	}
	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()
	log.Noticef("gRPC compile service listening on %s", lis.Addr())
	return server.Serve(lis)
}
