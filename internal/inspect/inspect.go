// Package inspect is the supervisor's optional read-only introspection
// service (component A4): a grpc.Server exposing one unary RPC,
// Inspect(Snapshot) returns (Snapshot), registered by hand-building a
// grpc.ServiceDesc instead of going through protoc-generated stubs.
// Grounded on
// _examples/funvibe-funxy/internal/evaluator/builtins_grpc.go's own
// hand-built ServiceDesc (builtinGrpcRegister) and its protoRegistry /
// protoparse wiring, narrowed to a single fixed method instead of a
// dynamic per-proto registry, since inspect only ever serves one shape of
// request.
package inspect

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jhump/protoreflect/desc/protoparse"

	"github.com/AdrienChampion/kino/internal/kbase"
)

// schemaDoc is not served to clients; it exists so the service can parse a
// real .proto schema at startup with protoparse and log its descriptor,
// documenting the Struct shape Inspect actually produces without requiring
// a protoc step to keep it in sync.
const schemaDoc = `syntax = "proto3";
package kino.inspect;

// Snapshot mirrors kbase's tables: open/proved/disproved property symbols,
// the k-true table, and a per-system invariant count. Served as a
// google.protobuf.Struct rather than this generated type — see
// SPEC_FULL.md's A4 section for why.
message Snapshot {
  repeated string open_properties = 1;
  map<string, int64> k_true = 2;
  map<string, int64> invariant_counts = 3;
}

service Inspector {
  rpc Inspect(Snapshot) returns (Snapshot);
}
`

// serviceName is the fully-qualified name ServiceDesc registers under and
// the descriptor lookup after parsing schemaDoc resolves to, confirming
// the two stay in sync.
const serviceName = "kino.inspect.Inspector"

// logSchema parses the embedded schema documentation and logs the
// resulting service descriptor's full name. It never validates wire
// traffic — Inspect's actual request/response are plain structpb.Struct
// values — this is descriptive logging only, grounded on
// builtinGrpcLoadProto's protoparse.Parser{} usage.
func logSchema() {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"inspect.proto": schemaDoc,
		}),
	}
	fds, err := parser.ParseFiles("inspect.proto")
	if err != nil {
		log.Printf("inspect: schema parse failed (non-fatal, logging only): %v", err)
		return
	}
	for _, fd := range fds {
		if sd := fd.FindService(serviceName); sd != nil {
			log.Printf("inspect: serving %s", sd.GetFullyQualifiedName())
			return
		}
	}
	log.Printf("inspect: schema parsed but %s not found in it", serviceName)
}

// Service is the supervisor's read-only introspection endpoint. It holds
// no state of its own beyond a handle on the knowledge base it reads from.
// sessionID tags every snapshot this Service serves so a client polling
// across a supervisor restart can tell the runs apart.
type Service struct {
	store     *kbase.Store
	sessionID string
}

// NewService builds a Service reading straight from store, tagged with a
// fresh session identifier.
func NewService(store *kbase.Store) *Service {
	return &Service{store: store, sessionID: uuid.NewString()}
}

// snapshot builds the Struct Inspect responds with: the session id, open
// properties, and per-system invariant counts.
//
// Invariant counts are only reported for the systems the caller names in
// request.Fields["systems"], since kbase indexes invariants by sys rather
// than exposing a "list everything" query; without that field the counts
// are empty. The k-true table is not reported, and a "properties" field in
// the request is ignored.
func (svc *Service) snapshot(req *structpb.Struct) (*structpb.Struct, error) {
	open, err := svc.store.OpenProperties()
	if err != nil {
		return nil, fmt.Errorf("inspect: open properties: %w", err)
	}

	openVals := make([]interface{}, len(open))
	for i, sym := range open {
		openVals[i] = sym
	}

	invariantCounts := map[string]interface{}{}
	if req != nil {
		if syms := req.Fields["systems"].GetListValue(); syms != nil {
			for _, v := range syms.GetValues() {
				name := v.GetStringValue()
				if name == "" {
					continue
				}
				n, err := svc.store.InvariantCountByName(name)
				if err != nil {
					return nil, fmt.Errorf("inspect: invariant count for %q: %w", name, err)
				}
				invariantCounts[name] = float64(n)
			}
		}
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		"session_id":       svc.sessionID,
		"open_properties":  openVals,
		"invariant_counts": invariantCounts,
	})
	if err != nil {
		return nil, fmt.Errorf("inspect: building response struct: %w", err)
	}
	return resp, nil
}

// Inspect is the service's sole RPC method, invoked through the hand-built
// ServiceDesc below rather than a generated server interface.
func (svc *Service) Inspect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return svc.snapshot(req)
}

// serviceDesc is built by hand, matching builtinGrpcRegister's pattern of
// constructing a grpc.ServiceDesc without a protoc-generated
// _grpc.pb.go: one Methods entry, a Handler closure that decodes a
// structpb.Struct and calls through to the Service.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Inspect",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				svc := srv.(*Service)
				if interceptor == nil {
					return svc.Inspect(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: svc, FullMethod: "/" + serviceName + "/Inspect"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return svc.Inspect(ctx, req.(*structpb.Struct))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inspect.proto",
}

// Server wraps a grpc.Server bound to a listener, for the supervisor to
// start and stop alongside its workers.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
}

// Listen binds addr and builds a Server with svc registered against it.
// The caller starts it with Serve and stops it with Stop; connections are
// not accepted until Serve is called.
func Listen(addr string, svc *Service) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("inspect: listen on %s: %w", addr, err)
	}
	logSchema()
	gs := grpc.NewServer()
	gs.RegisterService(&serviceDesc, svc)
	return &Server{grpcServer: gs, listener: lis}, nil
}

// Serve blocks, accepting connections until Stop is called.
func (s *Server) Serve() error { return s.grpcServer.Serve(s.listener) }

// Addr is the address the server is bound to.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Stop gracefully shuts the server down, waiting for in-flight RPCs.
func (s *Server) Stop() { s.grpcServer.GracefulStop() }
