// Package hubstorage implements the job storage service over gRPC: the
// service description shared by client and server, and the client used by
// running jobs to reach their project and job records.
//
// Messages are protobuf well-known types so no generated code is needed.
// Records travel as structpb.Struct with the field names below.
package hubstorage

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "hubstorage.v1.Storage"

	GetProjectMethod = "/" + ServiceName + "/GetProject"
	GetJobMethod     = "/" + ServiceName + "/GetJob"
	UpdateJobMethod  = "/" + ServiceName + "/UpdateJob"

	RequestIDHeader = "x-request-id"
)

// Record field names.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldKey      = "key"
	FieldSpider   = "spider"
	FieldState    = "state"
	FieldMetadata = "metadata"
)

// StorageServer is the server side of the storage service.
type StorageServer interface {
	// GetProject takes a project id and returns the project record.
	GetProject(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetJob takes a job key and returns the job record.
	GetJob(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// UpdateJob merges the "metadata" of the request into the job named by "key".
	UpdateJob(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterStorageServer registers srv on s.
func RegisterStorageServer(s grpc.ServiceRegistrar, srv StorageServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProject", Handler: getProjectHandler},
		{MethodName: "GetJob", Handler: getJobHandler},
		{MethodName: "UpdateJob", Handler: updateJobHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hubstorage/v1/storage.proto",
}

func getProjectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageServer).GetProject(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProjectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorageServer).GetProject(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getJobHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetJobMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorageServer).GetJob(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func updateJobHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageServer).UpdateJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpdateJobMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorageServer).UpdateJob(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
