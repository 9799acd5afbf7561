package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mattkinnersley/shub-jobref/internal/hubstorage"
	"github.com/mattkinnersley/shub-jobref/internal/jobkey"
	"github.com/mattkinnersley/shub-jobref/internal/state"
)

type StorageServer struct {
	store *state.Store
}

func (s *StorageServer) GetProject(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	slog.Info("GetProject called", "id", req.GetValue(), "request_id", requestID(ctx))

	if err := checkProject(ctx, req.GetValue()); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "project not found: %s", req.GetValue())
	}

	return projectToStruct(p), nil
}

func (s *StorageServer) GetJob(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	slog.Info("GetJob called", "key", req.GetValue(), "request_id", requestID(ctx))

	key, err := jobkey.Parse(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if err := checkProject(ctx, key.ProjectKey()); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(key.String())
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "job not found: %s", key)
	}

	out, err := jobToStruct(job)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode job: %v", err)
	}
	return out, nil
}

func (s *StorageServer) UpdateJob(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	raw := req.GetFields()[hubstorage.FieldKey].GetStringValue()
	slog.Info("UpdateJob called", "key", raw, "request_id", requestID(ctx))

	key, err := jobkey.Parse(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if err := checkProject(ctx, key.ProjectKey()); err != nil {
		return nil, err
	}
	meta := req.GetFields()[hubstorage.FieldMetadata].GetStructValue()
	if err := s.store.UpdateJobMetadata(key.String(), meta.AsMap()); err != nil {
		return nil, status.Errorf(codes.NotFound, "job not found: %s", key)
	}

	return &emptypb.Empty{}, nil
}

// projectToStruct converts a Project to its wire representation.
func projectToStruct(p *state.Project) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		hubstorage.FieldID:   structpb.NewStringValue(p.ID),
		hubstorage.FieldName: structpb.NewStringValue(p.Name),
	}}
}

// jobToStruct converts a Job to its wire representation. The secret is never sent.
func jobToStruct(j *state.Job) (*structpb.Struct, error) {
	meta, err := structpb.NewStruct(j.Metadata)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		hubstorage.FieldKey:      structpb.NewStringValue(j.Key),
		hubstorage.FieldSpider:   structpb.NewStringValue(j.Spider),
		hubstorage.FieldState:    structpb.NewStringValue(j.State.String()),
		hubstorage.FieldMetadata: structpb.NewStructValue(meta),
	}}, nil
}
