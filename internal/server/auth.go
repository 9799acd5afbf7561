package server

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mattkinnersley/shub-jobref/internal/hubstorage"
	"github.com/mattkinnersley/shub-jobref/internal/jobkey"
	"github.com/mattkinnersley/shub-jobref/internal/state"
)

type callerKey struct{}

// authInterceptor resolves the calling job from its basic auth and rejects
// calls whose secret does not match the stored job.
func authInterceptor(store *state.Store) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if v := md.Get("authorization"); len(v) > 0 {
			header = v[0]
		}
		auth, ok := hubstorage.ParseBasicAuth(header)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing job credentials")
		}
		key, secret, err := jobkey.SplitAuth(auth)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "%v", err)
		}
		job, err := store.GetJob(key.String())
		if err != nil || subtle.ConstantTimeCompare([]byte(job.Secret), []byte(secret)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid job credentials")
		}
		return handler(context.WithValue(ctx, callerKey{}, key), req)
	}
}

// checkProject rejects access to a project other than the caller's own.
// Calls without an authenticated caller are allowed.
func checkProject(ctx context.Context, projectID string) error {
	caller, ok := ctx.Value(callerKey{}).(jobkey.Key)
	if !ok {
		return nil
	}
	if caller.ProjectKey() != projectID {
		return status.Errorf(codes.PermissionDenied, "job %s may not access project %s", caller, projectID)
	}
	return nil
}

func requestID(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(hubstorage.RequestIDHeader); len(v) > 0 {
		return v[0]
	}
	return ""
}
