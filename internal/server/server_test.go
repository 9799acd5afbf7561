package server_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mattkinnersley/shub-jobref/internal/hubstorage"
	"github.com/mattkinnersley/shub-jobref/internal/server"
	"github.com/mattkinnersley/shub-jobref/internal/state"
)

func seedStore(t *testing.T) *state.Store {
	t.Helper()
	store := state.NewStore()
	store.SaveProject(&state.Project{ID: "1", Name: "demo"})
	store.SaveProject(&state.Project{ID: "5", Name: "other"})
	jobs := []*state.Job{
		{Key: "1/2/3", Spider: "example", Secret: "authstr", State: state.StateRunning,
			Metadata: map[string]any{"priority": 2.0}},
		{Key: "5/1/1", Spider: "other", Secret: "s3cret"},
	}
	for _, j := range jobs {
		if err := store.SaveJob(j); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func startTestServer(t *testing.T, store *state.Store, requireAuth bool) (string, func()) {
	t.Helper()

	srv := server.New(store, requireAuth)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}

	go srv.Serve(lis)

	addr := lis.Addr().String()

	return addr, func() {
		srv.Stop()
	}
}

func newClient(t *testing.T, addr, auth string) *hubstorage.Client {
	t.Helper()
	client, err := hubstorage.New(hubstorage.Options{Endpoint: addr, Auth: auth})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGetProjectAndJob(t *testing.T) {
	addr, cleanup := startTestServer(t, seedStore(t), true)
	defer cleanup()

	client := newClient(t, addr, "1/2/3:authstr")
	ctx := context.Background()

	project, err := client.GetProject(ctx, "1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if project.ID != "1" || project.Name != "demo" {
		t.Errorf("unexpected project: %+v", project)
	}

	job, err := project.GetJob(ctx, 2, 3)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Key != "1/2/3" || job.Spider != "example" || job.State != "running" {
		t.Errorf("unexpected job: %+v", job)
	}
	if job.Metadata["priority"] != 2.0 {
		t.Errorf("unexpected metadata: %v", job.Metadata)
	}
}

func TestUpdateJob(t *testing.T) {
	store := seedStore(t)
	addr, cleanup := startTestServer(t, store, true)
	defer cleanup()

	client := newClient(t, addr, "1/2/3:authstr")
	ctx := context.Background()

	project, err := client.GetProject(ctx, "1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	job, err := project.GetJob(ctx, 2, 3)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}

	if err := job.Update(ctx, map[string]any{"close_reason": "finished"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if job.Metadata["close_reason"] != "finished" {
		t.Errorf("local metadata not updated: %v", job.Metadata)
	}

	stored, err := store.GetJob("1/2/3")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Metadata["close_reason"] != "finished" || stored.Metadata["priority"] != 2.0 {
		t.Errorf("unexpected stored metadata: %v", stored.Metadata)
	}
}

func TestNotFound(t *testing.T) {
	addr, cleanup := startTestServer(t, seedStore(t), false)
	defer cleanup()

	client := newClient(t, addr, "")
	ctx := context.Background()

	if _, err := client.GetProject(ctx, "42"); !errors.Is(err, hubstorage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for project, got %v", err)
	}

	project, err := client.GetProject(ctx, "1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if _, err := project.GetJob(ctx, 9, 9); !errors.Is(err, hubstorage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for job, got %v", err)
	}
}

func TestAuthRequired(t *testing.T) {
	addr, cleanup := startTestServer(t, seedStore(t), true)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name string
		auth string
		code codes.Code
	}{
		{"missing", "", codes.Unauthenticated},
		{"wrong secret", "1/2/3:nope", codes.Unauthenticated},
		{"unknown job", "1/2/99:authstr", codes.Unauthenticated},
		{"other project", "5/1/1:s3cret", codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, addr, tt.auth)
			_, err := client.GetProject(ctx, "1")
			if status.Code(errors.Unwrap(err)) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}
