package hubstorage

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var ErrNotFound = errors.New("not found")

// Options configures a storage client.
type Options struct {
	// Endpoint is host:port or an http(s):// URL. https dials with TLS.
	Endpoint string
	// Auth is the decoded job auth, "<jobkey>:<secret>". Empty sends no credentials.
	Auth string
	// UserAgent is prepended to the gRPC user agent when set.
	UserAgent string
}

// Client talks to the storage service.
type Client struct {
	conn *grpc.ClientConn

	closeOnce sync.Once
	closeErr  error
}

// New creates a client. The connection is established lazily on the first call.
func New(opts Options) (*Client, error) {
	target, secure, err := dialTarget(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	dialOpts := []grpc.DialOption{
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}
	if secure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if opts.Auth != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(basicAuth{token: opts.Auth, secure: secure}))
	}
	if opts.UserAgent != "" {
		dialOpts = append(dialOpts, grpc.WithUserAgent(opts.UserAgent))
	}

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client for %s: %w", opts.Endpoint, err)
	}
	slog.Debug("storage client created", "target", target, "tls", secure)
	return &Client{conn: conn}, nil
}

// GetProject fetches the project with the given id.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GetProjectMethod, wrapperspb.String(id), out); err != nil {
		return nil, wrapError(fmt.Sprintf("project %s", id), err)
	}
	return &Project{
		client: c,
		ID:     stringField(out, FieldID),
		Name:   stringField(out, FieldName),
	}, nil
}

// Close releases the connection. Calling it more than once is safe.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Project is a handle to a project record.
type Project struct {
	client *Client

	ID   string
	Name string
}

// GetJob fetches the job identified by the spider id and job counter within p.
func (p *Project) GetJob(ctx context.Context, spiderID, jobCounter int) (*Job, error) {
	key := fmt.Sprintf("%s/%d/%d", p.ID, spiderID, jobCounter)
	out := new(structpb.Struct)
	if err := p.client.conn.Invoke(ctx, GetJobMethod, wrapperspb.String(key), out); err != nil {
		return nil, wrapError(fmt.Sprintf("job %s", key), err)
	}
	return jobFromStruct(p.client, out), nil
}

// Job is a handle to a job record.
type Job struct {
	client *Client

	Key      string
	Spider   string
	State    string
	Metadata map[string]any
}

// Update merges fields into the job metadata on the server and in j.
func (j *Job) Update(ctx context.Context, fields map[string]any) error {
	meta, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldKey:      structpb.NewStringValue(j.Key),
		FieldMetadata: structpb.NewStructValue(meta),
	}}
	if err := j.client.conn.Invoke(ctx, UpdateJobMethod, req, new(emptypb.Empty)); err != nil {
		return wrapError(fmt.Sprintf("job %s", j.Key), err)
	}
	if j.Metadata == nil {
		j.Metadata = make(map[string]any, len(fields))
	}
	for k, v := range meta.AsMap() {
		j.Metadata[k] = v
	}
	return nil
}

func jobFromStruct(c *Client, s *structpb.Struct) *Job {
	job := &Job{
		client:   c,
		Key:      stringField(s, FieldKey),
		Spider:   stringField(s, FieldSpider),
		State:    stringField(s, FieldState),
		Metadata: map[string]any{},
	}
	if meta := s.GetFields()[FieldMetadata].GetStructValue(); meta != nil {
		job.Metadata = meta.AsMap()
	}
	return job
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func wrapError(what string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func dialTarget(endpoint string) (string, bool, error) {
	if endpoint == "" {
		return "", false, errors.New("storage endpoint is not set")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parsing storage endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("storage endpoint %q has no host", endpoint)
	}
	switch u.Scheme {
	case "http", "grpc":
		return u.Host, false, nil
	case "https", "grpcs":
		if u.Port() == "" {
			return net.JoinHostPort(u.Hostname(), "443"), true, nil
		}
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("unsupported storage endpoint scheme %q", u.Scheme)
	}
}

func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}

// basicAuth sends the job auth as HTTP basic credentials; the job key is the
// user and the secret the password.
type basicAuth struct {
	token  string
	secure bool
}

func (a basicAuth) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{
		"authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(a.token)),
	}, nil
}

func (a basicAuth) RequireTransportSecurity() bool {
	return a.secure
}

// ParseBasicAuth extracts the job auth from an authorization header value.
func ParseBasicAuth(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", false
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false
	}
	return string(b), true
}
