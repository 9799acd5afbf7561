// Package hsref gives a running job access to its own storage records.
//
// A Ref is built once from the job environment. Everything beyond the job key
// is derived on first use and cached: the decoded auth, the storage client,
// and the project and job handles.
package hsref

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mattkinnersley/shub-jobref/internal/config"
	"github.com/mattkinnersley/shub-jobref/internal/hubstorage"
	"github.com/mattkinnersley/shub-jobref/internal/jobkey"
)

// ErrDisabled is returned by lookups on a Ref that has no job key.
var ErrDisabled = errors.New("hsref: no job key in environment")

// Client is the part of the storage client a Ref uses.
type Client interface {
	GetProject(ctx context.Context, id string) (Project, error)
	Close() error
}

// Project resolves jobs by spider id and job counter.
type Project interface {
	GetJob(ctx context.Context, spiderID, jobCounter int) (*hubstorage.Job, error)
}

// ClientFactory builds a storage client from the job context.
type ClientFactory func(opts hubstorage.Options) (Client, error)

// NewStorageClient is the default ClientFactory, backed by hubstorage.New.
func NewStorageClient(opts hubstorage.Options) (Client, error) {
	c, err := hubstorage.New(opts)
	if err != nil {
		return nil, err
	}
	return storageClient{c}, nil
}

type storageClient struct {
	*hubstorage.Client
}

func (c storageClient) GetProject(ctx context.Context, id string) (Project, error) {
	p, err := c.Client.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type Option func(*Ref)

// WithClientFactory replaces the factory used to build the storage client.
func WithClientFactory(f ClientFactory) Option {
	return func(r *Ref) { r.newClient = f }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Ref) { r.logger = l }
}

// Ref is the job reference. Its zero value is not usable; use New or FromEnv.
type Ref struct {
	env       config.JobEnv
	key       *jobkey.Key // nil when disabled
	newClient ClientFactory
	logger    *slog.Logger

	mu       sync.Mutex
	auth     *string
	endpoint *string
	client   Client
	project  Project
	job      *hubstorage.Job
}

// New builds a Ref from env. Without a job key the Ref is disabled; a job
// key that does not parse is an error.
func New(env config.JobEnv, opts ...Option) (*Ref, error) {
	r := &Ref{
		env:       env,
		newClient: NewStorageClient,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if env.JobKey != "" {
		key, err := jobkey.Parse(env.JobKey)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", config.EnvJobKey, err)
		}
		r.key = &key
		r.logger = r.logger.With("jobkey", env.JobKey)
	}
	return r, nil
}

// FromEnv builds a Ref from the process environment.
func FromEnv(opts ...Option) (*Ref, error) {
	return New(config.LoadJobEnv(), opts...)
}

// Enabled reports whether a job key was present.
func (r *Ref) Enabled() bool {
	return r.key != nil
}

// Key returns the parsed job key, ok is false when the Ref is disabled.
func (r *Ref) Key() (key jobkey.Key, ok bool) {
	if r.key == nil {
		return jobkey.Key{}, false
	}
	return *r.key, true
}

// JobKey returns the job key exactly as found in the environment.
func (r *Ref) JobKey() string {
	return r.env.JobKey
}

// Auth returns the decoded job auth, "<jobkey>:<secret>", or "" when unset.
func (r *Ref) Auth() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authLocked()
}

func (r *Ref) authLocked() (string, error) {
	if r.auth != nil {
		return *r.auth, nil
	}
	var auth string
	if r.env.Auth != "" {
		decoded, err := jobkey.DecodeAuth(r.env.Auth)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", config.EnvJobAuth, err)
		}
		auth = decoded
	}
	r.auth = &auth
	return auth, nil
}

// Endpoint returns the storage endpoint as found in the environment.
func (r *Ref) Endpoint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endpointLocked()
}

func (r *Ref) endpointLocked() string {
	if r.endpoint == nil {
		endpoint := r.env.Endpoint
		r.endpoint = &endpoint
	}
	return *r.endpoint
}

// Client returns the storage client, building it on first use.
func (r *Ref) Client() (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientLocked()
}

func (r *Ref) clientLocked() (Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	auth, err := r.authLocked()
	if err != nil {
		return nil, err
	}
	opts := hubstorage.Options{
		Endpoint:  r.endpointLocked(),
		Auth:      auth,
		UserAgent: r.env.UserAgent,
	}
	r.logger.Debug("creating storage client", "endpoint", opts.Endpoint, "user_agent", opts.UserAgent)
	c, err := r.newClient(opts)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	r.client = c
	return c, nil
}

// Project returns the handle of the job's project, resolving it on first use.
func (r *Ref) Project(ctx context.Context) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projectLocked(ctx)
}

func (r *Ref) projectLocked(ctx context.Context) (Project, error) {
	if r.project != nil {
		return r.project, nil
	}
	if r.key == nil {
		return nil, ErrDisabled
	}
	c, err := r.clientLocked()
	if err != nil {
		return nil, err
	}
	p, err := c.GetProject(ctx, r.key.ProjectKey())
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}
	r.project = p
	return p, nil
}

// Job returns the handle of the running job, resolving it on first use.
func (r *Ref) Job(ctx context.Context) (*hubstorage.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil {
		return r.job, nil
	}
	if r.key == nil {
		return nil, ErrDisabled
	}
	p, err := r.projectLocked(ctx)
	if err != nil {
		return nil, err
	}
	job, err := p.GetJob(ctx, r.key.SpiderID, r.key.JobCounter)
	if err != nil {
		return nil, fmt.Errorf("resolving job: %w", err)
	}
	r.job = job
	return job, nil
}

// Close closes the storage client if one was built.
func (r *Ref) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	r.logger.Debug("closing storage client")
	return r.client.Close()
}
