package state

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Store is a thread-safe in-memory store for projects and jobs.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*Project // keyed by project id
	jobs     map[string]*Job     // keyed by job key
}

func NewStore() *Store {
	return &Store{
		projects: make(map[string]*Project),
		jobs:     make(map[string]*Job),
	}
}

// SaveProject stores a project.
func (s *Store) SaveProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project not found: %s", id)
	}
	return p, nil
}

// SaveJob stores a job. Its project must already exist.
func (s *Store) SaveJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[job.ProjectID()]; !ok {
		return fmt.Errorf("project not found for job %s", job.Key)
	}
	if job.Metadata == nil {
		job.Metadata = make(map[string]any)
	}
	s.jobs[job.Key] = job
	return nil
}

// GetJob retrieves a copy of a job by key.
func (s *Store) GetJob(key string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[key]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", key)
	}
	cp := *job
	cp.Metadata = maps.Clone(job.Metadata)
	return &cp, nil
}

// UpdateJobMetadata merges fields into a job's metadata.
func (s *Store) UpdateJobMetadata(key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[key]
	if !ok {
		return fmt.Errorf("job not found: %s", key)
	}
	maps.Copy(job.Metadata, fields)
	return nil
}

// ListJobs returns the keys of all jobs in a project.
func (s *Store) ListJobs(projectID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.jobs {
		if strings.HasPrefix(key, projectID+"/") {
			keys = append(keys, key)
		}
	}
	return keys
}

// parseFirstSegment extracts the first path segment from a job key.
func parseFirstSegment(key string) string {
	first, _, _ := strings.Cut(key, "/")
	return first
}
