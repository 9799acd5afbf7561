package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mattkinnersley/shub-jobref/internal/hsref"
)

type report struct {
	Enabled   bool       `yaml:"enabled"`
	JobKey    string     `yaml:"jobkey,omitempty"`
	ProjectID int        `yaml:"project_id,omitempty"`
	SpiderID  int        `yaml:"spider_id,omitempty"`
	JobID     int        `yaml:"job_id,omitempty"`
	Endpoint  string     `yaml:"endpoint,omitempty"`
	Auth      bool       `yaml:"auth"`
	Job       *jobReport `yaml:"job,omitempty"`
}

type jobReport struct {
	Spider   string         `yaml:"spider,omitempty"`
	State    string         `yaml:"state"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// describe collects the job context of ref. With fetch the job record is
// resolved through storage.
func describe(ctx context.Context, ref *hsref.Ref, fetch bool) (*report, error) {
	auth, err := ref.Auth()
	if err != nil {
		return nil, err
	}
	r := &report{
		Enabled:  ref.Enabled(),
		JobKey:   ref.JobKey(),
		Endpoint: ref.Endpoint(),
		Auth:     auth != "",
	}
	key, ok := ref.Key()
	if !ok {
		return r, nil
	}
	r.ProjectID, r.SpiderID, r.JobID = key.ProjectID, key.SpiderID, key.JobCounter

	if fetch {
		job, err := ref.Job(ctx)
		if err != nil {
			return nil, err
		}
		r.Job = &jobReport{Spider: job.Spider, State: job.State, Metadata: job.Metadata}
	}
	return r, nil
}

func (r *report) write(w io.Writer, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return r.writeText(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (r *report) writeText(w io.Writer) error {
	if !r.Enabled {
		_, err := fmt.Fprintln(w, "no job context")
		return err
	}
	fmt.Fprintf(w, "jobkey:   %s\n", r.JobKey)
	fmt.Fprintf(w, "project:  %d\n", r.ProjectID)
	fmt.Fprintf(w, "spider:   %d\n", r.SpiderID)
	fmt.Fprintf(w, "job:      %d\n", r.JobID)
	fmt.Fprintf(w, "endpoint: %s\n", r.Endpoint)
	fmt.Fprintf(w, "auth:     %t\n", r.Auth)
	if r.Job != nil {
		fmt.Fprintf(w, "state:    %s\n", r.Job.State)
		fmt.Fprintf(w, "name:     %s\n", r.Job.Spider)
		for _, k := range slices.Sorted(maps.Keys(r.Job.Metadata)) {
			fmt.Fprintf(w, "  %s: %v\n", k, r.Job.Metadata[k])
		}
	}
	return nil
}
