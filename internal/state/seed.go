package state

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mattkinnersley/shub-jobref/internal/config"
	"github.com/mattkinnersley/shub-jobref/internal/jobkey"
)

// Seed registers the projects and jobs of a seed config. Jobs without a
// secret get a random one, logged so it can be handed to a job.
func Seed(store *Store, seed *config.SeedConfig) error {
	for _, ps := range seed.Projects {
		if ps.ID == "" {
			return fmt.Errorf("project without id")
		}
		store.SaveProject(&Project{ID: ps.ID, Name: ps.Name})
		slog.Info("registered project", "id", ps.ID, "name", ps.Name)

		for _, js := range ps.Jobs {
			key, err := jobkey.Parse(js.Key)
			if err != nil {
				return err
			}
			if key.ProjectKey() != ps.ID {
				return fmt.Errorf("job %s listed under project %s", js.Key, ps.ID)
			}
			job := &Job{
				Key:      key.String(),
				Spider:   js.Spider,
				Secret:   js.Secret,
				State:    ParseJobState(js.State),
				Metadata: make(map[string]any, len(js.Metadata)),
			}
			for k, v := range js.Metadata {
				job.Metadata[k] = v
			}
			if job.Secret == "" {
				job.Secret = uuid.NewString()
				slog.Info("generated job secret", "key", job.Key, "auth", jobkey.EncodeAuth(key, job.Secret))
			}
			if err := store.SaveJob(job); err != nil {
				return err
			}
			slog.Info("registered job", "key", job.Key, "spider", job.Spider)
		}
	}
	return nil
}
