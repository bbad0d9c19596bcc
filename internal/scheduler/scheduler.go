package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/paullyd2112/quillswitch-sub006/internal/services/migration"
)

// Scheduler kicks off delta-sync runs on a cron cadence so new CRM extracts
// keep flowing without manual run starts.
type Scheduler struct {
	cron *cron.Cron
}

func New(spec string, service *migration.Service) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Println("scheduled delta sync starting")
		service.RunDeltaSyncs(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sync cron spec %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
