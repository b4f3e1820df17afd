package jobs

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"stakehouse/internal/logger"
)

type Job interface {
	Start(ctx context.Context)
}

type named struct {
	name string
	job  Job
}

// Manager runs the long-lived background tasks (crash lobby scheduler,
// withdrawal poller) and blocks until the context ends and every job has
// returned.
type Manager struct {
	jobs []named
}

func New() *Manager {
	return &Manager{}
}

func (m *Manager) Register(name string, job Job) {
	m.jobs = append(m.jobs, named{name: name, job: job})
}

func (m *Manager) Start(ctx context.Context) {
	var wg sync.WaitGroup

	for _, n := range m.jobs {
		wg.Add(1)
		logger.Log.Info("job started", zap.String("job", n.name))

		go func(n named) {
			defer wg.Done()
			n.job.Start(ctx)
			logger.Log.Info("job stopped", zap.String("job", n.name))
		}(n)
	}

	<-ctx.Done()
	wg.Wait()
}
