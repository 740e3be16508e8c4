package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/mindnestapp/mindnest/pkg/stories"
	"github.com/robinjoseph08/golib/logger"
)

const cleanupInterval = 10 * time.Minute

// Worker runs the periodic maintenance tasks: expiring dead OTP codes and
// discarding chunked upload sessions nobody came back to finish.
type Worker struct {
	config *config.Config
	log    logger.Logger

	tasks map[string]func(ctx context.Context) (int64, error)

	shutdown chan struct{}
	done     chan struct{}
}

func New(cfg *config.Config, authService *auth.Service, storyService *stories.Service) *Worker {
	w := &Worker{
		config:   cfg,
		log:      logger.New(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	w.tasks = map[string]func(ctx context.Context) (int64, error){
		"expired_otps": authService.DeleteExpiredOTPs,
		"stale_upload_sessions": func(ctx context.Context) (int64, error) {
			return storyService.DeleteStaleSessions(ctx, cfg.UploadSessionTTL())
		},
	}

	return w
}

func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	timer := time.NewTimer(cleanupInterval)

	for {
		select {
		case <-w.shutdown:
			w.done <- struct{}{}
			return
		case <-timer.C:
			w.RunOnce()
			timer.Reset(cleanupInterval)
		}
	}
}

// RunOnce executes every cleanup task a single time. Exposed so the server
// can run a sweep at startup and tests can drive the worker directly.
func (w *Worker) RunOnce() {
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String())
	ctx := log.WithContext(context.Background())

	for name, task := range w.tasks {
		deleted, err := task(ctx)
		if err != nil {
			log.Err(err).Error("cleanup task error", logger.Data{"task": name})
			continue
		}
		if deleted > 0 {
			log.Info("cleanup task done", logger.Data{"task": name, "deleted": deleted})
		}
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)
	<-w.done
}
