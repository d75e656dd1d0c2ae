package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// ExpectedEnv must be present in every container started from the image.
var ExpectedEnv = []string{"ENVIRONMENT=production", "PYTHONUNBUFFERED=1"}

type SmokeOptions struct {
	Image    string
	HostPort string
	Env      []string
	Timeout  time.Duration
	Interval time.Duration
}

// Smoker runs the image and checks that it serves /health on port 8000.
type Smoker struct {
	runner ports.ContainerRunner
	http   *http.Client
	host   string
	log    logrus.FieldLogger
}

func NewSmoker(runner ports.ContainerRunner, log logrus.FieldLogger) *Smoker {
	return &Smoker{
		runner: runner,
		http:   &http.Client{Timeout: 2 * time.Second},
		host:   "127.0.0.1",
		log:    log,
	}
}

// Check starts a container from opts.Image, waits for a healthy answer and
// verifies ExpectedEnv. The container is always stopped afterwards.
func (s *Smoker) Check(ctx context.Context, opts SmokeOptions) (err error) {
	if opts.Image == "" {
		opts.Image = DefaultTag
	}
	if opts.HostPort == "" {
		opts.HostPort = "8000"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Interval == 0 {
		opts.Interval = 500 * time.Millisecond
	}

	ctr, err := s.runner.StartContainer(ctx, ports.RunOptions{
		Image:         opts.Image,
		ContainerPort: "8000/tcp",
		HostPort:      opts.HostPort,
		Env:           opts.Env,
	})
	if err != nil {
		return err
	}
	log := s.log.WithField("container", shortID(ctr.ID))
	log.Info("container started")

	defer func() {
		if err != nil {
			s.dumpLogs(ctr.ID, log)
		}
		if stopErr := s.runner.StopContainer(context.Background(), ctr.ID); stopErr != nil {
			log.WithError(stopErr).Warn("failed to stop container")
		}
	}()

	for _, want := range ExpectedEnv {
		if !slices.Contains(ctr.Env, want) {
			return fmt.Errorf("container env is missing %s", want)
		}
	}

	url := fmt.Sprintf("http://%s:%s/health", s.host, ctr.HostPort)
	if err := s.waitHealthy(ctx, url, opts.Timeout, opts.Interval); err != nil {
		return err
	}
	log.WithField("url", url).Info("container is healthy")
	return nil
}

func (s *Smoker) waitHealthy(ctx context.Context, url string, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := s.http.Do(req)
		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return unhealthy(url, last, ctx.Err())
		}
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		last = err

		select {
		case <-ctx.Done():
			return unhealthy(url, last, ctx.Err())
		case <-ticker.C:
		}
	}
}

// unhealthy reports the last health check failure, or the context error when the
// deadline passed before any request completed.
func unhealthy(url string, last, ctxErr error) error {
	if last == nil {
		last = ctxErr
	}
	return fmt.Errorf("service did not become healthy at %s: %w", url, last)
}

func (s *Smoker) dumpLogs(id string, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := s.runner.GetContainerLogs(ctx, id)
	if err != nil {
		return
	}
	defer rc.Close()
	out, _ := io.ReadAll(io.LimitReader(rc, 16<<10))
	log.WithField("logs", string(out)).Error("smoke check failed")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
