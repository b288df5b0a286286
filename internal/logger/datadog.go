package logger

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

const dataDogQueueSize = 1024

// DataDogWriter ships log lines to the DataDog logs intake.
// Lines are queued and sent by a single worker; when the queue is full
// lines are dropped rather than blocking the caller.
type DataDogWriter struct {
	api      *datadogV2.LogsApi
	ctx      context.Context
	service  string
	hostname string
	tags     string
	queue    chan string
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
}

// NewDataDogWriter creates a writer for the given log config and starts its worker.
func NewDataDogWriter(cfg Log) (*DataDogWriter, error) {
	if cfg.DataDog.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	ctx := context.WithValue(
		context.Background(),
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{"apiKeyAuth": {Key: cfg.DataDog.APIKey}},
	)

	if cfg.DataDog.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": cfg.DataDog.Site})
	}

	configuration := datadog.NewConfiguration()
	if cfg.DataDog.Timeout > 0 {
		configuration.HTTPClient = &http.Client{Timeout: cfg.DataDog.Timeout}
	}

	service := cfg.DataDog.ServiceName
	if service == "" {
		service = cfg.ServiceName
	}

	hostname, _ := os.Hostname() //nolint:errcheck // empty hostname is fine

	w := &DataDogWriter{
		api:      datadogV2.NewLogsApi(datadog.NewAPIClient(configuration)),
		ctx:      ctx,
		service:  service,
		hostname: hostname,
		tags:     "env:" + cfg.LogEnv + ",app:" + cfg.AppName,
		queue:    make(chan string, dataDogQueueSize),
		done:     make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// Write implements io.Writer.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return len(p), nil
	}

	select {
	case w.queue <- string(bytes.TrimSpace(p)):
	default:
		// queue full, drop
	}

	return len(p), nil
}

// Close stops the worker after the queue was drained.
func (w *DataDogWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done

	return nil
}

func (w *DataDogWriter) run() {
	defer close(w.done)

	for msg := range w.queue {
		item := datadogV2.HTTPLogItem{
			Ddsource: datadog.PtrString("go"),
			Ddtags:   datadog.PtrString(w.tags),
			Hostname: datadog.PtrString(w.hostname),
			Message:  msg,
			Service:  datadog.PtrString(w.service),
		}

		if _, _, err := w.api.SubmitLog(w.ctx, []datadogV2.HTTPLogItem{item}); err != nil {
			ErrorHandler(err)
		}
	}
}
