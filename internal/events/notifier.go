package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Pipeline stage subjects. Downstream consumers (dashboards, alerting)
// subscribe to these; the pipeline itself never reads them back.
const (
	SubjectChainsBuilt    = "cvtune.chains.built"
	SubjectBatchSubmitted = "cvtune.batch.submitted"
	SubjectBatchCompleted = "cvtune.batch.completed"
	SubjectDatasetBuilt   = "cvtune.dataset.built"
	SubjectJobSubmitted   = "cvtune.job.submitted"
)

// Notifier publishes stage events to NATS. Callers hold a nil *Notifier
// when NATS_URL is unset; every stage works without it.
type Notifier struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNotifier(url, token string, logger *slog.Logger) (*Notifier, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Notifier{conn: nc, logger: logger}, nil
}

// Publish sends a stage event. Safe to call on a nil Notifier.
func (n *Notifier) Publish(subject string, data any) {
	if n == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		n.logger.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := n.conn.Publish(subject, payload); err != nil {
		n.logger.Error("publish event", "subject", subject, "error", err)
	}
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.conn.Close()
}
