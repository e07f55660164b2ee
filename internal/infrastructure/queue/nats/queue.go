package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/visual-rag-router/internal/infrastructure/resilience"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
)

const requestIDHeader = "X-Request-Id"

// MessageHandler turns a request payload into a reply payload.
type MessageHandler func(ctx context.Context, data []byte) []byte

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("visual-rag-router"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// ServeQueries answers request-reply messages on the query subject until ctx
// is done, then drains the subscription.
func (q *Queue) ServeQueries(ctx context.Context, queueGroup string, handler MessageHandler) error {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		requestID := msg.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		handlerCtx, cancel := context.WithCancel(logging.ContextWithRequestID(ctx, requestID))
		defer cancel()

		reply := handler(handlerCtx, msg.Data)
		if msg.Reply == "" {
			q.logger.Warn("nats_query_without_reply", "subject", msg.Subject, "request_id", requestID)
			return
		}
		if err := q.respond(handlerCtx, msg, reply); err != nil {
			q.logger.Error("nats_respond_failed", "request_id", requestID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	q.logger.Info("nats_query_subscription_started", "subject", q.subject, "queue_group", queueGroup)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) respond(ctx context.Context, msg *nats.Msg, reply []byte) error {
	call := func(_ context.Context) error {
		if err := msg.Respond(reply); err != nil {
			return fmt.Errorf("nats respond: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.respond", call, classifyRespondError)
	} else {
		err = call(ctx)
	}
	return respondError(err)
}
