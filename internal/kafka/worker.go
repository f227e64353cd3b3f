package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-reporting/internal/logger"
	"ms-reporting/internal/reporting"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the consuming half the worker needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter is the publishing half the worker needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker answers report requests from one topic on another. A request is
// committed only after its result is published.
type Worker struct {
	reader       MessageReader
	writer       MessageWriter
	reporter     reporting.Reporter
	logger       *logger.Logger
	queryTimeout time.Duration
	retryDelay   time.Duration
}

// NewWorker creates a report worker
func NewWorker(reader MessageReader, writer MessageWriter, reporter reporting.Reporter, log *logger.Logger, queryTimeout time.Duration) *Worker {
	return &Worker{
		reader:       reader,
		writer:       writer,
		reporter:     reporter,
		logger:       log,
		queryTimeout: queryTimeout,
		retryDelay:   time.Second,
	}
}

// Run consumes until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("KAFKA", "Report worker started")

	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("KAFKA", "Report worker stopping")
				return nil
			}
			w.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		result := w.Handle(ctx, msg)
		if ctx.Err() != nil {
			return nil
		}

		if !w.publish(ctx, result) {
			return nil
		}

		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			w.logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
		}
	}
}

// publish retries until the result is written. It reports false only
// when ctx is cancelled first, leaving the request uncommitted.
func (w *Worker) publish(ctx context.Context, result kafka.Message) bool {
	for {
		err := w.writer.WriteMessages(ctx, result)
		if err == nil {
			return true
		}
		w.logger.Error("KAFKA", fmt.Sprintf("Failed to publish report result %s: %v", string(result.Key), err))
		if !w.sleep(ctx) {
			return false
		}
	}
}

func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.retryDelay):
		return true
	}
}

// Handle turns one request message into its result message. Bad requests
// and failed reports still produce a result so callers are never left waiting.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) kafka.Message {
	var req ReportRequest
	result := ReportResult{Status: StatusFailed}

	if err := json.Unmarshal(msg.Value, &req); err != nil {
		w.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal report request at offset %d: %v", msg.Offset, err))
		result.RequestID = string(msg.Key)
		result.Error = "invalid report request"
		return w.encode(result)
	}

	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	result.RequestID = req.RequestID
	result.Kind = req.Kind
	result.BusinessID = req.BusinessID

	payload, err := w.run(ctx, req)
	if err != nil {
		w.logger.Warn("KAFKA", fmt.Sprintf("Report %s (%s) for business %s failed: %v", req.RequestID, req.Kind, req.BusinessID, err))
		result.Error = err.Error()
		return w.encode(result)
	}

	result.Status = StatusCompleted
	result.Payload = payload
	w.logger.LogReport(req.Kind, req.BusinessID, fmt.Sprintf("request %s completed", req.RequestID))
	return w.encode(result)
}

func (w *Worker) run(ctx context.Context, req ReportRequest) (json.RawMessage, error) {
	rng, err := reporting.ParseDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}
	f := reporting.Filter{BusinessID: req.BusinessID, EventID: req.EventID, Range: rng}

	if w.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.queryTimeout)
		defer cancel()
	}

	var report interface{}
	switch req.Kind {
	case KindBusinessAnalytics:
		report, err = w.reporter.GetBusinessAnalytics(ctx, f)
	case KindTrackingLinks:
		report, err = w.reporter.GetTrackingLinkAnalytics(ctx, f)
	case KindPageViews:
		report, err = w.reporter.GetPageViewStats(ctx, f)
	default:
		return nil, fmt.Errorf("unknown report kind %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(report)
}

func (w *Worker) encode(result ReportResult) kafka.Message {
	result.GeneratedAt = time.Now().UTC()
	value, _ := json.Marshal(result)
	return kafka.Message{
		Key:   []byte(result.RequestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(result.Kind)},
			{Key: "status", Value: []byte(result.Status)},
		},
	}
}

// Close shuts down both halves
func (w *Worker) Close() error {
	rerr := w.reader.Close()
	werr := w.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
