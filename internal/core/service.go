package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bulksend/internal/config"
	"github.com/JonMunkholm/bulksend/internal/logging"
	"github.com/JonMunkholm/bulksend/internal/transport"
)

// Service runs dispatch requests against one shared transport.
type Service struct {
	sender  transport.Sender
	state   *transport.State
	limiter *DispatchLimiter

	opts        DispatchOptions
	template    string
	maxFileSize int64
	timeout     time.Duration

	now func() time.Time
}

// DispatchRequest is one uploaded contact file.
type DispatchRequest struct {
	Body io.Reader

	// Template overrides the configured message template when not blank.
	Template string
}

// NewService creates a Service. state is the readiness gate owned by the
// transport binding behind sender.
func NewService(sender transport.Sender, state *transport.State, cfg *config.Config) (*Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("new service: nil sender")
	}
	if state == nil {
		return nil, fmt.Errorf("new service: nil transport state")
	}

	strategy, err := ParseStrategy(cfg.Dispatch.Strategy)
	if err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	return &Service{
		sender:  sender,
		state:   state,
		limiter: NewDispatchLimiter(cfg.Dispatch.MaxConcurrent, cfg.Dispatch.MaxWaitTime),
		opts: DispatchOptions{
			BatchWidth:  cfg.Dispatch.BatchWidth,
			Strategy:    strategy,
			SendTimeout: cfg.Dispatch.SendTimeout,
		},
		template:    cfg.Dispatch.MessageTemplate,
		maxFileSize: cfg.Upload.MaxFileSize,
		timeout:     cfg.Dispatch.Timeout,
		now:         time.Now,
	}, nil
}

// Run parses the uploaded file and dispatches a message to every valid
// contact. Per-line problems are reported in the Report; the returned error
// is non-nil only when the request could not be processed at all.
func (s *Service) Run(ctx context.Context, req DispatchRequest) (Report, error) {
	if !s.state.Ready() {
		return Report{}, fmt.Errorf("dispatch: %w", ErrTransportNotReady)
	}

	if !s.limiter.TryAcquire() {
		logging.FromContext(ctx).Info("all dispatch slots busy, waiting",
			"max_concurrent", s.limiter.MaxConcurrent())
		if err := s.limiter.Acquire(ctx); err != nil {
			return Report{}, fmt.Errorf("dispatch: acquire slot: %w", err)
		}
	}
	defer s.limiter.Release()

	id := uuid.NewString()
	log := logging.WithFields(ctx,
		"dispatch_id", id,
		"ip", IPAddressFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)
	start := s.now()

	raw, err := DecodeUpload(req.Body, s.maxFileSize)
	if err != nil {
		return Report{}, fmt.Errorf("dispatch: %w", err)
	}

	contacts, parseErrs := Parse(raw)
	log.Info("contacts parsed", "valid", len(contacts), "rejected", len(parseErrs))

	if len(contacts) == 0 {
		report := Aggregate(parseErrs, DispatchResult{}, 0, s.now().Sub(start))
		report.ID = id
		log.Warn("no valid contact in upload", "rejected", len(parseErrs))
		return report, nil
	}

	template := s.template
	if strings.TrimSpace(req.Template) != "" {
		template = req.Template
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	opts := s.opts
	opts.OnOutcome = func(c ContactRecord, o DispatchOutcome) {
		if !o.Success {
			log.Debug("send failed", "line", c.LineNumber, "phone", c.Phone, "error", o.ErrorMessage)
		}
	}

	result := Dispatch(runCtx, contacts, template, opts, s.sender)
	report := Aggregate(parseErrs, result, len(contacts), s.now().Sub(start))
	report.ID = id

	log.Info("dispatch completed",
		"total", report.Total,
		"sent", report.Sent,
		"errors", len(report.Errors),
		"elapsed_s", report.ElapsedSeconds,
	)

	return report, nil
}

// SendOne sends a single personalized message. It applies the same
// readiness gate and per-send timeout as Run.
func (s *Service) SendOne(ctx context.Context, name, phone, template string) error {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return ErrMissingContactFields
	}
	if !s.state.Ready() {
		return fmt.Errorf("send: %w", ErrTransportNotReady)
	}

	if strings.TrimSpace(template) == "" {
		template = s.template
	}

	sendCtx := ctx
	if s.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.opts.SendTimeout)
		defer cancel()
	}

	log := logging.FromContext(ctx)
	log.Info("sending message", "phone", phone)
	if err := s.sender.Send(sendCtx, phone, RenderMessage(template, name)); err != nil {
		log.Error("send failed", "phone", phone, "error", err)
		return fmt.Errorf("send to %s: %w", phone, err)
	}
	log.Info("message sent", "phone", phone)
	return nil
}

// Status returns the transport connection state.
func (s *Service) Status() transport.Snapshot {
	return s.state.Snapshot()
}

// LimiterStatus returns the dispatch limiter state.
func (s *Service) LimiterStatus() DispatchLimiterStatus {
	return s.limiter.Status()
}

// WaitForDispatches blocks until running dispatches finish or ctx is done.
func (s *Service) WaitForDispatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
