package core

// dispatcher.go sends personalized messages to validated contacts.
//
// Two scheduling strategies share the same peak-concurrency bound:
//
//   - StrategyChunked (the default) splits contacts into consecutive chunks
//     of BatchWidth and waits for every send in a chunk to settle before
//     starting the next.
//   - StrategyWindow keeps up to BatchWidth sends in flight and starts the
//     next contact as soon as any slot frees up.
//
// Every contact yields exactly one DispatchOutcome, in input order, whatever
// the strategy and whether or not the context is cancelled.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/bulksend/internal/config"
	"github.com/JonMunkholm/bulksend/internal/transport"
)

// NamePlaceholder is replaced by the contact name in message templates.
const NamePlaceholder = "{nome}"

// DefaultBatchWidth is used when DispatchOptions.BatchWidth is not positive.
const DefaultBatchWidth = 5

// Strategy selects how sends are scheduled. The zero value is chunked.
type Strategy string

// Values match DISPATCH_STRATEGY.
const (
	StrategyChunked Strategy = config.StrategyChunked
	StrategyWindow  Strategy = config.StrategyWindow
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyChunked, "":
		return StrategyChunked, nil
	case StrategyWindow:
		return StrategyWindow, nil
	default:
		return "", fmt.Errorf("unknown dispatch strategy %q", s)
	}
}

// DispatchOptions controls a Dispatch run.
type DispatchOptions struct {
	// BatchWidth is the maximum number of sends in flight.
	BatchWidth int

	Strategy Strategy

	// SendTimeout bounds each send. Zero means no per-send deadline.
	SendTimeout time.Duration

	// OnOutcome, if set, is called after every send settles. It may be
	// called from several goroutines at once.
	OnOutcome func(ContactRecord, DispatchOutcome)
}

// DispatchResult holds the outcomes of a run, one per contact in input order.
type DispatchResult struct {
	Sent     int
	Outcomes []DispatchOutcome
}

// Failures returns the unsuccessful outcomes in attempt order.
func (r DispatchResult) Failures() []DispatchOutcome {
	var failed []DispatchOutcome
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}

// RenderMessage substitutes the contact name into template. Inserted text
// is never re-scanned, so a name containing the placeholder stays literal.
func RenderMessage(template, name string) string {
	return strings.ReplaceAll(template, NamePlaceholder, name)
}

// Dispatch sends RenderMessage(template, c.Name) to every contact and blocks
// until all sends have settled. A failed send never aborts the others.
//
// When ctx is cancelled, contacts not yet sent are recorded as failures so
// the result still accounts for every contact.
func Dispatch(
	ctx context.Context,
	contacts []ContactRecord,
	template string,
	opts DispatchOptions,
	sender transport.Sender,
) DispatchResult {
	width := opts.BatchWidth
	if width <= 0 {
		width = DefaultBatchWidth
	}

	outcomes := make([]DispatchOutcome, len(contacts))
	run := func(i int) {
		c := contacts[i]
		o := sendOne(ctx, c, template, opts.SendTimeout, sender)
		outcomes[i] = o
		if opts.OnOutcome != nil {
			opts.OnOutcome(c, o)
		}
	}

	switch opts.Strategy {
	case StrategyWindow:
		var g errgroup.Group
		g.SetLimit(width)
		for i := range contacts {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	default:
		for start := 0; start < len(contacts); start += width {
			end := min(start+width, len(contacts))
			var g errgroup.Group
			for i := start; i < end; i++ {
				g.Go(func() error {
					run(i)
					return nil
				})
			}
			_ = g.Wait()
		}
	}

	result := DispatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success {
			result.Sent++
		}
	}
	return result
}

// sendOne performs a single send and converts any failure, including a
// panic in the transport binding, into an outcome.
func sendOne(
	ctx context.Context,
	c ContactRecord,
	template string,
	timeout time.Duration,
	sender transport.Sender,
) DispatchOutcome {
	if err := ctx.Err(); err != nil {
		return failed(c, cancelledMessage(ctx))
	}

	sendCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text := RenderMessage(template, c.Name)
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("falha no transporte: %v", r)
			}
		}()
		done <- sender.Send(sendCtx, c.Phone, text)
	}()

	// A binding that ignores its context must not hold the slot forever.
	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}

	switch {
	case err == nil:
		return DispatchOutcome{LineNumber: c.LineNumber, Success: true}
	case ctx.Err() != nil:
		return failed(c, cancelledMessage(ctx))
	case errors.Is(err, context.DeadlineExceeded) && sendCtx.Err() != nil:
		return failed(c, fmt.Sprintf("tempo limite de envio excedido (%s)", timeout))
	default:
		return failed(c, err.Error())
	}
}

func failed(c ContactRecord, msg string) DispatchOutcome {
	return DispatchOutcome{LineNumber: c.LineNumber, Success: false, ErrorMessage: msg}
}

func cancelledMessage(ctx context.Context) string {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	return "envio cancelado: " + cause.Error()
}
