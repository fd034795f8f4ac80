package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LifeLine/pkg/logger"

	"go.uber.org/zap"
)

// SendHook observes each finished send.
type SendHook func(provider string, ok bool, elapsed time.Duration)

// Dispatcher fans a message out to many phones on one provider.
type Dispatcher struct {
	maxParallel int
	sendTimeout time.Duration
	onSend      SendHook
	log         *zap.Logger
}

// NewDispatcher: maxParallel <= 0 means one goroutine per phone.
func NewDispatcher(maxParallel int, sendTimeout time.Duration, onSend SendHook) *Dispatcher {
	return &Dispatcher{
		maxParallel: maxParallel,
		sendTimeout: sendTimeout,
		onSend:      onSend,
		log:         logger.Named("notify"),
	}
}

// Dispatch sends body to every phone. It waits for all sends. Sends run on
// a context detached from ctx's cancellation, so an abandoned request does
// not tear down a half-sent alert.
func (d *Dispatcher) Dispatch(ctx context.Context, p Provider, phones []string, body string) Summary {
	sum := Summary{Provider: p.Name()}
	if len(phones) == 0 {
		return sum
	}
	if !p.Ready() {
		sum.FailedCount = len(phones)
		sum.Reason = p.Name() + " not initialized"
		d.log.Warn("provider not initialized, skipping batch",
			zap.String("provider", p.Name()), zap.Int("contacts", len(phones)))
		return sum
	}

	base := context.WithoutCancel(ctx)
	outcomes := make([]Outcome, len(phones))

	var sem chan struct{}
	if d.maxParallel > 0 {
		sem = make(chan struct{}, d.maxParallel)
	}

	var wg sync.WaitGroup
	for i, phone := range phones {
		wg.Add(1)
		go func(i int, phone string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			outcomes[i] = d.sendOne(base, p, phone, body)
		}(i, phone)
	}
	wg.Wait()

	sum.Outcomes = outcomes
	for _, o := range outcomes {
		if o.Success {
			sum.SentCount++
		} else {
			sum.FailedCount++
		}
	}
	d.log.Info("dispatch finished",
		zap.String("provider", p.Name()),
		zap.Int("sent", sum.SentCount),
		zap.Int("failed", sum.FailedCount))
	return sum
}

func (d *Dispatcher) sendOne(ctx context.Context, p Provider, phone, body string) (out Outcome) {
	out = Outcome{Provider: p.Name(), ContactPhone: phone}
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.ErrorCode = "PANIC"
			out.ErrorMessage = fmt.Sprint(r)
		}
		if !out.Success {
			d.log.Warn("send failed",
				zap.String("provider", out.Provider),
				zap.String("phone", out.ContactPhone),
				zap.String("code", out.ErrorCode),
				zap.String("error", out.ErrorMessage))
		}
		if d.onSend != nil {
			d.onSend(out.Provider, out.Success, time.Since(start))
		}
	}()

	id, err := p.Send(ctx, phone, body)
	if err != nil {
		out.ErrorCode, out.ErrorMessage = classify(err)
		return out
	}
	out.Success = true
	out.ProviderMessageID = id
	return out
}

func classify(err error) (code, msg string) {
	var se *SendError
	switch {
	case errors.As(err, &se):
		return se.Code, se.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT", err.Error()
	default:
		return "EXCEPTION", err.Error()
	}
}
