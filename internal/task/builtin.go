package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Built-in job types
const (
	TypeCountdown = "countdown"
	TypeFail      = "fail"
)

const (
	defaultSteps          = 5
	defaultStepDelayMs    = 500
	defaultFailureMessage = "job failed"
)

var paramsValidator = validator.New()

// CountdownParams configures the countdown job, which reports one
// description per step and completes with the number of steps run.
type CountdownParams struct {
	Steps   int `json:"steps" validate:"gte=0,lte=1000"`
	DelayMs int `json:"delay_ms" validate:"gte=0,lte=60000"`
}

// FailParams configures the fail job, which reports AfterSteps descriptions
// and then fails with Message.
type FailParams struct {
	AfterSteps int    `json:"after_steps" validate:"gte=0,lte=1000"`
	Message    string `json:"message" validate:"max=500"`
	DelayMs    int    `json:"delay_ms" validate:"gte=0,lte=60000"`
}

// NewDefaultRegistry returns a registry holding the built-in job types.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	mustRegister(r, TypeCountdown, Definition{
		Run: runCountdown,
		ValidateParams: func(raw json.RawMessage) error {
			_, err := decodeCountdown(raw)
			return err
		},
	})
	mustRegister(r, TypeFail, Definition{
		Run: runFail,
		ValidateParams: func(raw json.RawMessage) error {
			_, err := decodeFail(raw)
			return err
		},
	})
	return r
}

func mustRegister(r *Registry, jobType string, def Definition) {
	if err := r.Register(jobType, def); err != nil {
		panic(err)
	}
}

func decodeCountdown(raw json.RawMessage) (CountdownParams, error) {
	p := CountdownParams{Steps: defaultSteps, DelayMs: defaultStepDelayMs}
	if err := decodeParams(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

func decodeFail(raw json.RawMessage) (FailParams, error) {
	p := FailParams{DelayMs: defaultStepDelayMs}
	if err := decodeParams(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("malformed parameters: %w", err)
		}
	}
	return paramsValidator.Struct(dst)
}

func runCountdown(ctx context.Context, raw json.RawMessage, report Reporter) (json.RawMessage, error) {
	p, err := decodeCountdown(raw)
	if err != nil {
		return nil, err
	}

	if err := runSteps(ctx, p.Steps, p.DelayMs, report); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]int{"steps": p.Steps})
}

func runFail(ctx context.Context, raw json.RawMessage, report Reporter) (json.RawMessage, error) {
	p, err := decodeFail(raw)
	if err != nil {
		return nil, err
	}

	if err := runSteps(ctx, p.AfterSteps, p.DelayMs, report); err != nil {
		return nil, err
	}
	if p.Message == "" {
		return nil, errors.New(defaultFailureMessage)
	}
	return nil, errors.New(p.Message)
}

// runSteps reports "step i of n" once per step, waiting delayMs before each.
func runSteps(ctx context.Context, steps, delayMs int, report Reporter) error {
	delay := time.Duration(delayMs) * time.Millisecond
	for i := 1; i <= steps; i++ {
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		if err := report.Report(ctx, fmt.Sprintf("step %d of %d", i, steps)); err != nil {
			return fmt.Errorf("failed to report progress: %w", err)
		}
	}
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
