package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/phrazzld/taskwatch/internal/monitor"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	return f == formatText || f == formatJSON || f == formatYAML
}

// record is one line of structured output.
type record struct {
	Event      string `json:"event" yaml:"event"`
	TaskID     string `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
	Result     any    `json:"result,omitempty" yaml:"result,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	Confirmed  *bool  `json:"confirmed,omitempty" yaml:"confirmed,omitempty"`
	EmailAlert bool   `json:"email_alert,omitempty" yaml:"email_alert,omitempty"`
}

// printer writes monitor events to out in the selected format. Status
// changes arrive from the monitor's goroutine, so writes are serialized.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	format string
}

func newPrinter(out io.Writer, format string) *printer {
	return &printer{out: out, format: format}
}

func (p *printer) started(h monitor.Handle) {
	p.write(record{Event: "started", TaskID: string(h)},
		fmt.Sprintf("watching task %s", h))
}

func (p *printer) status(text string) {
	p.write(record{Event: "status", Status: text}, text)
}

func (p *printer) outcome(o monitor.Outcome, emailAlert bool) {
	switch o.State {
	case monitor.StateCompleted:
		p.write(record{Event: "completed", Result: decodeResult(o.Payload)},
			fmt.Sprintf("completed: %s", o.Payload))

	case monitor.StateFailed:
		p.write(record{Event: "failed", Message: o.Message},
			fmt.Sprintf("failed: %s", o.Message))

	case monitor.StateCancelled:
		confirmed := o.Confirmed
		rec := record{Event: "cancelled", Confirmed: &confirmed}
		text := "cancelled"
		if !confirmed {
			if o.Err != nil {
				rec.Message = o.Err.Error()
			}
			text = "cancellation not confirmed by server"
		}
		p.write(rec, text)

	case monitor.StateDetached:
		text := "detached, job keeps running"
		if emailAlert {
			text += " (email alert requested)"
		}
		p.write(record{Event: "detached", EmailAlert: emailAlert}, text)
	}
}

func (p *printer) write(rec record, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.format {
	case formatJSON:
		_ = json.NewEncoder(p.out).Encode(rec)
	case formatYAML:
		b, err := yaml.Marshal(rec)
		if err != nil {
			fmt.Fprintf(p.out, "# failed to encode %s event: %v\n", rec.Event, err)
			return
		}
		fmt.Fprintf(p.out, "---\n%s", b)
	default:
		fmt.Fprintln(p.out, text)
	}
}

// decodeResult turns a JSON payload into a value both encoders can render.
// Payloads that are not valid JSON are kept as strings.
func decodeResult(payload json.RawMessage) any {
	if len(payload) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return string(payload)
	}
	return v
}
