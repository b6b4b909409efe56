package harness

import "github.com/roach88/fetchxml"

// TraceEvent records one builder call made by a scenario.
type TraceEvent struct {
	Seq      int64          `json:"seq"`
	Invoke   string         `json:"invoke"`
	Args     map[string]any `json:"args,omitempty"`
	Rejected bool           `json:"rejected,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// XML is the rendered query, empty when rendering failed.
	XML string `json:"xml,omitempty"`

	// Fingerprint is the catalog fingerprint of the rendered query.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Err is the definition or argument error that prevented rendering.
	Err error `json:"-"`

	// Trace contains every builder call in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Query is the built query, nil when the definition was rejected.
	Query *fetchxml.Query `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a call to the trace.
func (r *Result) AddTrace(invoke string, args map[string]any, err error) {
	event := TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Invoke: invoke,
		Args:   args,
	}
	if err != nil {
		event.Rejected = true
		event.Error = err.Error()
	}
	r.Trace = append(r.Trace, event)
}
