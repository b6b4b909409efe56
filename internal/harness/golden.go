package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fetchxml/internal/canonical"
)

// Snapshot captures the observable outcome of a scenario.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	XML          string       `json:"xml,omitempty"`
	Fingerprint  string       `json:"fingerprint,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		XML:          result.XML,
		Fingerprint:  result.Fingerprint,
	}
	if result.Err != nil {
		s.Error = result.Err.Error()
	}
	return s
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq":    event.Seq,
			"invoke": event.Invoke,
		}
		if len(event.Args) > 0 {
			args := make(map[string]any, len(event.Args))
			for k, v := range event.Args {
				if v != nil {
					args[k] = v
				}
			}
			m["args"] = args
		}
		if event.Rejected {
			m["rejected"] = true
			m["error"] = event.Error
		}
		trace[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
	if s.XML != "" {
		result["xml"] = s.XML
	}
	if s.Fingerprint != "" {
		result["fingerprint"] = s.Fingerprint
	}
	if s.Error != "" {
		result["error"] = s.Error
	}
	return result
}

// Marshal returns the canonical JSON encoding of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(name, result)
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
