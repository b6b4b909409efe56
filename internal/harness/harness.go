package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/fetchxml"
	"github.com/roach88/fetchxml/internal/catalog"
	"github.com/roach88/fetchxml/internal/definition"
	"github.com/roach88/fetchxml/internal/logging"
	"github.com/roach88/fetchxml/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
	query   *fetchxml.Query
	result  *Result
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Decode and build the definition (an empty definition yields New())
// 2. Apply steps in order, tracing each call
// 3. Render, then save to a fresh in-memory catalog and read back
// 4. Check expect_xml or expect_error, then assertions
//
// The returned error reports harness failures only; scenario failures are
// recorded in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, logging.Nop())
}

// RunWithLogger is Run with debug output sent to logger.
func RunWithLogger(scenario *Scenario, logger zerolog.Logger) (*Result, error) {
	cat, err := catalog.Open(":memory:",
		catalog.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		catalog.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory catalog: %w", err)
	}
	defer cat.Close()

	h := &Harness{
		catalog: cat,
		logger:  logger.With().Str("scenario", scenario.Name).Logger(),
		result:  NewResult(),
	}

	ctx := context.Background()
	if err := h.build(scenario); err != nil {
		h.result.Err = err
	} else {
		if err := h.executeSteps(scenario.Steps); err != nil {
			return nil, err
		}
		if err := h.render(ctx, scenario.Name); err != nil {
			return nil, err
		}
	}

	h.checkExpectations(scenario)
	return h.result, nil
}

func (h *Harness) build(scenario *Scenario) error {
	if scenario.Definition.Kind == 0 {
		h.query = fetchxml.New()
		h.result.Query = h.query
		return nil
	}

	def, err := definition.ParseYAMLNode(&scenario.Definition, scenario.Path)
	if err != nil {
		return err
	}
	q, err := definition.Build(def)
	if err != nil {
		return err
	}
	h.query = q
	h.result.Query = q
	return nil
}

// executeSteps applies each builder call. A rejected call is traced and
// execution continues, as it does for a fluent chain.
func (h *Harness) executeSteps(steps []Step) error {
	var rejected []error
	for i, step := range steps {
		before := errorCount(h.query.Err())
		argErr := h.apply(step)
		if argErr != nil && !fetchxml.IsInvalidArgument(argErr) {
			return fmt.Errorf("step %d: %w", i, argErr)
		}
		if argErr == nil && errorCount(h.query.Err()) > before {
			argErr = lastError(h.query.Err())
		}
		if argErr != nil {
			rejected = append(rejected, argErr)
		}
		h.result.AddTrace(step.Invoke, step.Args, argErr)

		h.logger.Debug().
			Int("step", i).
			Str("invoke", step.Invoke).
			Bool("rejected", argErr != nil).
			Msg("step applied")
	}

	if len(rejected) > 0 {
		h.result.Err = errors.Join(rejected...)
	}
	return nil
}

// apply performs one call. Arguments of the wrong dynamic type are returned
// as argument errors without touching the query; malformed steps return
// other errors.
func (h *Harness) apply(step Step) error {
	q := h.query
	switch step.Invoke {
	case InvokeSetEntity:
		name, err := stringArg(step, "name")
		if err != nil {
			return err
		}
		q.SetEntity(name)
	case InvokeClearEntity:
		q.ClearEntity()
	case InvokeSetDistinct:
		v, err := boolArg(step, "value")
		if err != nil {
			return err
		}
		q.SetDistinct(v)
	case InvokeSetAllAttributes:
		v, err := boolArg(step, "value")
		if err != nil {
			return err
		}
		q.SetAllAttributes(v)
	case InvokeAddAttribute:
		name, err := stringArg(step, "name")
		if err != nil {
			return err
		}
		if alias, ok := step.Args["alias"].(string); ok {
			q.AddAttribute(name, alias)
		} else {
			q.AddAttribute(name)
		}
	case InvokeSetCount:
		switch v := step.Args["value"].(type) {
		case nil:
			q.ClearCount()
		case int:
			q.SetCount(v)
		default:
			return fetchxml.InvalidArgument(step.Invoke, "argument must be an integer or null, got %T", v)
		}
	case InvokeClearCount:
		q.ClearCount()
	case InvokeSetOrder:
		v, present := step.Args["attribute"]
		if present && v == nil {
			q.ClearOrder()
			break
		}
		attribute, ok := v.(string)
		if present && !ok {
			return fetchxml.InvalidArgument(step.Invoke, "attribute must be a non-empty string, got %T", v)
		}
		descending, err := boolArg(step, "descending")
		if err != nil {
			return err
		}
		q.SetOrder(attribute, descending)
	case InvokeClearOrder:
		q.ClearOrder()
	default:
		return fmt.Errorf("unknown method %q", step.Invoke)
	}
	return nil
}

func (h *Harness) render(ctx context.Context, name string) error {
	if h.result.Err != nil {
		return nil
	}

	xml, err := h.query.Render()
	if err != nil {
		h.result.Err = err
		return nil
	}
	h.result.XML = xml

	if _, err := h.catalog.Save(ctx, name, h.query); err != nil {
		return fmt.Errorf("save to catalog: %w", err)
	}
	rec, err := h.catalog.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("read from catalog: %w", err)
	}
	if rec.XML != xml {
		h.result.AddError(fmt.Sprintf("catalog round trip changed XML:\n  saved: %s\n  read:  %s", xml, rec.XML))
	}
	h.result.Fingerprint = rec.Fingerprint
	return nil
}

func (h *Harness) checkExpectations(s *Scenario) {
	r := h.result

	switch {
	case s.ExpectError != nil:
		if r.Err == nil {
			r.AddError(fmt.Sprintf("expected %s error, got XML: %s", s.ExpectError.Kind, r.XML))
			return
		}
		if msg := matchError(r.Err, s.ExpectError); msg != "" {
			r.AddError(msg)
		}
		return
	case r.Err != nil:
		r.AddError(fmt.Sprintf("unexpected error: %v", r.Err))
		return
	case s.ExpectXML != "":
		equal, err := testutil.EqualXML(s.ExpectXML, r.XML)
		if err != nil {
			r.AddError(fmt.Sprintf("compare XML: %v", err))
		} else if !equal {
			r.AddError(fmt.Sprintf("XML mismatch:\n  expected: %s\n  actual:   %s", strings.TrimSpace(s.ExpectXML), r.XML))
		}
	}

	for _, msg := range EvaluateAssertions(r.XML, s.Assertions) {
		r.AddError(msg)
	}
}

func matchError(err error, want *ErrorExpectation) string {
	var ok bool
	switch want.Kind {
	case KindInvalidArgument:
		ok = errors.Is(err, fetchxml.ErrInvalidArgument)
	case KindInvalidDefinition:
		ok = errors.Is(err, definition.ErrInvalidDefinition)
	}
	if !ok {
		return fmt.Sprintf("expected %s error, got: %v", want.Kind, err)
	}
	if want.Contains != "" && !strings.Contains(err.Error(), want.Contains) {
		return fmt.Sprintf("expected error containing %q, got: %v", want.Contains, err)
	}
	return ""
}

func stringArg(step Step, key string) (string, error) {
	switch v := step.Args[key].(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("%s: %s argument is required", step.Invoke, key)
	default:
		return fmt.Sprint(v), nil
	}
}

// boolArg reads an optional boolean; absent means false.
func boolArg(step Step, key string) (bool, error) {
	v, present := step.Args[key]
	if !present {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fetchxml.InvalidArgument(step.Invoke, "%s argument must be boolean, got %T", key, v)
	}
	return b, nil
}

func errorCount(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

func lastError(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		return errs[len(errs)-1]
	}
	return err
}
