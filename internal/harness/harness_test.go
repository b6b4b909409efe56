package harness

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchxml"
	"github.com/roach88/fetchxml/internal/definition"
)

func mustParse(t *testing.T, content string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return s
}

func TestRunScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_EmptyDefinition(t *testing.T) {
	s := mustParse(t, `
name: empty
description: "no definition"
expect_xml: <fetch mapping="logical" distinct="false"/>
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, `<fetch mapping="logical" distinct="false"/>`, result.XML)
	assert.Len(t, result.Fingerprint, 64)
	assert.Empty(t, result.Trace)
}

func TestRun_FingerprintMatchesQuery(t *testing.T) {
	s := mustParse(t, `
name: fp
description: "fingerprint"
definition:
  entity: contact
  attributes: [fullname]
assertions:
  - type: attribute_order
    names: [fullname]
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	want, err := fetchxml.New().SetEntity("contact").AddAttribute("fullname").Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, result.Fingerprint)
}

func TestRun_XMLMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: "wrong expectation"
definition:
  entity: contact
expect_xml: <fetch mapping="logical" distinct="false"><entity name="account"/></fetch>
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "XML mismatch")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := mustParse(t, `
name: unexpected
description: "error without expect_error"
steps:
  - invoke: SetOrder
    args: { attribute: "" }
expect_xml: <fetch/>
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.True(t, errors.Is(result.Err, fetchxml.ErrInvalidArgument))
	assert.Empty(t, result.XML)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := mustParse(t, `
name: missing_error
description: "valid query but error expected"
definition:
  entity: contact
expect_error:
  kind: invalid_argument
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected invalid_argument error")
}

func TestRun_ErrorKindMismatch(t *testing.T) {
	s := mustParse(t, `
name: kind_mismatch
description: "definition error but argument error expected"
definition:
  entity: contact
  colour: red
expect_error:
  kind: invalid_argument
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.True(t, errors.Is(result.Err, definition.ErrInvalidDefinition))
	assert.Nil(t, result.Query)
}

func TestRun_ErrorContainsMismatch(t *testing.T) {
	s := mustParse(t, `
name: contains_mismatch
description: "wrong message"
definition:
  distinct: "yes"
expect_error:
  kind: invalid_argument
  contains: SetCount
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `expected error containing "SetCount"`)
}

func TestRun_TracesRejectedCalls(t *testing.T) {
	s := mustParse(t, `
name: trace
description: "rejections are traced"
definition:
  entity: contact
steps:
  - invoke: SetDistinct
    args: { value: "yes" }
  - invoke: AddAttribute
    args: { name: fullname }
  - invoke: SetOrder
    args: { attribute: " ", descending: true }
  - invoke: SetAllAttributes
    args: { value: 1 }
expect_error:
  kind: invalid_argument
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 4)
	assert.True(t, result.Trace[0].Rejected)
	assert.Contains(t, result.Trace[0].Error, "SetDistinct")
	assert.False(t, result.Trace[1].Rejected)
	assert.True(t, result.Trace[2].Rejected)
	assert.Contains(t, result.Trace[2].Error, "SetOrder")
	assert.True(t, result.Trace[3].Rejected)
	assert.Contains(t, result.Trace[3].Error, "SetAllAttributes")

	for i, event := range result.Trace {
		assert.Equal(t, int64(i+1), event.Seq)
	}

	distinct := result.Query.Distinct()
	assert.False(t, distinct)
	_, hasOrder := result.Query.Order()
	assert.False(t, hasOrder)
	assert.Len(t, result.Query.Attributes(), 1)
}

func TestRun_SetOrderReportsAttributeType(t *testing.T) {
	s := mustParse(t, `
name: order_type
description: "a numeric order attribute is rejected with its type"
definition:
  entity: contact
  order: name
steps:
  - invoke: SetOrder
    args: { attribute: 5 }
expect_error:
  kind: invalid_argument
  contains: "got int"
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	assert.True(t, result.Trace[0].Rejected)
	assert.Contains(t, result.Trace[0].Error, "SetOrder")
	assert.Contains(t, result.Trace[0].Error, "got int")

	order, ok := result.Query.Order()
	require.True(t, ok)
	assert.Equal(t, "name", order.Attribute)
}

func TestRun_MalformedStep(t *testing.T) {
	s := &Scenario{
		Name:        "malformed",
		Description: "missing name argument",
		Steps:       []Step{{Invoke: InvokeAddAttribute}},
		ExpectXML:   "<fetch/>",
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name argument is required")
}

func TestRun_AllBuilderMethods(t *testing.T) {
	s := mustParse(t, `
name: all_methods
description: "every method"
steps:
  - invoke: SetEntity
    args: { name: contact }
  - invoke: AddAttribute
    args: { name: a }
  - invoke: SetAllAttributes
    args: { value: true }
  - invoke: SetAllAttributes
    args: { value: false }
  - invoke: SetCount
    args: { value: 4 }
  - invoke: SetCount
    args: { value: ~ }
  - invoke: SetCount
    args: { value: 7 }
  - invoke: SetOrder
    args: { attribute: a }
  - invoke: ClearOrder
  - invoke: SetOrder
    args: { attribute: a, descending: true }
  - invoke: ClearEntity
  - invoke: SetEntity
    args: { name: account }
expect_xml: |
  <fetch mapping="logical" distinct="false" count="7">
    <entity name="account">
      <attribute name="a"/>
      <order attribute="a" descending="true"/>
    </entity>
  </fetch>
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 12)
}

func TestRunWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	path := filepath.Join("testdata", "scenarios", "contact_projection.yaml")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := RunWithLogger(scenario, logger)
	require.NoError(t, err)
	assert.True(t, result.Pass)

	out := buf.String()
	assert.Contains(t, out, `"scenario":"contact_projection"`)
	assert.Contains(t, out, "step applied")
	assert.Contains(t, out, "query saved")
}

func TestRun_Deterministic(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "contact_projection.yaml")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.XML, second.XML)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{
		"contact_projection",
		"readd_keeps_position",
		"count_asymmetry",
		"rejected_order",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGoldenFilesExist(t *testing.T) {
	for _, name := range []string{"contact_projection", "readd_keeps_position", "count_asymmetry", "rejected_order"} {
		_, err := os.Stat(filepath.Join("testdata", "golden", name+".golden"))
		assert.NoError(t, err, name)
	}
}
