package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is a query definition in the definition package's YAML
	// shape. It is decoded when the scenario runs so that shape errors
	// can be expected with expect_error.
	Definition yaml.Node `yaml:"definition,omitempty"`

	// Steps are builder calls applied after the definition.
	Steps []Step `yaml:"steps,omitempty"`

	// ExpectXML is the expected rendering.
	ExpectXML string `yaml:"expect_xml,omitempty"`

	// ExpectError specifies the expected failure.
	ExpectError *ErrorExpectation `yaml:"expect_error,omitempty"`

	// Assertions are checked against the rendered XML.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Step is one builder call.
type Step struct {
	// Invoke names the builder method, e.g. "AddAttribute".
	Invoke string `yaml:"invoke"`

	// Args holds the call arguments by name.
	Args map[string]any `yaml:"args,omitempty"`
}

// ErrorExpectation specifies an expected error.
type ErrorExpectation struct {
	// Kind is "invalid_argument" or "invalid_definition".
	Kind string `yaml:"kind"`

	// Contains is an optional substring of the error message.
	Contains string `yaml:"contains,omitempty"`
}

// Error kinds.
const (
	KindInvalidArgument   = "invalid_argument"
	KindInvalidDefinition = "invalid_definition"
)

// Assertion type constants.
const (
	AssertElementExists  = "element_exists"
	AssertElementCount   = "element_count"
	AssertAttributeOrder = "attribute_order"
)

// Builder methods a step may invoke.
const (
	InvokeSetEntity        = "SetEntity"
	InvokeClearEntity      = "ClearEntity"
	InvokeSetDistinct      = "SetDistinct"
	InvokeSetAllAttributes = "SetAllAttributes"
	InvokeAddAttribute     = "AddAttribute"
	InvokeSetCount         = "SetCount"
	InvokeClearCount       = "ClearCount"
	InvokeSetOrder         = "SetOrder"
	InvokeClearOrder       = "ClearOrder"
)

var knownInvokes = map[string]bool{
	InvokeSetEntity:        true,
	InvokeClearEntity:      true,
	InvokeSetDistinct:      true,
	InvokeSetAllAttributes: true,
	InvokeAddAttribute:     true,
	InvokeSetCount:         true,
	InvokeClearCount:       true,
	InvokeSetOrder:         true,
	InvokeClearOrder:       true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Path = path
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.ExpectXML != "" && s.ExpectError != nil {
		return fmt.Errorf("expect_xml and expect_error are mutually exclusive")
	}

	if s.ExpectXML == "" && s.ExpectError == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("one of expect_xml, expect_error or assertions is required")
	}

	if s.ExpectError != nil {
		switch s.ExpectError.Kind {
		case KindInvalidArgument, KindInvalidDefinition:
		default:
			return fmt.Errorf("expect_error: unknown kind %q", s.ExpectError.Kind)
		}
	}

	for i, step := range s.Steps {
		if step.Invoke == "" {
			return fmt.Errorf("steps[%d]: invoke is required", i)
		}
		if !knownInvokes[step.Invoke] {
			return fmt.Errorf("steps[%d]: unknown method %q", i, step.Invoke)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertElementExists:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for element_exists", index)
		}
	case AssertElementCount:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for element_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for element_count", index)
		}
	case AssertAttributeOrder:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names list is required for attribute_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
