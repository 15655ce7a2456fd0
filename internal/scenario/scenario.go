// Package scenario runs scripted sequences of interval tree operations and
// checks their outcomes, verifying the red-black properties along the way.
package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Supported step operations.
const (
	OpInsert            = "insert"
	OpDelete            = "delete"
	OpMark              = "mark"
	OpFindExact         = "find_exact"
	OpFindContaining    = "find_containing"
	OpFindFreeOverlap   = "find_free_overlap"
	OpDeleteFreeInRange = "delete_free_in_range"
	OpVerify            = "verify"
	OpDump              = "dump"
)

// Error kinds accepted by expect.error.
const (
	ErrorKindNotFound       = "not_found"
	ErrorKindInvalidAddress = "invalid_address"
)

var knownOps = []string{
	OpInsert, OpDelete, OpMark, OpFindExact, OpFindContaining,
	OpFindFreeOverlap, OpDeleteFreeInRange, OpVerify, OpDump,
}

var (
	// ErrSchema indicates a scenario document that does not match the schema.
	ErrSchema = errors.New("scenario does not match schema")
	// ErrUnknownOp indicates a step with an unsupported operation.
	ErrUnknownOp = errors.New("unknown operation")
	// ErrExpectation indicates a step whose outcome differs from its expectation.
	ErrExpectation = errors.New("expectation failed")
)

//go:embed schema.json
var schemaJSON []byte

// Scenario is a named list of steps run against one fresh tree.
type Scenario struct {
	Name              string `yaml:"name"`
	AllocatedOnInsert *bool  `yaml:"allocated_on_insert"`
	Steps             []Step `yaml:"steps"`
}

// Step is one tree operation with an optional expectation.
type Step struct {
	Op        string  `yaml:"op"`
	Address   uint64  `yaml:"address"`
	Length    uint64  `yaml:"length"`
	Point     uint64  `yaml:"point"`
	Allocated *bool   `yaml:"allocated"`
	Expect    *Expect `yaml:"expect"`
}

// Expect describes the outcome a step must produce. Unset fields are not checked.
type Expect struct {
	Address *uint64 `yaml:"address"`
	Absent  bool    `yaml:"absent"`
	Removed *int    `yaml:"removed"`
	Error   string  `yaml:"error"`
	Dump    *string `yaml:"dump"`
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read scenario: %w", readErr)
	}

	sc, parseErr := Parse(data)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", path, parseErr)
	}

	return sc, nil
}

// Parse decodes a YAML scenario and validates it against the embedded schema.
func Parse(data []byte) (*Scenario, error) {
	var doc map[string]any

	unmarshalErr := yaml.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("decode scenario: %w", unmarshalErr)
	}

	schemaErr := validateSchema(doc)
	if schemaErr != nil {
		return nil, schemaErr
	}

	var sc Scenario

	decodeErr := yaml.Unmarshal(data, &sc)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode scenario: %w", decodeErr)
	}

	for idx, step := range sc.Steps {
		if !slices.Contains(knownOps, step.Op) {
			return nil, &StepError{Index: idx, Op: step.Op, Err: ErrUnknownOp}
		}
	}

	return &sc, nil
}

func validateSchema(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrSchema)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// StepError reports the step at which a scenario stopped.
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
