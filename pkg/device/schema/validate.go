// Package schema holds the JSON Schema for settable media player state and
// a validator that compiles schema documents once.
package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalid wraps every payload rejection.
var ErrInvalid = errors.New("payload does not match schema")

// Validator compiles schema documents on first use, keyed by content digest.
type Validator struct {
	mu    sync.RWMutex
	cache map[[sha256.Size]byte]*jsonschema.Schema
}

// NewValidator creates a new Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[[sha256.Size]byte]*jsonschema.Schema),
	}
}

// Validate checks payload against schemaDoc. An empty document accepts
// anything. Rejections wrap ErrInvalid and name the offending fields.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	if empty(schemaDoc) {
		return nil
	}

	compiled, err := v.Compile(schemaDoc)
	if err != nil {
		return err
	}

	err = compiled.Validate(payload)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fmt.Errorf("%w at %s", ErrInvalid, strings.Join(locations(ve), ", "))
}

// Compile returns the compiled form of schemaDoc, compiling it on first use.
func (v *Validator) Compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := sha256.Sum256(schemaDoc)

	v.mu.RLock()
	s, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return s, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("state.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := c.Compile("state.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func empty(doc json.RawMessage) bool {
	switch string(bytes.TrimSpace(doc)) {
	case "", "{}", "null":
		return true
	}
	return false
}

// locations returns the sorted, de-duplicated instance paths of the leaf
// causes, "/" for the payload itself.
func locations(ve *jsonschema.ValidationError) []string {
	seen := map[string]bool{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			seen["/"+strings.Join(e.InstanceLocation, "/")] = true
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)

	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
