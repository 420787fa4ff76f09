package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/arttools/internal/core"
	"github.com/dop251/goja"
)

// Predicate is a compiled filter expression. It is safe for concurrent use;
// evaluations are serialized on its runtime.
type Predicate struct {
	mu      sync.Mutex
	source  string
	program *goja.Program
	runtime *goja.Runtime
	timeout time.Duration
}

// String returns the expression source.
func (p *Predicate) String() string {
	return p.source
}

// Match evaluates the expression with the item bound to `item`. Field names
// follow the stored JSON form (artName, limitedTimeDeal, ...). The result is
// converted with JavaScript truthiness.
func (p *Predicate) Match(it core.Item) (bool, error) {
	fields, err := exportItem(it)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runtime.ClearInterrupt()
	if err := p.runtime.Set("item", fields); err != nil {
		return false, fmt.Errorf("failed to bind item: %w", err)
	}

	timer := time.AfterFunc(p.timeout, func() {
		p.runtime.Interrupt("filter timed out")
	})
	defer timer.Stop()

	value, err := p.runtime.RunProgram(p.program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return false, fmt.Errorf("execution interrupted: %v", interrupted.Value())
		}
		return false, fmt.Errorf("runtime error: %w", err)
	}

	if value == nil {
		return false, nil
	}
	return value.ToBoolean(), nil
}

// exportItem converts the item to plain maps so scripts see the JSON names
// and ids keep their number or string form.
func exportItem(it core.Item) (map[string]interface{}, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}

	// Optional fields are omitted from JSON; give scripts their zero values.
	defaults := map[string]interface{}{
		"brand":           "",
		"limitedTimeDeal": 0.0,
		"description":     "",
		"glassSurface":    false,
		"reviews":         []interface{}{},
	}
	for k, v := range defaults {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return fields, nil
}
