package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reasonkit-web/internal/protocol"
)

// Dispatcher resolves tools/call requests against a Registry, validating
// arguments and bounding execution by a call-scoped timeout.
type Dispatcher struct {
	registry     *Registry
	callTimeout  time.Duration
	scriptPolicy ScriptPolicy
}

// NewDispatcher constructs a Dispatcher over the given registry. The
// script policy defaults to PermitAll; install a stricter one with
// WithScriptPolicy.
func NewDispatcher(registry *Registry, callTimeout time.Duration) *Dispatcher {
	return &Dispatcher{registry: registry, callTimeout: callTimeout, scriptPolicy: PermitAll{}}
}

// WithScriptPolicy installs the policy consulted before any tool call
// whose arguments carry a "script" field. Passing nil restores PermitAll.
func (d *Dispatcher) WithScriptPolicy(policy ScriptPolicy) *Dispatcher {
	if policy == nil {
		policy = PermitAll{}
	}
	d.scriptPolicy = policy
	return d
}

// List returns the registry's tool descriptors for tools/list.
func (d *Dispatcher) List() []Descriptor {
	return d.registry.List()
}

type callOutcome struct {
	content  []ContentItem
	err      error
	panicVal interface{}
}

// Call resolves name, validates rawArgs, and runs the handler. The returned
// *protocol.ProtocolError is non-nil only for protocol-level failures
// (unknown tool, bad arguments, handler panic); tool-level failures are
// carried in CallResult.IsError instead.
func (d *Dispatcher) Call(ctx context.Context, name string, rawArgs json.RawMessage) (CallResult, *protocol.ProtocolError) {
	tool, ok := d.registry.Get(name)
	if !ok {
		return CallResult{}, protocol.MethodNotFound(fmt.Sprintf("unknown tool %q", name))
	}

	args, perr := decodeArgs(rawArgs)
	if perr != nil {
		return CallResult{}, perr
	}

	if perr := validateArgs(tool, args); perr != nil {
		return CallResult{}, perr
	}

	if script, ok := args["script"].(string); ok {
		if err := d.scriptPolicy.Allow(script); err != nil {
			return CallResult{Content: []ContentItem{TextContent(fmt.Sprintf("tool %s rejected by script policy: %v", name, err))}, IsError: true}, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	outcome := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- callOutcome{panicVal: r}
			}
		}()
		content, err := tool.Execute(callCtx, args)
		outcome <- callOutcome{content: content, err: err}
	}()

	select {
	case out := <-outcome:
		if out.panicVal != nil {
			return CallResult{}, protocol.InternalError(fmt.Sprintf("tool %s panicked: %v", name, out.panicVal))
		}
		if out.err != nil {
			return CallResult{Content: []ContentItem{TextContent(fmt.Sprintf("tool %s failed: %v", name, out.err))}, IsError: true}, nil
		}
		return CallResult{Content: out.content, IsError: false}, nil
	case <-callCtx.Done():
		return CallResult{Content: []ContentItem{TextContent(fmt.Sprintf("tool %s timed out: %v", name, callCtx.Err()))}, IsError: true}, nil
	}
}

func decodeArgs(rawArgs json.RawMessage) (map[string]interface{}, *protocol.ProtocolError) {
	if len(rawArgs) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, protocol.InvalidParams(fmt.Sprintf("arguments must be a JSON object: %v", err))
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}
