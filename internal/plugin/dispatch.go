package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/gestpipe/internal/store"
)

var (
	// ErrNoBinding is returned when no enabled action is bound to a gesture.
	ErrNoBinding = errors.New("no action bound to gesture")
	// ErrUnsupportedAction is returned when a binding names an action its
	// plugin does not declare.
	ErrUnsupportedAction = errors.New("plugin does not support action")
)

// Dispatcher runs the action bound to a recognized gesture.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	actions  *store.ActionRepository
}

// NewDispatcher wires bindings from actions to plugins from manager.
func NewDispatcher(manager *Manager, executor *Executor, actions *store.ActionRepository) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor, actions: actions}
}

// Dispatch looks up the binding for gesture and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, gesture string, confidence float64) (*Response, error) {
	binding, err := d.actions.GetByGesture(gesture)
	if err != nil {
		return nil, fmt.Errorf("look up binding for %s: %w", gesture, err)
	}
	if binding == nil || !binding.Enabled {
		return nil, ErrNoBinding
	}

	p, err := d.manager.Get(binding.PluginName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", binding.PluginName, err)
	}
	if !p.Manifest.Supports(binding.ActionName) {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedAction, binding.PluginName, binding.ActionName)
	}

	params, _ := json.Marshal(map[string]string{"gesture": gesture})
	resp, err := d.executor.Execute(ctx, p, &Request{
		Action:     binding.ActionName,
		Gesture:    gesture,
		Confidence: confidence,
		Config:     binding.Config,
		Params:     params,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s/%s: %s", binding.PluginName, binding.ActionName, resp.Error)
	}
	return resp, nil
}

// SeedDefaults creates bindings from plugin manifest defaults for gestures
// that have none. known limits seeding to gestures the recognizer can emit;
// nil accepts every gesture. It returns how many bindings were created.
func (d *Dispatcher) SeedDefaults(known func(string) bool) (int, error) {
	created := 0
	for _, p := range d.manager.List() {
		for gesture, action := range p.Manifest.Defaults {
			if known != nil && !known(gesture) {
				continue
			}
			if !p.Manifest.Supports(action) {
				log.Printf("Plugin %s default %s -> %s names an undeclared action", p.Manifest.Name, gesture, action)
				continue
			}
			existing, err := d.actions.GetByGesture(gesture)
			if err != nil {
				return created, err
			}
			if existing != nil {
				continue
			}
			err = d.actions.Create(&store.Action{
				Gesture:    gesture,
				PluginName: p.Manifest.Name,
				ActionName: action,
				Enabled:    true,
			})
			if err != nil {
				return created, fmt.Errorf("seed %s: %w", gesture, err)
			}
			created++
		}
	}
	return created, nil
}
