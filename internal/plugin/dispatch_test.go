package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/gestpipe/internal/gesture"
	"github.com/ayusman/gestpipe/internal/store"
)

func newDispatchEnv(t *testing.T, m Manifest, script string) (*Dispatcher, *store.Store) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginRoot := t.TempDir()
	dir := writeManifest(t, pluginRoot, m)
	if err := os.WriteFile(filepath.Join(dir, m.Executable), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	manager := NewManager(pluginRoot)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return NewDispatcher(manager, NewExecutor(5*time.Second), s.Actions()), s
}

var keyboardManifest = Manifest{
	Name:       "keyboard",
	Executable: "run.sh",
	Actions:    []string{"present"},
	Defaults: map[string]string{
		"next_slide":     "present",
		"previous_slide": "present",
		"wave":           "present",
		"zoom_in":        "volume-up",
	},
}

func TestDispatcher_Dispatch(t *testing.T) {
	d, s := newDispatchEnv(t, keyboardManifest, `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	if err := s.Actions().Create(&store.Action{
		Gesture: "next_slide", PluginName: "keyboard", ActionName: "present", Enabled: true,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, err := d.Dispatch(context.Background(), "next_slide", 0.9)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !resp.Success {
		t.Errorf("response = %+v, want success", resp)
	}

	if _, err := d.Dispatch(context.Background(), "home", 0.9); !errors.Is(err, ErrNoBinding) {
		t.Errorf("unbound gesture error = %v, want ErrNoBinding", err)
	}
}

func TestDispatcher_DisabledAndBrokenBindings(t *testing.T) {
	d, s := newDispatchEnv(t, keyboardManifest, `echo '{"success":false,"error":"no key"}'
`)
	actions := s.Actions()
	actions.Create(&store.Action{Gesture: "home", PluginName: "keyboard", ActionName: "present", Enabled: false})
	actions.Create(&store.Action{Gesture: "end", PluginName: "missing", ActionName: "present", Enabled: true})
	actions.Create(&store.Action{Gesture: "zoom_out", PluginName: "keyboard", ActionName: "volume-down", Enabled: true})
	actions.Create(&store.Action{Gesture: "zoom_in", PluginName: "keyboard", ActionName: "present", Enabled: true})

	ctx := context.Background()
	if _, err := d.Dispatch(ctx, "home", 1); !errors.Is(err, ErrNoBinding) {
		t.Errorf("disabled binding error = %v, want ErrNoBinding", err)
	}
	if _, err := d.Dispatch(ctx, "end", 1); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("missing plugin error = %v, want ErrPluginNotFound", err)
	}
	if _, err := d.Dispatch(ctx, "zoom_out", 1); !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("undeclared action error = %v, want ErrUnsupportedAction", err)
	}
	resp, err := d.Dispatch(ctx, "zoom_in", 1)
	if err == nil || resp == nil || resp.Error != "no key" {
		t.Errorf("failed plugin = %+v, %v; want response with error", resp, err)
	}
}

func TestDispatcher_SeedDefaults(t *testing.T) {
	d, s := newDispatchEnv(t, keyboardManifest, "exit 0\n")
	s.Actions().Create(&store.Action{Gesture: "previous_slide", PluginName: "other", ActionName: "x", Enabled: true})

	known := gesture.NewTemplateSet([]gesture.Template{{Name: "next_slide"}, {Name: "previous_slide"}, {Name: "zoom_in"}})
	created, err := d.SeedDefaults(func(name string) bool {
		_, ok := known.Get(name)
		return ok
	})
	if err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	// wave is unknown, zoom_in names an undeclared action and
	// previous_slide is already bound.
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	actions, _ := s.Actions().List()
	got := map[string]string{}
	for _, a := range actions {
		got[a.Gesture] = a.PluginName + "/" + a.ActionName
	}
	want := map[string]string{
		"next_slide":     "keyboard/present",
		"previous_slide": "other/x",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}

	// Without a filter only wave is left to bind.
	if created, _ := d.SeedDefaults(nil); created != 1 {
		t.Errorf("unfiltered seed created %d, want 1", created)
	}
	if created, _ := d.SeedDefaults(nil); created != 0 {
		t.Errorf("repeat seed created %d, want 0", created)
	}
}
