package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gestpipe/internal/app"
	"github.com/ayusman/gestpipe/internal/capture"
	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/detector"
	"github.com/ayusman/gestpipe/internal/events"
	"github.com/ayusman/gestpipe/internal/fixtures"
	"github.com/ayusman/gestpipe/internal/plugin"
	"github.com/ayusman/gestpipe/internal/practice"
	"github.com/ayusman/gestpipe/internal/recognizer"
	"github.com/ayusman/gestpipe/internal/server"
	"github.com/ayusman/gestpipe/internal/store"
)

func quiet(t *testing.T) {
	t.Helper()
	origRec, origCls := recognizer.Logf, classifier.Logf
	recognizer.SetLogger(nil)
	classifier.SetLogger(nil)
	t.Cleanup(func() {
		recognizer.Logf = origRec
		classifier.Logf = origCls
	})
}

// writePlugin installs a presentation plugin whose defaults bind next_slide.
func writePlugin(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "slides")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"slides","executable":"run.sh","actions":["present"],"defaults":{"next_slide":"present","wave":"present"}}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\nINPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":$INPUT}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestE2E_LiveRecognitionToAction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	quiet(t)

	tmpDir := t.TempDir()
	if err := fixtures.WriteReference(tmpDir); err != nil {
		t.Fatalf("WriteReference() error = %v", err)
	}
	cfg := config.Default(tmpDir)
	cfg.Artifacts.Dir = tmpDir
	cfg.Artifacts.Dataset = filepath.Join(tmpDir, fixtures.CompactDataset)
	cfg.Camera.IdleFPS = 20
	cfg.Camera.ActiveFPS = 30

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	models, err := app.LoadModels(cfg.Artifacts)
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	if err := app.ImportTemplates(s, models.Templates); err != nil {
		t.Fatalf("ImportTemplates() error = %v", err)
	}

	pluginRoot := filepath.Join(tmpDir, "plugins")
	writePlugin(t, pluginRoot)
	manager := plugin.NewManager(pluginRoot)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	dispatcher := plugin.NewDispatcher(manager, plugin.NewExecutor(5*time.Second), s.Actions())
	seeded, err := dispatcher.SeedDefaults(func(name string) bool {
		_, ok := models.Templates.Get(name)
		return ok
	})
	if err != nil || seeded != 1 {
		t.Fatalf("SeedDefaults() = %d, %v; want 1 (wave is not a template)", seeded, err)
	}

	hub := events.NewHub()
	bus := events.NewBus()
	bus.Add("ws", hub)
	bus.Add("log", events.NewRecorder(s.Events()))

	frames := capture.AlternatingFrames(2, 64, 48)
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()
	det := detector.NewMockDetector()
	det.SetSequence(app.DemoSequence())

	application := app.New(app.Config{
		Camera:     cfg.Camera,
		Recognizer: cfg.Recognizer,
		Artifacts:  models.Artifacts,
		Patterns:   models.Patterns.Table,
		Bus:        bus,
		Dispatcher: dispatcher,
	}, capture.NewMockCamera(frames, true), det)

	srv := server.New(server.Config{Store: s, Artifacts: models.Artifacts, Hub: hub, Pipeline: application, Quiet: true})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	for deadline := time.Now().Add(time.Second); hub.Clients() == 0 && time.Now().Before(deadline); {
		time.Sleep(10 * time.Millisecond)
	}

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	// Enable through the API, as the dashboard does.
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/pipeline", strings.NewReader(`{"enabled": true}`))
	resp, err := ts.Client().Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/pipeline = %v, %v", resp, err)
	}
	resp.Body.Close()

	var gestureEvt, actionEvt *events.Event
	conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	for gestureEvt == nil || actionEvt == nil {
		var e events.Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		switch e.Kind {
		case events.KindGesture:
			gestureEvt = &e
		case events.KindAction:
			actionEvt = &e
		}
	}

	if gestureEvt.Gesture != "next_slide" || !gestureEvt.Accepted {
		t.Errorf("gesture event = %+v, want accepted next_slide", gestureEvt)
	}
	if !actionEvt.Accepted || !strings.Contains(actionEvt.Detail, `"action":"present"`) {
		t.Errorf("action event = %+v, want plugin echo of the present action", actionEvt)
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/pipeline")
	var status server.PipelineStatus
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if !status.Enabled || status.Last == nil || status.Last.Gesture != "next_slide" {
		t.Errorf("pipeline status = %+v, want enabled with last next_slide", status)
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/events")
	var logged struct {
		Events []store.Event `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&logged)
	resp.Body.Close()
	if len(logged.Events) != 1 || logged.Events[0].Gesture != "next_slide" {
		t.Errorf("event log = %+v, want the one gesture", logged.Events)
	}
}

func TestE2E_PracticeCLIRoundTrip(t *testing.T) {
	quiet(t)
	tmpDir := t.TempDir()
	if err := fixtures.WriteReference(tmpDir); err != nil {
		t.Fatalf("WriteReference() error = %v", err)
	}
	cfg := config.Default(tmpDir)
	cfg.Artifacts.Dir = tmpDir
	cfg.Artifacts.Dataset = filepath.Join(tmpDir, fixtures.CompactDataset)

	models, err := app.LoadModels(cfg.Artifacts)
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	evaluator := practice.NewEvaluator(models.Templates, models.Artifacts, cfg.Practice)

	tests := []struct {
		name     string
		input    string
		wantCode string
	}{
		{
			name: "held static gesture",
			input: `{"left_fingers":[0,0,0,0,0],"right_fingers":[1,0,0,0,0],"duration":1.5,
				"motion_features":{"delta_x":0.001,"delta_y":0.0},"target_gesture":"home"}`,
		},
		{
			name:     "malformed input",
			input:    `{"target_gesture": "home", "right_fingers": "oops"}`,
			wantCode: practice.ReasonError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := practice.Serve(context.Background(), evaluator, cfg.Practice.DefaultDuration.Duration, strings.NewReader(tt.input), &out); err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			var resp practice.Response
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %s", out.String())
			}
			if resp.TargetGesture != "home" {
				t.Errorf("target_gesture = %q, want home", resp.TargetGesture)
			}
			if tt.wantCode != "" && resp.ReasonCode != tt.wantCode {
				t.Errorf("reason_code = %q, want %q", resp.ReasonCode, tt.wantCode)
			}
			if resp.ReasonMsg == "" {
				t.Error("reason_msg is empty")
			}
		})
	}
}
