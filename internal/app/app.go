// Package app runs the live recognition loop: camera frames pass the motion
// gate, go through hand tracking and the recognizer, and every result is
// published as an event and, when accepted, dispatched to its bound action.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gestpipe/internal/capture"
	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/detector"
	"github.com/ayusman/gestpipe/internal/events"
	"github.com/ayusman/gestpipe/internal/gesture"
	"github.com/ayusman/gestpipe/internal/plugin"
	"github.com/ayusman/gestpipe/internal/recognizer"
	"github.com/ayusman/gestpipe/internal/server"
)

// Config holds the collaborators of the loop.
type Config struct {
	Camera     config.Camera
	Recognizer config.Recognizer
	Artifacts  *classifier.Cache
	Patterns   gesture.PatternTable
	// Bus receives gesture, state and action events. Nil publishes nothing.
	Bus        *events.Bus
	// Dispatcher runs bound actions for accepted gestures. Nil disables actions.
	Dispatcher *plugin.Dispatcher
	// QueueSize bounds the events waiting for delivery; when full, new events
	// are dropped. Zero means DefaultQueueSize.
	QueueSize  int
}

// DefaultQueueSize is the delivery queue length used when Config.QueueSize is zero.
const DefaultQueueSize = 64

// job is one unit of work for the delivery goroutine: an event to publish
// and, for accepted gestures, the result whose action should run.
type job struct {
	event  events.Event
	result *recognizer.Result
}

// App is the main application that orchestrates gesture detection and action execution.
type App struct {
	cfg        Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	gate       *capture.Gate
	detector   detector.Detector
	recognizer *recognizer.Recognizer

	mu           sync.RWMutex
	enabled      bool
	state        recognizer.State
	last         *events.Event
	stopCh       chan struct{}
	doneCh       chan struct{}
	jobs         chan job
	stopDelivery func()
	now          func() time.Time

	// OnGesture, when set, is called from the delivery goroutine for every
	// classified capture.
	OnGesture func(e events.Event)
}

// New creates an App reading from camera and tracking hands with det.
// Detection starts disabled.
func New(cfg Config, camera capture.Camera, det detector.Detector) *App {
	a := &App{
		cfg:      cfg,
		camera:   camera,
		motion:   capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		gate:     capture.NewGate(cfg.Camera),
		detector: det,
		state:    recognizer.StateWait,
		now:      time.Now,
	}
	a.recognizer = recognizer.New(cfg.Recognizer, cfg.Artifacts, cfg.Patterns)
	a.recognizer.OnStateChange = a.stateChanged
	if a.cfg.QueueSize <= 0 {
		a.cfg.QueueSize = DefaultQueueSize
	}
	return a
}

// SetEnabled enables or disables gesture detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		log.Printf("Gesture detection enabled: %v", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Status reports the loop state for the HTTP API. The last gesture is only
// reported while it is inside the display window.
func (a *App) Status() server.PipelineStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := server.PipelineStatus{Enabled: a.enabled, State: a.state.String()}
	if a.last != nil && a.now().Sub(a.last.At) < a.cfg.Recognizer.DisplayDuration.Duration {
		last := *a.last
		st.Last = &last
	}
	return st
}

// Start opens the camera and begins the detection loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.gate.FPS())

	a.stopDelivery = a.startDeliveryLocked()
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the loop, waits for it to exit and releases the camera,
// motion buffers and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh, stopDelivery := a.stopCh, a.doneCh, a.stopDelivery
	a.stopCh, a.doneCh, a.stopDelivery = nil, nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	stopDelivery()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	log.Println("Detection pipeline stopped")
}

func (a *App) stateChanged(from, to recognizer.State) {
	a.mu.Lock()
	a.state = to
	a.mu.Unlock()
	a.enqueue(job{event: events.StateChange(from, to, a.now())})
}

// handleResult records a classified capture and queues it for delivery.
func (a *App) handleResult(res *recognizer.Result) {
	e := events.FromResult(res)
	a.mu.Lock()
	a.last = &e
	a.mu.Unlock()

	log.Printf("Gesture %s (%s) confidence %.2f accepted=%v", res.Gesture, res.Type, res.Confidence, res.Accepted)
	j := job{event: e}
	if res.Accepted && a.cfg.Dispatcher != nil {
		j.result = res
	}
	a.enqueue(j)
}

// enqueue hands j to the delivery goroutine without blocking the frame loop.
func (a *App) enqueue(j job) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.jobs == nil {
		return
	}
	select {
	case a.jobs <- j:
	default:
		log.Printf("Delivery queue full, dropping %s event", j.event.Kind)
	}
}

// startDeliveryLocked starts the delivery goroutine. The returned function
// closes the queue, waits for queued jobs to finish and must be called
// without a.mu held.
func (a *App) startDeliveryLocked() func() {
	jobs := make(chan job, a.cfg.QueueSize)
	done := make(chan struct{})
	a.jobs = jobs
	go a.deliver(jobs, done)

	return func() {
		a.mu.Lock()
		if a.jobs == jobs {
			a.jobs = nil
		}
		a.mu.Unlock()
		close(jobs)
		<-done
	}
}

// deliver publishes events and runs actions in queue order, so an action
// event always follows the gesture event that caused it.
func (a *App) deliver(jobs <-chan job, done chan<- struct{}) {
	defer close(done)
	ctx := context.Background()
	for j := range jobs {
		if a.cfg.Bus != nil {
			a.cfg.Bus.Publish(ctx, j.event)
		}
		if j.event.Kind == events.KindGesture && a.OnGesture != nil {
			a.OnGesture(j.event)
		}
		if j.result != nil {
			a.dispatch(ctx, j.result)
		}
	}
}

func (a *App) dispatch(ctx context.Context, res *recognizer.Result) {
	resp, err := a.cfg.Dispatcher.Dispatch(ctx, res.Gesture, res.Confidence)
	if errors.Is(err, plugin.ErrNoBinding) {
		return
	}

	e := events.Event{
		ID:         uuid.NewString(),
		Kind:       events.KindAction,
		At:         a.now(),
		Gesture:    res.Gesture,
		Confidence: res.Confidence,
		Accepted:   err == nil,
		Detail:     "ok",
	}
	if err != nil {
		log.Printf("Action for %s failed: %v", res.Gesture, err)
		e.Detail = err.Error()
	} else if resp != nil && len(resp.Data) > 0 {
		e.Detail = string(resp.Data)
	}
	if a.cfg.Bus != nil {
		a.cfg.Bus.Publish(ctx, e)
	}
}
