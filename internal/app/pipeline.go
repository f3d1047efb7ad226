package app

import (
	"log"
	"time"

	"github.com/ayusman/gestpipe/internal/detector"
	"github.com/ayusman/gestpipe/internal/recognizer"
)

// run is the detection loop. It reads one frame per tick; the tick rate
// follows the motion gate (idle or active FPS).
//
// Loop logic:
// 1. Start in idle mode
// 2. On motion, switch to active mode and track hands on every frame
// 3. Feed each frame to the recognizer; queue its events and actions for the
//    delivery goroutine
// 4. After the idle timeout without motion, switch back to idle mode. A
//    capture in progress counts as motion, so only trigger release ends it
func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			if a.step(a.now()) {
				ticker.Reset(a.gate.Interval())
			}
		}
	}
}

// step processes one camera frame and reports whether the gate changed mode.
func (a *App) step(now time.Time) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return false
	}
	defer frame.Close()

	motion, _ := a.motion.Detect(frame)
	capturing := a.recognizer.State() != recognizer.StateWait
	changed := a.gate.Observe(motion || capturing, now)
	if changed {
		a.camera.SetFPS(a.gate.FPS())
		if a.gate.Active() {
			log.Println("Switched to active mode")
		} else {
			log.Println("Switched to idle mode")
		}
	}

	if !a.gate.Active() || a.detector == nil {
		return changed
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return changed
	}

	res, err := a.recognizer.Step(detector.Frame{Hands: hands, Timestamp: now.UnixMilli()}, now)
	if err != nil {
		log.Printf("Capture discarded: %v", err)
		return changed
	}
	if res != nil {
		a.handleResult(res)
	}
	return changed
}
