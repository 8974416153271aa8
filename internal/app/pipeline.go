package app

import (
	"context"
	"log"
	"time"

	"gocv.io/x/gocv"
)

// run is the frame loop. It owns the capture cadence: idle FPS while the
// scene is still, active FPS while something moves, and back to idle after
// IdleTimeout of stillness. Landmark detection and recognition only run in
// active mode.
func (a *App) run(stopCh, done chan struct{}) {
	defer close(done)

	ctx := context.Background()
	active := false
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Expire stale sequences even while recognition is off so the
			// status surface never shows a timed-out phrase.
			a.engine.Housekeep(time.Now().UnixMilli())

			if !a.Enabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			moving, _ := a.motion.Detect(frame)
			if moving {
				lastMotion = time.Now()
				if !active {
					active = true
					a.camera.SetFPS(a.config.ActiveFPS)
					ticker.Reset(time.Second / time.Duration(a.config.ActiveFPS))
					log.Println("Motion detected, switching to active capture")
				}
			} else if active && time.Since(lastMotion) > IdleTimeout {
				active = false
				a.camera.SetFPS(a.config.IdleFPS)
				ticker.Reset(time.Second / time.Duration(a.config.IdleFPS))
				log.Println("Scene still, switching to idle capture")
			}

			if !active {
				frame.Close()
				continue
			}

			a.processFrame(ctx, frame)
		}
	}
}

// processFrame runs landmark detection and recognition for one captured
// frame. The frame is closed here in all paths.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat) {
	start := time.Now()

	lm, err := a.source.Detect(frame)
	frame.Close()
	if err != nil {
		log.Printf("Error detecting landmarks: %v", err)
		return
	}

	lm.Timestamp = time.Now().UnixMilli()
	result := a.engine.ProcessFrame(&lm)

	if result.Dropped {
		a.metrics.FramesDropped.Add(ctx, 1)
		return
	}
	a.metrics.RecordFrame(ctx, time.Since(start).Seconds())

	if result.Event != nil {
		a.metrics.RecordRecognition(ctx, result.Event.Gesture)
	}
	if result.Match != nil {
		a.metrics.RecordPhraseMatch(ctx, result.Match.Name)
	}
}
