package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/bridge"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/rover"
	"github.com/itohio/gorover/pkg/runner"
	"github.com/itohio/gorover/pkg/scope"
	"github.com/itohio/gorover/pkg/telemetry"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", true, "Use simulated rover instead of serial port")
		logFlag    = flag.String("log", "", "Log level override (debug, info, warn, error)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *logFlag != "" {
		cfg.Log.Level = *logFlag
	}
	log.Init(cfg.Log.Level)

	application := app.NewWithID("com.itohio.gorover")

	window := application.NewWindow("Rover")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
		recorder:   telemetry.NewRecorder(cfg.Telemetry),
		scope:      scope.New(cfg.Telemetry),
		status:     newStatusPanel(),
	}
	state.watchRecorder()

	toolbar := createToolbar(state)

	content := container.NewBorder(
		toolbar,
		nil,
		state.status.container,
		nil,
		state.scope,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		state.stop()
	})
	window.ShowAndRun()
}

// appState holds the application state. Fields are only touched on the Fyne
// thread unless noted.
type appState struct {
	cfg        *config.Config
	configPath string
	window     fyne.Window
	useMock    bool

	connectBtn *widget.Button
	status     *statusPanel
	scope      *scope.ScopeWidget
	recorder   *telemetry.Recorder // Safe for concurrent use

	run *runState // Current run (nil if not connected)

	// Throttling for scope updates (recorder goroutine)
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// runState tracks one connected run for graceful shutdown.
type runState struct {
	device     bridge.Device
	cancel     context.CancelFunc
	done       chan struct{} // Closed when the chain returns
	recordDone chan struct{} // Closed when the recorder drained its input
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(connectBtn, settingsBtn)
}

// watchRecorder pushes recorder updates to the scope at most ~60 times a
// second.
func (state *appState) watchRecorder() {
	const updateInterval = 16 * time.Millisecond

	state.recorder.OnUpdate(func(samples []telemetry.Sample, speeds []float64, spans []telemetry.Span) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		var last telemetry.Sample
		if len(samples) > 0 {
			last = samples[len(samples)-1]
		}

		fyne.Do(func() {
			state.scope.UpdateData(samples, speeds, spans)
			state.status.showSample(last)
		})
	})
}

// handleConnect starts or stops the rover.
func handleConnect(state *appState) {
	if state.run != nil {
		state.stop()
		return
	}

	var device bridge.Device
	if state.useMock {
		device = bridge.NewMock(&state.cfg.Mock)
	} else {
		device = bridge.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, state.cfg.Serial.Stale)
	}

	latest := &latestStatus{}
	chain := runner.New(state.cfg, device)
	chain.OnUpdate(func(st rover.Status) {
		latest.set(st)
		fyne.Do(func() {
			state.status.showStatus(st)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	rs := &runState{
		device:     device,
		cancel:     cancel,
		done:       make(chan struct{}),
		recordDone: make(chan struct{}),
	}
	state.run = rs
	state.connectBtn.SetIcon(theme.MediaStopIcon())

	go func() {
		err := chain.Run(ctx)
		close(rs.done)
		if err != nil {
			fyne.Do(func() {
				dialog.ShowError(err, state.window)
				if state.run == rs {
					state.stop()
				}
			})
		}
	}()

	// Telemetry chain: probe -> optional averaging -> recorder
	samples := telemetry.Record(ctx, newProbe(device, latest), state.cfg.Telemetry.Period, 100)
	if state.cfg.Telemetry.AverageSamples > 0 {
		samples = telemetry.NewAveragingConverter(state.cfg.Telemetry.AverageSamples, 100)(samples)
	}
	state.recorder.Reset()
	go func() {
		defer close(rs.recordDone)
		state.recorder.Process(samples)
	}()
}

// stop gracefully stops the current run, waiting for the rover to emergency
// stop and the telemetry chain to drain.
func (state *appState) stop() {
	rs := state.run
	if rs == nil {
		return
	}

	rs.cancel()
	<-rs.done
	<-rs.recordDone

	state.run = nil
	state.connectBtn.SetIcon(theme.MediaPlayIcon())
}

// latestStatus holds the last status reported by the loop.
type latestStatus struct {
	mu sync.Mutex
	st rover.Status
}

func (l *latestStatus) set(st rover.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st = st
}

func (l *latestStatus) get() rover.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}

// newProbe samples the rover for the telemetry trace. The simulated device
// also exposes its true distance and ramping duties.
func newProbe(device bridge.Device, latest *latestStatus) telemetry.Probe {
	return telemetry.ProbeFunc(func() telemetry.Sample {
		st := latest.get()
		s := telemetry.Sample{
			Timestamp: time.Now(),
			Distance:  float64(st.Distance),
			Voltage:   float64(st.Voltage),
			Motor:     st.Motor,
			Direction: st.Direction,
		}
		if m, ok := device.(*bridge.Mock); ok {
			s.Distance = m.Distance()
			s.Duties = m.Duties()
		}
		return s
	})
}
