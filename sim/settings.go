package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gorover/pkg/bridge"
)

// showSettingsDialog displays a settings dialog with tabs for the
// configuration sections. Changes apply on the next connect, except the
// trace window which applies on restart.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createMotorTab(state),
		createPolicyTab(state),
		createMockTab(state),
		createTelemetryTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// save validates and writes the configuration, reporting errors in a dialog.
func save(state *appState) {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

func durationEntry(d time.Duration) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(d.String())
	return e
}

func numberEntry(v any) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(fmt.Sprint(v))
	return e
}

func parseDuration(e *widget.Entry, dst *time.Duration) {
	if d, err := time.ParseDuration(e.Text); err == nil && d > 0 {
		*dst = d
	}
}

func parseUint16(e *widget.Entry, dst *uint16) {
	if v, err := strconv.ParseUint(e.Text, 10, 16); err == nil {
		*dst = uint16(v)
	}
}

func parseUint8(e *widget.Entry, dst *uint8) {
	if v, err := strconv.ParseUint(e.Text, 10, 8); err == nil {
		*dst = uint8(v)
	}
}

func parseInt(e *widget.Entry, dst *int) {
	if v, err := strconv.Atoi(e.Text); err == nil {
		*dst = v
	}
}

func parseFloat(e *widget.Entry, dst *float64) {
	if v, err := strconv.ParseFloat(e.Text, 64); err == nil {
		*dst = v
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := bridge.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}
	baudEntry := numberEntry(state.cfg.Serial.BaudRate)
	staleEntry := durationEntry(state.cfg.Serial.Stale)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Stale After", Widget: staleEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				state.cfg.Serial.Port = portSelect.Selected
			}
			parseInt(baudEntry, &state.cfg.Serial.BaudRate)
			parseDuration(staleEntry, &state.cfg.Serial.Stale)
			save(state)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createMotorTab creates the Motor configuration tab.
func createMotorTab(state *appState) *container.TabItem {
	m := &state.cfg.Motor
	accelEntry := durationEntry(m.AccelTime)
	decelLeftEntry := durationEntry(m.DecelTimeLeft)
	decelRightEntry := durationEntry(m.DecelTimeRight)
	leftDutyEntry := numberEntry(m.LeftDuty)
	rightDutyEntry := numberEntry(m.RightDuty)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Acceleration", Widget: accelEntry},
			{Text: "Left Deceleration", Widget: decelLeftEntry},
			{Text: "Right Deceleration", Widget: decelRightEntry},
			{Text: "Left Duty (%)", Widget: leftDutyEntry},
			{Text: "Right Duty (%)", Widget: rightDutyEntry},
		},
		OnSubmit: func() {
			parseDuration(accelEntry, &m.AccelTime)
			parseDuration(decelLeftEntry, &m.DecelTimeLeft)
			parseDuration(decelRightEntry, &m.DecelTimeRight)
			parseUint8(leftDutyEntry, &m.LeftDuty)
			parseUint8(rightDutyEntry, &m.RightDuty)
			save(state)
		},
	}

	return container.NewTabItem("Motor", form)
}

// createPolicyTab creates the control Policy configuration tab.
func createPolicyTab(state *appState) *container.TabItem {
	p := &state.cfg.Policy
	noBatteryEntry := numberEntry(p.NoBattery)
	batteryLowEntry := numberEntry(p.BatteryLow)
	closeEntry := numberEntry(p.DistanceClose)
	samplesEntry := numberEntry(p.DistanceSamples)
	forwardEntry := durationEntry(p.ForwardHold)
	leftEntry := durationEntry(p.LeftHold)
	rightEntry := durationEntry(p.RightHold)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "No Battery (mV)", Widget: noBatteryEntry},
			{Text: "Battery Low (mV)", Widget: batteryLowEntry},
			{Text: "Obstacle Distance (cm)", Widget: closeEntry},
			{Text: "Distance Samples", Widget: samplesEntry},
			{Text: "Forward Hold", Widget: forwardEntry},
			{Text: "Left Hold", Widget: leftEntry},
			{Text: "Right Hold", Widget: rightEntry},
		},
		OnSubmit: func() {
			parseUint16(noBatteryEntry, &p.NoBattery)
			parseUint16(batteryLowEntry, &p.BatteryLow)
			parseUint16(closeEntry, &p.DistanceClose)
			parseInt(samplesEntry, &p.DistanceSamples)
			parseDuration(forwardEntry, &p.ForwardHold)
			parseDuration(leftEntry, &p.LeftHold)
			parseDuration(rightEntry, &p.RightHold)
			save(state)
		},
	}

	return container.NewTabItem("Policy", form)
}

// createMockTab creates the simulated rover configuration tab.
func createMockTab(state *appState) *container.TabItem {
	m := &state.cfg.Mock
	startEntry := numberEntry(m.StartDistance)
	speedEntry := numberEntry(m.Speed)
	patternEntry := widget.NewEntry()
	patternEntry.SetText(strings.Join(m.ColorPattern, ", "))
	periodEntry := durationEntry(m.ColorPeriod)
	batteryEntry := numberEntry(m.Battery)
	drainEntry := numberEntry(m.Drain)
	noiseEntry := numberEntry(m.NoiseLevel)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Start Distance (cm)", Widget: startEntry},
			{Text: "Speed (cm/s)", Widget: speedEntry},
			{Text: "Floor Colors", Widget: patternEntry},
			{Text: "Color Period", Widget: periodEntry},
			{Text: "Battery (mV)", Widget: batteryEntry},
			{Text: "Drain (mV/s)", Widget: drainEntry},
			{Text: "Noise Level", Widget: noiseEntry},
		},
		OnSubmit: func() {
			parseUint16(startEntry, &m.StartDistance)
			parseFloat(speedEntry, &m.Speed)
			if names := splitList(patternEntry.Text); len(names) > 0 {
				m.ColorPattern = names
			}
			parseDuration(periodEntry, &m.ColorPeriod)
			parseUint16(batteryEntry, &m.Battery)
			parseFloat(drainEntry, &m.Drain)
			parseFloat(noiseEntry, &m.NoiseLevel)
			save(state)
		},
	}

	return container.NewTabItem("Mock", form)
}

// createTelemetryTab creates the trace configuration tab.
func createTelemetryTab(state *appState) *container.TabItem {
	t := &state.cfg.Telemetry
	windowEntry := durationEntry(t.Window)
	periodEntry := durationEntry(t.Period)
	averageEntry := numberEntry(t.AverageSamples)
	minSpanEntry := durationEntry(t.MinSpan)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry},
			{Text: "Sample Period", Widget: periodEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
			{Text: "Min Span", Widget: minSpanEntry},
		},
		OnSubmit: func() {
			parseDuration(windowEntry, &t.Window)
			parseDuration(periodEntry, &t.Period)
			parseInt(averageEntry, &t.AverageSamples)
			parseDuration(minSpanEntry, &t.MinSpan)
			save(state)
		},
	}

	return container.NewTabItem("Telemetry", form)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
