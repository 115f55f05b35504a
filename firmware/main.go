//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcBattery machine.ADC
	uart       = machine.Serial

	// Timing
	lastColor    time.Time
	lastDistance time.Time
	lastBattery  time.Time
	lastFade     time.Time

	// Serial buffer for reading command lines
	serialBuffer [32]byte
	serialPos    int
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	configureMotors()
	configureLED()
	configureRange()

	PIN_BATTERY.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcBattery = machine.ADC{Pin: PIN_BATTERY}
	adcBattery.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	machine.I2C0.Configure(machine.I2CConfig{
		SDA:       PIN_SDA,
		SCL:       PIN_SCL,
		Frequency: 100 * machine.KHz,
	})
	colorReady := configureColor() == nil
	if !colorReady {
		println("color sensor not found")
	}

	for {
		now := time.Now()

		// Check for commands (non-blocking)
		processSerial()

		if now.Sub(lastFade) >= FADE_STEP_MS*time.Millisecond {
			updateFades(now)
			lastFade = now
		}

		if colorReady && now.Sub(lastColor) >= COLOR_PERIOD_MS*time.Millisecond {
			reportColor()
			lastColor = now
		}

		if now.Sub(lastDistance) >= DISTANCE_PERIOD_MS*time.Millisecond {
			reportDistance()
			lastDistance = now
		}

		if now.Sub(lastBattery) >= BATTERY_PERIOD_MS*time.Millisecond {
			reportBattery()
			lastBattery = now
		}

		time.Sleep(500 * time.Microsecond)
	}
}

// Output format: "V,millivolts\n"
func reportBattery() {
	raw := uint32(adcBattery.Get()) // Always scaled to 16 bits
	mv := raw * ADC_REFERENCE_MV / 0xFFFF * BATTERY_DIVIDER

	print("V,")
	print(mv)
	print("\n")
}

// processSerial collects command lines and runs complete ones.
func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if serialPos > 0 {
				runCommand(serialBuffer[:serialPos])
			}
			serialPos = 0
			continue
		}

		if data == ' ' || data == '\t' {
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			// Overlong line, drop it
			serialPos = 0
		}
	}
}
