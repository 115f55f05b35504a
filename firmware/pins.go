//go:build tinygo

package main

import "machine"

const (
	// Reporting periods in milliseconds
	COLOR_PERIOD_MS    = 100
	DISTANCE_PERIOD_MS = 100
	BATTERY_PERIOD_MS  = 200
	FADE_STEP_MS       = 5 // Duty update interval while a fade is running

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits
	BATTERY_DIVIDER  = 2    // Battery is measured through a 1:1 resistor divider

	// TCS34725 color sensor
	TCS_ADDRESS     = 0x29
	TCS_INTEGRATION = 32 // Integration cycles of 2.4ms each

	// Motor PWM carrier
	PWM_FREQUENCY = 24000 // Hz, above audible range

	// Motor pins: left pair on TCC0, right pair on TCC1
	PIN_LEFT1  = machine.D1
	PIN_LEFT2  = machine.D2
	PIN_RIGHT1 = machine.D8
	PIN_RIGHT2 = machine.D9

	// Ultrasonic range sensor
	PIN_TRIGGER = machine.D6
	PIN_ECHO    = machine.D7

	// Status LED (single WS2812)
	PIN_LED = machine.D3

	// Battery ADC
	PIN_BATTERY = machine.A0

	// I2C for the color sensor
	PIN_SDA = machine.SDA_PIN
	PIN_SCL = machine.SCL_PIN

	// Serial configuration
	// Outbound: "C,65535,65535,65535,65535\n" is the longest line, ~26 bytes.
	// 10 color + 10 distance + 5 battery lines/sec ~ 400 bytes/sec, well
	// within 115200 baud (11,520 bytes/sec).
	UART_BAUD_RATE = 115200
)
