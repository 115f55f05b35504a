//go:build tinygo

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

var led ws2812.Device

func configureLED() {
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led = ws2812.New(PIN_LED)
	showLED(color.RGBA{})
}

func showLED(c color.RGBA) {
	led.WriteColors([]color.RGBA{c})
}
