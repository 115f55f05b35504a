//go:build tinygo

package main

import (
	"encoding/binary"
	"errors"
	"machine"
	"time"

	"tinygo.org/x/drivers/hcsr04"
)

// TCS34725 registers
const (
	tcsCommand   = 0x80
	tcsAutoInc   = 0x20
	tcsEnable    = 0x00
	tcsATime     = 0x01
	tcsControl   = 0x0F
	tcsID        = 0x12
	tcsClearData = 0x14

	tcsPowerOn   = 0x01
	tcsRGBCOn    = 0x02
	tcsGain1x    = 0x00
	tcsIDTCS3472 = 0x44
	tcsIDTCS3477 = 0x4D
)

var (
	rangeSensor hcsr04.Device
	colorBuf    [8]byte
)

func configureRange() {
	rangeSensor = hcsr04.New(PIN_TRIGGER, PIN_ECHO)
	rangeSensor.Configure()
}

// Output format: "D,centimeters\n". Nothing is reported when the echo
// times out.
func reportDistance() {
	mm := rangeSensor.ReadDistance()
	if mm <= 0 {
		return
	}
	print("D,")
	print(mm / 10)
	print("\n")
}

func tcsWrite(reg, value uint8) error {
	return machine.I2C0.WriteRegister(TCS_ADDRESS, tcsCommand|reg, []byte{value})
}

func configureColor() error {
	var id [1]byte
	if err := machine.I2C0.ReadRegister(TCS_ADDRESS, tcsCommand|tcsID, id[:]); err != nil {
		return err
	}
	if id[0] != tcsIDTCS3472 && id[0] != tcsIDTCS3477 {
		return errors.New("unexpected color sensor id")
	}

	if err := tcsWrite(tcsEnable, tcsPowerOn); err != nil {
		return err
	}
	time.Sleep(3 * time.Millisecond)

	if err := tcsWrite(tcsATime, uint8(256-TCS_INTEGRATION)); err != nil {
		return err
	}
	if err := tcsWrite(tcsControl, tcsGain1x); err != nil {
		return err
	}
	return tcsWrite(tcsEnable, tcsPowerOn|tcsRGBCOn)
}

// Output format: "C,red,green,blue,clear\n"
func reportColor() {
	err := machine.I2C0.ReadRegister(TCS_ADDRESS, tcsCommand|tcsAutoInc|tcsClearData, colorBuf[:])
	if err != nil {
		return
	}

	clr := binary.LittleEndian.Uint16(colorBuf[0:])
	red := binary.LittleEndian.Uint16(colorBuf[2:])
	green := binary.LittleEndian.Uint16(colorBuf[4:])
	blue := binary.LittleEndian.Uint16(colorBuf[6:])

	print("C,")
	print(red)
	print(",")
	print(green)
	print(",")
	print(blue)
	print(",")
	print(clr)
	print("\n")
}
