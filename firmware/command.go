//go:build tinygo

package main

import (
	"image/color"
	"time"
)

// parseFields splits "X,1,2,3" into its numeric arguments.
// Returns false if any argument is not a non-negative integer.
func parseFields(line []byte, args []uint32) (int, bool) {
	n := 0
	if len(line) < 2 || line[1] != ',' {
		return 0, len(line) == 1
	}
	var v uint32
	digits := 0
	for _, b := range line[2:] {
		switch {
		case b >= '0' && b <= '9':
			v = v*10 + uint32(b-'0')
			digits++
		case b == ',':
			if digits == 0 || n >= len(args) {
				return 0, false
			}
			args[n] = v
			n++
			v, digits = 0, 0
		default:
			return 0, false
		}
	}
	if digits == 0 || n >= len(args) {
		return 0, false
	}
	args[n] = v
	return n + 1, true
}

// runCommand executes one host command:
//
//	P,channel,duty            set duty immediately
//	F,channel,from,to,millis  linear fade
//	L,r,g,b                   status LED
func runCommand(line []byte) {
	var args [4]uint32
	n, ok := parseFields(line, args[:])
	if !ok {
		return
	}

	switch line[0] {
	case 'P':
		if n == 2 && args[0] < numChannels && args[1] <= 100 {
			startFade(int(args[0]), uint8(args[1]), uint8(args[1]), 0)
		}
	case 'F':
		if n == 4 && args[0] < numChannels && args[1] <= 100 && args[2] <= 100 {
			startFade(int(args[0]), uint8(args[1]), uint8(args[2]), time.Duration(args[3])*time.Millisecond)
		}
	case 'L':
		if n == 3 && args[0] <= 255 && args[1] <= 255 && args[2] <= 255 {
			showLED(color.RGBA{R: uint8(args[0]), G: uint8(args[1]), B: uint8(args[2]), A: 255})
		}
	}
}
