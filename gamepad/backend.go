// This file is part of Playcap.
//
// Playcap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Playcap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Playcap.  If not, see <https://www.gnu.org/licenses/>.

package gamepad

// Axis identifies one analog axis of a controller.
type Axis int

// List of valid Axis values.
const (
	AxisLX Axis = iota
	AxisLY
	AxisRX
	AxisRY
	AxisLT
	AxisRT
)

// Button identifies one digital button of a controller.
type Button int

// List of valid Button values.
const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonBack
	ButtonGuide
	ButtonStart
	ButtonLeftStick
	ButtonRightStick
	ButtonLeftShoulder
	ButtonRightShoulder
	ButtonDpadUp
	ButtonDpadDown
	ButtonDpadLeft
	ButtonDpadRight
	numButtons
)

// ButtonName returns the payload key for a button.
func ButtonName(b Button) string {
	switch b {
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonX:
		return "x"
	case ButtonY:
		return "y"
	case ButtonBack:
		return "back"
	case ButtonGuide:
		return "guide"
	case ButtonStart:
		return "start"
	case ButtonLeftStick:
		return "leftstick"
	case ButtonRightStick:
		return "rightstick"
	case ButtonLeftShoulder:
		return "leftshoulder"
	case ButtonRightShoulder:
		return "rightshoulder"
	case ButtonDpadUp:
		return "dpad_up"
	case ButtonDpadDown:
		return "dpad_down"
	case ButtonDpadLeft:
		return "dpad_left"
	case ButtonDpadRight:
		return "dpad_right"
	}
	return "unknown"
}

// Device is one open controller.
type Device interface {
	// Attached is false once the controller has been unplugged.
	Attached() bool

	Name() string

	// Axis returns the raw axis value. Sticks span the full int16
	// range; triggers use the positive half.
	Axis(Axis) int16

	Button(Button) bool

	Close()
}

// Backend is the capability interface required from a controller
// implementation. Absence of a backend is non-fatal to the session.
type Backend interface {
	// NumSlots is the number of controller slots the backend tracks.
	NumSlots() int

	// Open attaches to the controller in the given slot. An empty slot
	// returns (nil, nil).
	Open(slot int) (Device, error)

	// Pump refreshes the backend's view of the hardware. Called once
	// per poll, before any slot is read. An error here is a hardware
	// fault; the polling loop terminates cleanly.
	Pump() error
}
