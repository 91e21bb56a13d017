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

// Package sdlpad implements the gamepad backend with SDL2's
// GameController API, which maps most controllers to a common layout.
package sdlpad

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/gamepad"
)

// number of controller slots watched. SDL numbers joysticks beyond this
// but a recording rig with more than four pads is not a case we handle.
const numSlots = 4

// Backend implements gamepad.Backend using SDL2 game controllers.
type Backend struct{}

// New is the preferred method of initialisation for the sdlpad Backend
// type. Initialises the SDL joystick and game controller subsystems.
func New() (*Backend, error) {
	if err := sdl.InitSubSystem(sdl.INIT_JOYSTICK | sdl.INIT_GAMECONTROLLER); err != nil {
		return nil, curated.Errorf(gamepad.DeviceUnavailable, err)
	}
	return &Backend{}, nil
}

// NumSlots implements the gamepad.Backend interface.
func (b *Backend) NumSlots() int {
	return numSlots
}

// Pump implements the gamepad.Backend interface.
func (b *Backend) Pump() error {
	sdl.GameControllerUpdate()
	return nil
}

// Open implements the gamepad.Backend interface.
func (b *Backend) Open(slot int) (gamepad.Device, error) {
	if slot >= sdl.NumJoysticks() {
		return nil, nil
	}
	if !sdl.IsGameController(slot) {
		// a joystick without a controller mapping. leave it alone
		return nil, nil
	}

	ctrl := sdl.GameControllerOpen(slot)
	if ctrl == nil {
		return nil, curated.Errorf(gamepad.StreamError, sdl.GetError())
	}

	return &device{ctrl: ctrl}, nil
}

type device struct {
	ctrl *sdl.GameController
}

func (d *device) Attached() bool {
	return d.ctrl.Attached()
}

func (d *device) Name() string {
	return d.ctrl.Name()
}

func (d *device) Axis(a gamepad.Axis) int16 {
	return d.ctrl.Axis(sdlAxis(a))
}

func (d *device) Button(b gamepad.Button) bool {
	return d.ctrl.Button(sdlButton(b)) == sdl.PRESSED
}

func (d *device) Close() {
	d.ctrl.Close()
}

func sdlAxis(a gamepad.Axis) sdl.GameControllerAxis {
	switch a {
	case gamepad.AxisLX:
		return sdl.CONTROLLER_AXIS_LEFTX
	case gamepad.AxisLY:
		return sdl.CONTROLLER_AXIS_LEFTY
	case gamepad.AxisRX:
		return sdl.CONTROLLER_AXIS_RIGHTX
	case gamepad.AxisRY:
		return sdl.CONTROLLER_AXIS_RIGHTY
	case gamepad.AxisLT:
		return sdl.CONTROLLER_AXIS_TRIGGERLEFT
	case gamepad.AxisRT:
		return sdl.CONTROLLER_AXIS_TRIGGERRIGHT
	}
	return sdl.CONTROLLER_AXIS_INVALID
}

func sdlButton(b gamepad.Button) sdl.GameControllerButton {
	switch b {
	case gamepad.ButtonA:
		return sdl.CONTROLLER_BUTTON_A
	case gamepad.ButtonB:
		return sdl.CONTROLLER_BUTTON_B
	case gamepad.ButtonX:
		return sdl.CONTROLLER_BUTTON_X
	case gamepad.ButtonY:
		return sdl.CONTROLLER_BUTTON_Y
	case gamepad.ButtonBack:
		return sdl.CONTROLLER_BUTTON_BACK
	case gamepad.ButtonGuide:
		return sdl.CONTROLLER_BUTTON_GUIDE
	case gamepad.ButtonStart:
		return sdl.CONTROLLER_BUTTON_START
	case gamepad.ButtonLeftStick:
		return sdl.CONTROLLER_BUTTON_LEFTSTICK
	case gamepad.ButtonRightStick:
		return sdl.CONTROLLER_BUTTON_RIGHTSTICK
	case gamepad.ButtonLeftShoulder:
		return sdl.CONTROLLER_BUTTON_LEFTSHOULDER
	case gamepad.ButtonRightShoulder:
		return sdl.CONTROLLER_BUTTON_RIGHTSHOULDER
	case gamepad.ButtonDpadUp:
		return sdl.CONTROLLER_BUTTON_DPAD_UP
	case gamepad.ButtonDpadDown:
		return sdl.CONTROLLER_BUTTON_DPAD_DOWN
	case gamepad.ButtonDpadLeft:
		return sdl.CONTROLLER_BUTTON_DPAD_LEFT
	case gamepad.ButtonDpadRight:
		return sdl.CONTROLLER_BUTTON_DPAD_RIGHT
	}
	return sdl.CONTROLLER_BUTTON_INVALID
}
