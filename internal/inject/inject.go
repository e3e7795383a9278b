// Package inject turns decoded gesture events into OS pointer input
// using robotgo.
package inject

import (
	"github.com/go-vgo/robotgo"
)

// Pointer is the OS input surface the dispatcher drives.
type Pointer interface {
	// Move places the cursor at screen coordinates.
	Move(x, y int)
	// Click presses and releases a mouse button ("left", "right", "center").
	Click(button string)
	// Scroll turns the wheel. Positive values scroll up.
	Scroll(clicks int)
	// ScreenSize returns the main display size in pixels.
	ScreenSize() (width, height int)
}

// RobotPointer drives the real cursor.
type RobotPointer struct{}

// NewRobotPointer creates a RobotPointer.
func NewRobotPointer() *RobotPointer {
	return &RobotPointer{}
}

func (RobotPointer) Move(x, y int) {
	robotgo.Move(x, y)
}

func (RobotPointer) Click(button string) {
	robotgo.Click(button)
}

func (RobotPointer) Scroll(clicks int) {
	switch {
	case clicks > 0:
		robotgo.ScrollDir(clicks, "up")
	case clicks < 0:
		robotgo.ScrollDir(-clicks, "down")
	}
}

func (RobotPointer) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
