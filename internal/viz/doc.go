// Package viz draws the joystick pad and the simulated track in the
// terminal.
//
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//   - [Projection]: fits lat/lon points into canvas pixels
//   - [DrawPad] and [DrawTrack]: the two panes of the live view
package viz
