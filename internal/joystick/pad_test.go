package joystick_test

import (
	"time"

	"github.com/golang/geo/r2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/geostick/internal/joystick"
)

var _ = Describe("Pad", func() {
	var pad *joystick.Pad

	BeforeEach(func() {
		pad = joystick.NewPad(joystick.DefaultPadConfig())
	})

	It("starts idle with the knob centered", func() {
		Expect(pad.State()).To(Equal(joystick.Idle))
		Expect(pad.Knob()).To(Equal(r2.Point{X: 24, Y: 24}))
		Expect(pad.Radius()).To(Equal(18.0))
		Expect(pad.BackgroundRadius()).To(Equal(24.0))
	})

	Describe("Press", func() {
		It("rejects presses outside the background circle", func() {
			res := pad.Press(0, 0)
			Expect(res.Handled).To(BeFalse())
			Expect(pad.State()).To(Equal(joystick.Idle))

			Expect(pad.Move(30, 24).Handled).To(BeFalse())
		})

		It("accepts a press at the exact center with a zero vector", func() {
			pad = joystick.NewPad(joystick.PadConfig{
				Width: 100, Height: 100, KnobWidth: 20, KnobHeight: 20,
				BackgroundRadius: 50, SnapBack: true, MoveToTouch: true,
			})
			res := pad.Press(50, 50)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Moved).To(BeTrue())
			Expect(res.Update.Vector.IsZero()).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Dragging))
		})

		It("jumps to the touch point when move-to-touch is on", func() {
			res := pad.Press(44, 24)
			Expect(res.Moved).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Dragging))
			Expect(res.Update.Knob).To(Equal(r2.Point{X: 42, Y: 24}))
			Expect(res.Update.Vector.X).To(BeNumerically("~", 1, 1e-9))
			Expect(res.Update.Vector.Y).To(BeNumerically("~", 0, 1e-9))
		})

		Context("with move-to-touch off", func() {
			BeforeEach(func() {
				pad.SetMoveToTouch(false)
			})

			It("captures a press outside the knob without moving it", func() {
				res := pad.Press(40, 24)
				Expect(res.Handled).To(BeTrue())
				Expect(res.Moved).To(BeFalse())
				Expect(pad.State()).To(Equal(joystick.Idle))

				move := pad.Move(10, 24)
				Expect(move.Handled).To(BeTrue())
				Expect(move.Moved).To(BeFalse())
				Expect(pad.Knob()).To(Equal(r2.Point{X: 24, Y: 24}))
			})

			It("drags when the press starts on the knob", func() {
				Expect(pad.Press(26, 25).Moved).To(BeTrue())
				Expect(pad.State()).To(Equal(joystick.Dragging))

				move := pad.Move(24, 15)
				Expect(move.Moved).To(BeTrue())
				Expect(move.Update.Vector.Y).To(BeNumerically("~", -0.5, 1e-9))
			})
		})

		It("treats touches as no-ops before a size is established", func() {
			pad = joystick.NewPad(joystick.PadConfig{MoveToTouch: true})
			res := pad.Press(0, 0)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Moved).To(BeFalse())
		})
	})

	Describe("Release", func() {
		BeforeEach(func() {
			pad.Press(44, 24)
		})

		It("returns to center over the return duration", func() {
			res := pad.Release(44, 24)
			Expect(res.Moved).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Returning))

			half := pad.Advance(joystick.ReturnDuration / 2)
			Expect(half.Update.Knob.X).To(BeNumerically("~", 33, 1e-6))
			Expect(half.Update.Vector.X).To(BeNumerically("~", 0.5, 1e-6))
			Expect(pad.State()).To(Equal(joystick.Returning))

			end := pad.Advance(joystick.ReturnDuration / 2)
			Expect(end.Update.Vector.IsZero()).To(BeTrue())
			Expect(pad.Knob()).To(Equal(pad.Center()))
			Expect(pad.State()).To(Equal(joystick.Idle))

			Expect(pad.Advance(time.Second).Moved).To(BeFalse())
		})

		It("leaves the knob in place when snap-back is off", func() {
			pad.SetSnapBack(false)
			res := pad.Release(44, 24)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Moved).To(BeFalse())
			Expect(pad.State()).To(Equal(joystick.Idle))
			Expect(pad.Knob()).To(Equal(r2.Point{X: 42, Y: 24}))
		})

		It("is cancelled by a new press during the return", func() {
			pad.Release(44, 24)
			pad.Advance(50 * time.Millisecond)

			res := pad.Press(24, 4)
			Expect(res.Moved).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Dragging))
			Expect(res.Update.Vector.Y).To(BeNumerically("~", -1, 1e-9))

			Expect(pad.Advance(joystick.ReturnDuration).Moved).To(BeFalse())
		})

		It("treats cancel like release", func() {
			pad.Cancel(44, 24)
			Expect(pad.State()).To(Equal(joystick.Returning))
		})
	})

	Describe("SetSnapBack", func() {
		It("starts a return when enabled off center", func() {
			pad.SetSnapBack(false)
			pad.Press(44, 24)
			pad.Release(44, 24)

			res := pad.SetSnapBack(true)
			Expect(res.Moved).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Returning))

			pad.Advance(joystick.ReturnDuration)
			Expect(pad.Knob()).To(Equal(pad.Center()))
		})

		It("starts a return in the middle of a drag", func() {
			pad.SetSnapBack(false)
			pad.Press(44, 24)
			Expect(pad.State()).To(Equal(joystick.Dragging))
			dragged := pad.Knob()

			res := pad.SetSnapBack(true)
			Expect(res.Moved).To(BeTrue())
			Expect(pad.State()).To(Equal(joystick.Returning))

			res = pad.Move(30, 24)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Moved).To(BeFalse())
			Expect(pad.Knob()).To(Equal(dragged))

			res = pad.Release(30, 24)
			Expect(res.Handled).To(BeTrue())
			Expect(res.Moved).To(BeFalse())
			Expect(pad.State()).To(Equal(joystick.Returning))

			pad.Advance(joystick.ReturnDuration)
			Expect(pad.State()).To(Equal(joystick.Idle))
			Expect(pad.Knob()).To(Equal(pad.Center()))
		})

				It("does nothing when the knob is centered", func() {
			res := pad.SetSnapBack(true)
			Expect(res.Moved).To(BeFalse())
			Expect(pad.State()).To(Equal(joystick.Idle))
		})
	})
})
