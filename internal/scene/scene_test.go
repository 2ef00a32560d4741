package scene

import (
	"bytes"
	"image"
	"image/color"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/mask"
)

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

var _ flicker.Target = (*Scene)(nil)

func whiteLayer(start bool) flicker.Options {
	return flicker.Options{
		SquareSize:       4,
		FlickerChance:    0.3,
		Color:            "#ffffff",
		MaxOpacity:       1,
		StartImmediately: start,
	}
}

// leftHalf is opaque for x < w/2.
func leftHalf(w, h int) mask.Mask {
	a := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			a.SetAlpha(x, y, color.Alpha{A: 0xff})
		}
	}
	return mask.FromImage(a)
}

var _ = Describe("Scene", func() {
	var s *Scene

	BeforeEach(func() {
		s = New(color.RGBA{A: 0xff}, 1)
	})

	Describe("sizing", func() {
		It("sizes frames in device pixels", func() {
			s = New(color.RGBA{A: 0xff}, 2)
			_, err := s.AddLayer("grid", whiteLayer(true), nil, constRand(0.5))
			Expect(err).NotTo(HaveOccurred())

			s.Resize(10, 7.5)
			w, h := s.DeviceSize()
			Expect(w).To(Equal(20))
			Expect(h).To(Equal(15))
			Expect(s.Frame().Rect).To(Equal(image.Rect(0, 0, 20, 15)))
		})

		It("resizes layers added before and after", func() {
			first, _ := s.AddLayer("a", whiteLayer(true), nil, constRand(0.5))
			s.Resize(20, 20)
			second, _ := s.AddLayer("b", whiteLayer(true), nil, constRand(0.5))

			Expect(first.Sim.Grid().Cols).To(Equal(5))
			Expect(second.Sim.Grid().Cols).To(Equal(5))
			Expect(s.Layer("b")).To(BeIdenticalTo(second))
			Expect(s.Layer("missing")).To(BeNil())
		})

		It("rejects invalid layer options", func() {
			opts := whiteLayer(true)
			opts.MaxOpacity = 2
			_, err := s.AddLayer("bad", opts, nil, constRand(0.5))
			Expect(err).To(MatchError(flicker.ErrInvalidOptions))
			Expect(s.Layers()).To(BeEmpty())
		})
	})

	Describe("visibility", func() {
		It("runs only while any layer is running", func() {
			s.AddLayer("grid", whiteLayer(false), nil, constRand(0.5))
			s.Resize(20, 20)

			Expect(s.Running()).To(BeFalse())
			Expect(s.Tick(0.016)).To(BeFalse())

			s.SetVisible(true)
			Expect(s.Running()).To(BeTrue())
			Expect(s.Tick(0.016)).To(BeTrue())

			s.SetVisible(false)
			Expect(s.Running()).To(BeFalse())
		})
	})

	Describe("compositing", func() {
		BeforeEach(func() {
			s.Resize(20, 20)
		})

		It("draws cells over the background", func() {
			s.AddLayer("grid", whiteLayer(true), nil, constRand(0.5))
			Expect(s.Tick(0.016)).To(BeTrue())

			frame := s.Frame()
			Expect(frame.RGBAAt(1, 1).R).To(BeNumerically("~", 128, 1))
			Expect(frame.RGBAAt(1, 1).A).To(Equal(uint8(0xff)))
		})

		It("clips masked layers", func() {
			s.AddLayer("grid", whiteLayer(true), leftHalf(20, 20), constRand(0.5))
			s.Tick(0.016)

			frame := s.Frame()
			Expect(frame.RGBAAt(2, 2).R).To(BeNumerically(">", 100))
			Expect(frame.RGBAAt(17, 2).R).To(BeZero())
		})

		It("shows only the background for an empty scene", func() {
			s = New(color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, 1)
			s.Resize(4, 4)
			Expect(s.Frame().RGBAAt(3, 3)).To(Equal(color.RGBA{R: 10, G: 20, B: 30, A: 0xff}))
		})
	})

	Describe("WriteSVG", func() {
		BeforeEach(func() {
			s.Resize(20, 20)
		})

		It("writes one group per layer", func() {
			s.AddLayer("back", whiteLayer(true), nil, constRand(0.5))
			s.AddLayer("front", whiteLayer(true), nil, constRand(0.5))

			var buf bytes.Buffer
			Expect(s.WriteSVG(&buf)).To(Succeed())
			out := buf.String()
			Expect(out).To(ContainSubstring(`<svg`))
			Expect(out).To(ContainSubstring(`id="back"`))
			Expect(out).To(ContainSubstring(`id="front"`))
			Expect(out).To(ContainSubstring("fill-opacity:0.502"))
		})

		It("drops rectangles outside the mask", func() {
			var plain, masked bytes.Buffer
			s.AddLayer("grid", whiteLayer(true), nil, constRand(0.5))
			Expect(s.WriteSVG(&plain)).To(Succeed())

			s = New(color.RGBA{A: 0xff}, 1)
			s.Resize(20, 20)
			s.AddLayer("grid", whiteLayer(true), leftHalf(20, 20), constRand(0.5))
			Expect(s.WriteSVG(&masked)).To(Succeed())

			Expect(strings.Count(masked.String(), "<rect")).To(BeNumerically("<", strings.Count(plain.String(), "<rect")))
		})
	})

	Describe("Build", func() {
		It("assembles the hero preset", func() {
			cfg, err := config.GetPreset("hero")
			Expect(err).NotTo(HaveOccurred())

			built, err := Build(cfg, constRand(0.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(built.Background()).To(Equal(color.RGBA{A: 0xff}))
			Expect(built.Layers()).To(HaveLen(2))
			Expect(built.Layer("background").Mask).To(BeNil())
			Expect(built.Layer("silhouette").Mask).NotTo(BeNil())
			Expect(built.Running()).To(BeTrue())
		})

		It("fails on a missing mask file", func() {
			cfg := config.DefaultConfig()
			cfg.Layers[0].Mask = "/does/not/exist.svg"
			_, err := Build(cfg, constRand(0.5))
			Expect(err).To(HaveOccurred())
		})
	})
})
