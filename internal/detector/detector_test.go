package detector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chemgaloo/internal/detector"
	"github.com/san-kum/chemgaloo/internal/kinetics"
)

func mustNew(attr detector.Attribute, mode detector.Mode, targets []*kinetics.Chemical, expected []float64, precision int, motion detector.Motion) *detector.Detector {
	d, err := detector.New(attr, mode, targets, expected, precision, motion)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Motion", func() {
	DescribeTable("maps to effects",
		func(m detector.Motion, want detector.Effect) {
			got, err := m.Effect()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))

			again, _ := m.Effect()
			Expect(again).To(Equal(got))
		},
		Entry("print", detector.MotionPrint, detector.Effect{Print: true}),
		Entry("quench", detector.MotionQuench, detector.Effect{Print: true, Quench: true}),
		Entry("quench_and_silent", detector.MotionQuenchAndSilent, detector.Effect{Quench: true}),
		Entry("record", detector.MotionRecord, detector.Effect{Print: true, Record: true}),
		Entry("silent", detector.MotionSilent, detector.Effect{}),
		Entry("record_and_silent", detector.MotionRecordAndSilent, detector.Effect{Record: true}),
		Entry("record_and_quench", detector.MotionRecordAndQuench, detector.Effect{Print: true, Quench: true, Record: true}),
		Entry("record_and_quench_and_silent", detector.MotionRecordAndQuenchAndSilent, detector.Effect{Quench: true, Record: true}),
	)

	It("rejects unknown motions", func() {
		_, err := detector.Motion("explode").Effect()
		Expect(err).To(MatchError(detector.ErrUnknownMotion))

		_, err = detector.ParseMotion("explode")
		Expect(err).To(MatchError(detector.ErrUnknownMotion))
	})

	It("defaults an empty motion to print", func() {
		m, err := detector.ParseMotion("")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(detector.MotionPrint))
	})
})

var _ = Describe("New", func() {
	var a, b *kinetics.Chemical

	BeforeEach(func() {
		a = kinetics.NewChemical("A", 1)
		b = kinetics.NewChemical("B", 1)
	})

	It("rejects isolated detectors with mismatched lists", func() {
		_, err := detector.New(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a, b}, []float64{0.5}, 2, detector.MotionPrint)
		Expect(err).To(MatchError(detector.ErrTargetMismatch))
	})

	It("rejects ratio detectors without exactly two targets", func() {
		_, err := detector.New(detector.Concentration, detector.Ratio, []*kinetics.Chemical{a}, []float64{1}, 2, detector.MotionPrint)
		Expect(err).To(MatchError(detector.ErrTargetMismatch))
	})

	It("rejects temperature detectors as not implemented", func() {
		_, err := detector.New(detector.Temperature, detector.Isolated, nil, []float64{300}, 2, detector.MotionPrint)
		Expect(err).To(MatchError(detector.ErrNotImplemented))
	})

	DescribeTable("rejects precisions whose scale is not finite",
		func(precision int) {
			_, err := detector.New(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{1}, precision, detector.MotionPrint)
			Expect(err).To(MatchError(detector.ErrPrecisionRange))
		},
		Entry("negative", -1),
		Entry("one past the float64 exponent range", detector.MaxPrecision+1),
		Entry("far out of range", 1000),
	)

	It("fires on an exact match at the largest precision", func() {
		d := mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{1}, detector.MaxPrecision, detector.MotionPrint)
		fired, err := d.Fires(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(fired).To(BeTrue())
	})

	It("rejects unknown motions at construction", func() {
		_, err := detector.New(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{1}, 2, "melt")
		Expect(err).To(MatchError(detector.ErrUnknownMotion))
	})
})

var _ = Describe("Fires", func() {
	var a, b *kinetics.Chemical

	BeforeEach(func() {
		a = kinetics.NewChemical("A", 0.503)
		b = kinetics.NewChemical("B", 0.9)
	})

	Context("isolated mode", func() {
		It("fires when any target rounds onto its value", func() {
			d := mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{b, a}, []float64{0.5, 0.5}, 2, detector.MotionPrint)
			Expect(d.Fires(0)).To(BeTrue())
		})

		It("does not fire outside the precision window", func() {
			a.C = 0.506
			d := mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{0.5}, 2, detector.MotionPrint)
			Expect(d.Fires(0)).To(BeFalse())
		})

		It("tightens with more digits", func() {
			d := mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{0.5}, 4, detector.MotionPrint)
			Expect(d.Fires(0)).To(BeFalse())
		})
	})

	Context("ratio mode", func() {
		It("compares targets[0]/targets[1]", func() {
			a.C, b.C = 0.2, 1.0
			d := mustNew(detector.Concentration, detector.Ratio, []*kinetics.Chemical{a, b}, []float64{0.2}, 4, detector.MotionQuench)
			Expect(d.Fires(0)).To(BeTrue())

			a.C = 0.3
			Expect(d.Fires(0)).To(BeFalse())
		})

		It("reports a zero denominator as a domain error", func() {
			b.C = 0
			d := mustNew(detector.Concentration, detector.Ratio, []*kinetics.Chemical{a, b}, []float64{1}, 2, detector.MotionPrint)
			_, err := d.Fires(0)
			Expect(err).To(MatchError(detector.ErrZeroDenominator))
		})
	})

	Context("time attribute", func() {
		It("fires once elapsed time exceeds the threshold", func() {
			d := mustNew(detector.Time, detector.Isolated, nil, []float64{1.0}, 0, detector.MotionQuench)
			Expect(d.Fires(1.0)).To(BeFalse())
			Expect(d.Fires(1.01)).To(BeTrue())
		})
	})
})

var _ = Describe("Resolve", func() {
	var a *kinetics.Chemical

	BeforeEach(func() {
		a = kinetics.NewChemical("A", 0.5)
	})

	firing := func(m detector.Motion) *detector.Detector {
		return mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{0.5}, 2, m)
	}
	idle := func(m detector.Motion) *detector.Detector {
		return mustNew(detector.Concentration, detector.Isolated, []*kinetics.Chemical{a}, []float64{0.9}, 2, m)
	}

	It("returns an empty outcome when nothing fires", func() {
		out, err := detector.Resolve([]*detector.Detector{idle(detector.MotionQuench)}, 0, detector.Overwrite)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Print).To(BeFalse())
		Expect(out.Quench).To(BeFalse())
		Expect(out.Fired).To(BeEmpty())
	})

	It("lets a later silent detector suppress an earlier print in overwrite mode", func() {
		dets := []*detector.Detector{firing(detector.MotionPrint), firing(detector.MotionSilent)}
		out, err := detector.Resolve(dets, 0, detector.Overwrite)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Print).To(BeFalse())
		Expect(out.Fired).To(Equal([]int{0, 1}))
	})

	It("keeps the print request in accumulate mode", func() {
		dets := []*detector.Detector{firing(detector.MotionPrint), firing(detector.MotionSilent)}
		out, err := detector.Resolve(dets, 0, detector.Accumulate)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Print).To(BeTrue())
	})

	It("ignores detectors that did not fire when overwriting", func() {
		dets := []*detector.Detector{firing(detector.MotionPrint), idle(detector.MotionSilent)}
		out, _ := detector.Resolve(dets, 0, detector.Overwrite)
		Expect(out.Print).To(BeTrue())
	})

	It("accumulates quench and record monotonically", func() {
		dets := []*detector.Detector{
			firing(detector.MotionRecordAndQuenchAndSilent),
			firing(detector.MotionPrint),
			firing(detector.MotionRecord),
		}
		out, err := detector.Resolve(dets, 0, detector.Overwrite)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Quench).To(BeTrue())
		Expect(out.Print).To(BeTrue())
		Expect(out.Records).To(Equal(2))
	})

	It("aborts on an evaluation error", func() {
		b := kinetics.NewChemical("B", 0)
		ratio := mustNew(detector.Concentration, detector.Ratio, []*kinetics.Chemical{a, b}, []float64{1}, 2, detector.MotionPrint)
		_, err := detector.Resolve([]*detector.Detector{firing(detector.MotionPrint), ratio}, 0, detector.Overwrite)
		Expect(err).To(MatchError(detector.ErrZeroDenominator))
	})
})

var _ = Describe("ParseCombine", func() {
	It("accepts the known names", func() {
		Expect(detector.ParseCombine("")).To(Equal(detector.Overwrite))
		Expect(detector.ParseCombine("accumulate")).To(Equal(detector.Accumulate))
	})

	It("rejects anything else", func() {
		_, err := detector.ParseCombine("xor")
		Expect(err).To(MatchError(detector.ErrUnknownCombine))
	})
})
