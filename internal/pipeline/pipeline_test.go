package pipeline

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/smoothing"
)

var _ = Describe("Pipeline", func() {
	var (
		p   *Pipeline
		exp process.Experiment
	)

	BeforeEach(func() {
		cfg := DefaultConfig()
		cfg.OffsetPercent = 1
		p = New(cfg)
		exp = fopdtStep(2, 5, 1, 1, 50, 1001)
	})

	Describe("Run", func() {
		It("recovers the process and tunes two settling controllers", func() {
			var report *RunReport
			report, err := p.Run(context.Background(), exp)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Summary.Samples).To(Equal(1001))
			m := report.Identification.Model
			Expect(m.Gain).To(BeNumerically("~", 2, 1e-3))
			Expect(m.TimeConstant).To(BeNumerically("~", 5, 0.1))
			Expect(m.DeadTime).To(BeNumerically("~", 1, 0.1))

			Expect(report.Controllers).To(HaveLen(2))
			Expect(report.Controllers[0].PID.Rule).To(Equal(process.RuleIMC))
			Expect(report.Controllers[1].PID.Rule).To(Equal(process.RuleITAE))
			for _, o := range report.Controllers {
				Expect(o.Response.Stable).To(BeTrue())
				Expect(o.Response.Output).To(HaveLen(DefaultNumPoints))
				final := o.Response.Output[len(o.Response.Output)-1]
				Expect(final).To(BeNumerically("~", 1, 1e-2))
				Expect(o.Performance.SettlingTime).To(BeNumerically("<", DefaultSimTime))
				Expect(o.Performance.SettlingTime).To(BeNumerically(">=", o.Performance.RiseTime))
			}
		})

		It("is idempotent", func() {
			a, err := p.Run(context.Background(), exp)
			Expect(err).NotTo(HaveOccurred())
			b, err := p.Run(context.Background(), exp)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Identification.Model).To(Equal(b.Identification.Model))
		})

		It("rejects a flat input", func() {
			for i := range exp.Input {
				exp.Input[i] = 1
			}
			_, err := p.Run(context.Background(), exp)
			Expect(err).To(MatchError(process.ErrZeroExcitation))
		})

		It("rejects a malformed experiment", func() {
			exp.Time[10] = exp.Time[9]
			_, err := p.Run(context.Background(), exp)
			Expect(err).To(MatchError(process.ErrInvalidSeries))
		})
	})

	Describe("Identify", func() {
		It("reports the normalized smoothing actually applied", func() {
			id, err := Identify(exp, process.MethodSundaresan, 1, smoothing.Config{WindowLength: 10, PolynomialOrder: 12})
			Expect(err).NotTo(HaveOccurred())
			Expect(id.Smoothing).To(Equal(smoothing.Config{WindowLength: 11, PolynomialOrder: 10}))
			Expect(id.Smoothed).To(HaveLen(exp.Len()))
			Expect(id.Method).To(Equal(process.MethodSundaresan))
		})

		It("fails when the offset skips past both levels", func() {
			_, err := Identify(exp, process.MethodSmith, 15, smoothing.DefaultConfig())
			Expect(err).To(MatchError(process.ErrInvertedCrossing))
		})
	})
})
