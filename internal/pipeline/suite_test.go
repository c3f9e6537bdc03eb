package pipeline

import (
	"io"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pidtune/internal/process"
)

func TestPipeline(t *testing.T) {
	logrus.SetOutput(io.Discard)
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

// fopdtStep returns an open-loop step test of K·e^{-θs}/(τs+1) with the
// input stepping from 0 to du right after t=0.
func fopdtStep(k, tau, theta, du, tEnd float64, n int) process.Experiment {
	t := floats.Span(make([]float64, n), 0, tEnd)
	y := make([]float64, n)
	u := make([]float64, n)
	for i, ti := range t {
		if i > 0 {
			u[i] = du
		}
		if ti > theta {
			y[i] = k * du * (1 - math.Exp(-(ti-theta)/tau))
		}
	}
	return process.Experiment{Time: t, Output: y, Input: u}
}
