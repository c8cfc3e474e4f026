package clusterlens

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	gmmMaxIter   = 100
	gmmTolerance = 1e-3
	gmmMinReg    = 1e-6
	gmmMaxReg    = 1e-2
)

// runGMM fits a Gaussian mixture by expectation-maximization and collapses
// the soft assignment to hard labels by maximum posterior. The mixture is
// seeded from the deterministic k-means partition, so repeated runs agree.
// Supported covariance structures: "full" and "diag".
func runGMM(m *mat.Dense, components int, covarianceType string) ([]int, error) {
	if covarianceType != "full" && covarianceType != "diag" {
		return nil, fmt.Errorf("unsupported covariance_type %q", covarianceType)
	}

	n, d := m.Dims()
	seed := runKMeans(m, components)

	// Responsibilities initialized as hard assignments.
	resp := mat.NewDense(n, components, nil)
	for i, l := range seed {
		if l >= components {
			l = components - 1
		}
		resp.Set(i, l, 1)
	}

	weights := make([]float64, components)
	means := mat.NewDense(components, d, nil)
	covs := make([]*mat.SymDense, components)

	prevLL := math.Inf(-1)
	for iter := 0; iter < gmmMaxIter; iter++ {
		// M step.
		for c := 0; c < components; c++ {
			nc := 0.0
			for i := 0; i < n; i++ {
				nc += resp.At(i, c)
			}
			if nc < 1e-10 {
				nc = 1e-10
			}
			weights[c] = nc / float64(n)

			for j := 0; j < d; j++ {
				sum := 0.0
				for i := 0; i < n; i++ {
					sum += resp.At(i, c) * m.At(i, j)
				}
				means.Set(c, j, sum/nc)
			}

			cov := mat.NewSymDense(d, nil)
			for j := 0; j < d; j++ {
				for l := j; l < d; l++ {
					if covarianceType == "diag" && l != j {
						continue
					}
					sum := 0.0
					for i := 0; i < n; i++ {
						sum += resp.At(i, c) * (m.At(i, j) - means.At(c, j)) * (m.At(i, l) - means.At(c, l))
					}
					cov.SetSym(j, l, sum/nc)
				}
			}
			covs[c] = cov
		}

		// E step.
		logProb := mat.NewDense(n, components, nil)
		for c := 0; c < components; c++ {
			lp, err := gaussianLogPDF(m, means.RawRowView(c), covs[c])
			if err != nil {
				return nil, err
			}
			logWeight := math.Log(weights[c])
			for i := 0; i < n; i++ {
				logProb.Set(i, c, lp[i]+logWeight)
			}
		}

		ll := 0.0
		for i := 0; i < n; i++ {
			// log-sum-exp across components
			maxLP := math.Inf(-1)
			for c := 0; c < components; c++ {
				if v := logProb.At(i, c); v > maxLP {
					maxLP = v
				}
			}
			sum := 0.0
			for c := 0; c < components; c++ {
				sum += math.Exp(logProb.At(i, c) - maxLP)
			}
			norm := maxLP + math.Log(sum)
			ll += norm
			for c := 0; c < components; c++ {
				resp.Set(i, c, math.Exp(logProb.At(i, c)-norm))
			}
		}

		if math.Abs(ll-prevLL) < gmmTolerance {
			break
		}
		prevLL = ll
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		best, bestP := 0, resp.At(i, 0)
		for c := 1; c < components; c++ {
			if p := resp.At(i, c); p > bestP {
				best, bestP = c, p
			}
		}
		labels[i] = best
	}
	return compactLabels(labels), nil
}

// gaussianLogPDF evaluates the multivariate normal log-density of every row
// of m. The covariance diagonal is regularized until the Cholesky
// factorization succeeds; a component that stays singular is an error the
// executor propagates.
func gaussianLogPDF(m *mat.Dense, mean []float64, cov *mat.SymDense) ([]float64, error) {
	n, d := m.Dims()

	var chol mat.Cholesky
	reg := gmmMinReg
	work := mat.NewSymDense(d, nil)
	work.CopySym(cov)
	for {
		for j := 0; j < d; j++ {
			work.SetSym(j, j, cov.At(j, j)+reg)
		}
		if chol.Factorize(work) {
			break
		}
		reg *= 10
		if reg > gmmMaxReg {
			return nil, fmt.Errorf("singular covariance matrix in mixture component")
		}
	}

	logDet := chol.LogDet()
	constant := -0.5 * (float64(d)*math.Log(2*math.Pi) + logDet)

	out := make([]float64, n)
	diff := mat.NewVecDense(d, nil)
	var solved mat.VecDense
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		for j := 0; j < d; j++ {
			diff.SetVec(j, row[j]-mean[j])
		}
		if err := chol.SolveVecTo(&solved, diff); err != nil {
			return nil, fmt.Errorf("failed to solve in mixture density: %w", err)
		}
		out[i] = constant - 0.5*mat.Dot(diff, &solved)
	}
	return out, nil
}
