package market

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// arimaOrder fixes the (p,d,q) structure of a model. Orders are design
// constants, not tunable parameters.
type arimaOrder struct {
	p, d, q int
}

func (o arimaOrder) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.p, o.d, o.q)
}

// TimeSeriesModel is the one seam where a numerical fitting routine plugs in.
// Fit prepares the model from an ordered series; Forecast returns point
// estimates and per-step forecast standard errors for the requested horizon.
type TimeSeriesModel interface {
	Fit(values []float64) error
	Forecast(horizon int) (points, stderrs []float64)
}

var errSeriesTooShort = errors.New("series too short for model order")

// arimaModel fits a fixed-order ARIMA by Hannan-Rissanen two-stage least
// squares: a long autoregression first approximates the innovations, then the
// differenced series is regressed on its own lags and the lagged innovation
// estimates. Both regressions are solved with a QR factorization.
type arimaModel struct {
	order arimaOrder

	intercept float64
	phi       []float64 // AR coefficients, phi[0] = lag 1
	theta     []float64 // MA coefficients, theta[0] = lag 1
	sigma2    float64   // innovation variance

	diffTail  []float64 // trailing differenced values, oldest first
	residTail []float64 // trailing innovation estimates, oldest first
	lastLevel float64   // last value of the undifferenced series
}

func newARIMA(order arimaOrder) *arimaModel {
	return &arimaModel{order: order}
}

// Fit estimates the model. It returns an error when the series is too short
// for the order or the normal equations are numerically singular; callers
// fall back to the mean model in that case.
func (m *arimaModel) Fit(values []float64) error {
	if m.order.d != 1 {
		return fmt.Errorf("unsupported differencing order %d", m.order.d)
	}
	if len(values) < 2 {
		return errSeriesTooShort
	}

	m.lastLevel = values[len(values)-1]
	w := difference(values)

	p, q := m.order.p, m.order.q
	longLag := p + q
	maxLag := p
	if q > maxLag {
		maxLag = q
	}

	// Stage 2 needs rows beyond both the long-AR burn-in and its own lags.
	minLen := longLag + maxLag + p + q + 2
	if len(w) < minLen {
		return errSeriesTooShort
	}

	// A constant differenced series (a pure linear ramp in levels) makes the
	// lag regressions collinear. The exact solution is a drift model, so fit
	// that directly instead of going through least squares.
	if stat.Variance(w, nil) == 0 {
		m.intercept = stat.Mean(w, nil)
		m.phi = make([]float64, p)
		m.theta = make([]float64, q)
		m.sigma2 = 0
		m.diffTail = append([]float64(nil), w[len(w)-maxLag:]...)
		m.residTail = make([]float64, maxLag)
		return nil
	}

	resid, err := longARResiduals(w, longLag)
	if err != nil {
		return err
	}

	start := longLag + maxLag
	rows := len(w) - start
	cols := 1 + p + q
	if rows <= cols {
		return errSeriesTooShort
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		X.Set(r, 0, 1)
		for i := 1; i <= p; i++ {
			X.Set(r, i, w[t-i])
		}
		for j := 1; j <= q; j++ {
			X.Set(r, p+j, resid[t-j])
		}
		y.SetVec(r, w[t])
	}

	coef, err := solveOLS(X, y)
	if err != nil {
		return err
	}

	m.intercept = coef[0]
	m.phi = coef[1 : 1+p]
	m.theta = coef[1+p:]

	// Innovation variance from the stage-2 residuals.
	var ssr float64
	for r := 0; r < rows; r++ {
		t := start + r
		pred := m.intercept
		for i := 1; i <= p; i++ {
			pred += m.phi[i-1] * w[t-i]
		}
		for j := 1; j <= q; j++ {
			pred += m.theta[j-1] * resid[t-j]
		}
		e := w[t] - pred
		ssr += e * e
	}
	dof := float64(rows - cols)
	m.sigma2 = ssr / dof
	if math.IsNaN(m.sigma2) || math.IsInf(m.sigma2, 0) {
		return errors.New("non-finite innovation variance")
	}

	m.diffTail = append([]float64(nil), w[len(w)-maxLag:]...)
	m.residTail = append([]float64(nil), resid[len(resid)-maxLag:]...)
	return nil
}

// Forecast extends the fitted model h steps ahead. Future innovations are
// zero, so the MA terms decay out after q steps. Standard errors accumulate
// the psi-weight variance of the integrated process.
func (m *arimaModel) Forecast(horizon int) (points, stderrs []float64) {
	p, q := m.order.p, m.order.q

	w := append([]float64(nil), m.diffTail...)
	e := append([]float64(nil), m.residTail...)

	points = make([]float64, horizon)
	level := m.lastLevel
	for k := 0; k < horizon; k++ {
		pred := m.intercept
		for i := 1; i <= p && i <= len(w); i++ {
			pred += m.phi[i-1] * w[len(w)-i]
		}
		for j := 1; j <= q && j <= len(e); j++ {
			pred += m.theta[j-1] * e[len(e)-j]
		}
		w = append(w, pred)
		e = append(e, 0)
		level += pred
		points[k] = level
	}

	stderrs = m.forecastStderrs(horizon)
	return points, stderrs
}

// forecastStderrs computes per-step forecast standard errors from the psi
// weights of the ARMA part, accumulated through the single integration.
func (m *arimaModel) forecastStderrs(horizon int) []float64 {
	psi := psiWeights(m.phi, m.theta, horizon)

	out := make([]float64, horizon)
	cum := 0.0  // cumulative psi of the integrated process
	varh := 0.0 // accumulated forecast error variance
	for k := 0; k < horizon; k++ {
		cum += psi[k]
		varh += cum * cum
		out[k] = math.Sqrt(m.sigma2 * varh)
	}
	return out
}

// psiWeights expands an ARMA(p,q) model into its infinite MA representation,
// truncated at n weights. psi[0] is always 1.
func psiWeights(phi, theta []float64, n int) []float64 {
	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for k := 1; k < n; k++ {
		v := 0.0
		if k <= len(theta) {
			v = theta[k-1]
		}
		for i := 1; i <= len(phi) && i <= k; i++ {
			v += phi[i-1] * psi[k-i]
		}
		psi[k] = v
	}
	return psi
}

// longARResiduals runs the first Hannan-Rissanen stage: fit a long AR(m) by
// least squares and return the residual series as innovation proxies.
// Residuals inside the burn-in window are zero.
func longARResiduals(w []float64, m int) ([]float64, error) {
	rows := len(w) - m
	cols := m + 1
	if rows <= cols {
		return nil, errSeriesTooShort
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := m + r
		X.Set(r, 0, 1)
		for i := 1; i <= m; i++ {
			X.Set(r, i, w[t-i])
		}
		y.SetVec(r, w[t])
	}

	coef, err := solveOLS(X, y)
	if err != nil {
		return nil, err
	}

	resid := make([]float64, len(w))
	for t := m; t < len(w); t++ {
		pred := coef[0]
		for i := 1; i <= m; i++ {
			pred += coef[i] * w[t-i]
		}
		resid[t] = w[t] - pred
	}
	return resid, nil
}

// solveOLS solves min ||Xb - y|| via QR. A singular or ill-conditioned design
// matrix surfaces as an error rather than a panic.
func solveOLS(X *mat.Dense, y *mat.VecDense) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(X)

	_, cols := X.Dims()
	var b mat.Dense
	if err := qr.SolveTo(&b, false, y); err != nil {
		// mat.Condition flags a near-singular system but still carries a
		// usable solution; the finiteness check below is the real gate.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares solve: %w", err)
		}
	}

	coef := make([]float64, cols)
	for i := 0; i < cols; i++ {
		c := b.At(i, 0)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New("non-finite coefficient")
		}
		coef[i] = c
	}
	return coef, nil
}

// difference returns the first differences of a series.
func difference(values []float64) []float64 {
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// meanModel is the deterministic fallback: it repeats the arithmetic mean of
// the series with zero-width intervals. Selected automatically for degenerate
// input or when the ARIMA fit fails; it never errors.
type meanModel struct {
	mean float64
}

func (m *meanModel) Fit(values []float64) error {
	if len(values) > 0 {
		m.mean = stat.Mean(values, nil)
	}
	return nil
}

func (m *meanModel) Forecast(horizon int) (points, stderrs []float64) {
	points = make([]float64, horizon)
	stderrs = make([]float64, horizon)
	for i := range points {
		points[i] = m.mean
	}
	return points, stderrs
}
