package forecast

import "math"

// solveOLS solves min ||design·x − target|| via the normal equations with
// Gaussian elimination. Returns ok=false when the system is singular, which
// for our design matrices means the series carries no usable variation.
func solveOLS(design [][]float64, target []float64) ([]float64, bool) {
	if len(design) == 0 {
		return nil, false
	}
	cols := len(design[0])
	if len(design) < cols {
		return nil, false
	}

	// XtX and Xty
	xtx := make([][]float64, cols)
	xty := make([]float64, cols)
	for i := 0; i < cols; i++ {
		xtx[i] = make([]float64, cols)
	}
	for r, row := range design {
		for i := 0; i < cols; i++ {
			xty[i] += row[i] * target[r]
			for j := i; j < cols; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < cols; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	return solveLinear(xtx, xty)
}

// solveLinear solves a·x = b in place with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}
