package segmentation

import (
	"math"
	"math/rand"
)

const maxKMeansIterations = 100

// lloyd runs Lloyd's k-means on the given points with k-means++ seeding from
// the supplied RNG. Points and the returned centroids are rows of equal
// width. Ties in distance always resolve to the lower centroid index, so the
// result is fully determined by the points and the RNG seed.
func lloyd(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := seedPlusPlus(points, k, rng)
	assign := make([]int, len(points))

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range points {
			c := nearestCentroid(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		dim := len(centroids[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return centroids
}

// seedPlusPlus picks k initial centroids with the k-means++ heuristic:
// first uniformly, the rest proportional to squared distance from the
// nearest centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if dd := sqDist(p, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			total += d
		}

		var next []float64
		if total == 0 {
			// All remaining points coincide with a centroid; pick uniformly.
			next = points[rng.Intn(len(points))]
		} else {
			target := rng.Float64() * total
			var cum float64
			for i, d := range dists {
				cum += d
				if cum >= target {
					next = points[i]
					break
				}
			}
			if next == nil {
				next = points[len(points)-1]
			}
		}
		centroids = append(centroids, append([]float64(nil), next...))
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid, lower index
// winning ties.
func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
