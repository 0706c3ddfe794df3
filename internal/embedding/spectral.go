package embedding

import (
	"fmt"
	"math"
	"sort"
)

// Method selects how the spectral projection basis is learned.
type Method string

const (
	// MethodSVD extracts the top-k right singular vectors of the TF-IDF
	// matrix.
	MethodSVD Method = "svd"

	// MethodPCA mean-centers the matrix before extraction; projection
	// centers the input vector with the stored mean.
	MethodPCA Method = "pca"

	// MethodLaplacian eigendecomposes the graph Laplacian of the pairwise
	// document cosine-similarity matrix and keeps the eigenvectors of the
	// smallest non-zero eigenvalues.
	MethodLaplacian Method = "laplacian"
)

// DefaultDimension is the basis width used when none is configured, capped by
// the vocabulary size and the corpus size.
const DefaultDimension = 128

const (
	powerIterations   = 100
	convergenceEps    = 1e-6
	zeroEigenvalueEps = 1e-10
)

// basis is a learned projection: k orthonormal directions in term space.
// mean is non-nil only for the PCA method.
type basis struct {
	components [][]float64 // k rows, each of vocabulary length
	mean       []float64
}

func (b *basis) width() int {
	if b == nil {
		return 0
	}
	return len(b.components)
}

// fitBasis learns a projection basis from the document-term matrix. The
// effective width is min(k, columns, rows); k <= 0 selects DefaultDimension.
func fitBasis(matrix [][]float64, k int, method Method) (*basis, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("fit basis: %w", ErrEmptyCorpus)
	}

	rows := len(matrix)
	cols := len(matrix[0])

	if k <= 0 {
		k = DefaultDimension
	}
	if k > cols {
		k = cols
	}
	if k > rows {
		k = rows
	}

	switch method {
	case MethodSVD:
		return &basis{components: extractComponents(copyMatrix(matrix), k)}, nil
	case MethodPCA:
		centered, mean := centerMatrix(matrix)
		return &basis{components: extractComponents(centered, k), mean: mean}, nil
	case MethodLaplacian:
		return fitLaplacianBasis(matrix, k), nil
	default:
		return nil, fmt.Errorf("fit basis: %q: %w", method, ErrUnsupportedMethod)
	}
}

// project maps a term-space vector onto the basis, producing a width()-length
// vector: basis^T · v.
func project(vector []float64, b *basis) []float64 {
	input := vector
	if b.mean != nil {
		input = make([]float64, len(vector))
		for i := range vector {
			input[i] = vector[i] - b.mean[i]
		}
	}

	reduced := make([]float64, len(b.components))
	for i, component := range b.components {
		reduced[i] = dotProduct(input, component)
	}
	return reduced
}

// extractComponents pulls k principal directions out of the row set by power
// iteration with deflation. The rows are destroyed in the process.
func extractComponents(rows [][]float64, k int) [][]float64 {
	components := make([][]float64, k)
	for i := 0; i < k; i++ {
		component := extractComponent(rows)
		components[i] = component

		// Deflate: remove this direction's contribution from every row.
		for _, row := range rows {
			proj := dotProduct(row, component)
			for j := range row {
				row[j] -= proj * component[j]
			}
		}
	}
	return components
}

// extractComponent finds the dominant right singular direction of the row set
// by power iteration on X^T X.
func extractComponent(rows [][]float64) []float64 {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	if dim == 0 {
		return nil
	}

	component := make([]float64, dim)
	for i := range component {
		component[i] = 1.0 / math.Sqrt(float64(dim))
	}

	for iter := 0; iter < powerIterations; iter++ {
		next := make([]float64, dim)
		for _, row := range rows {
			proj := dotProduct(row, component)
			for j := range next {
				next[j] += proj * row[j]
			}
		}

		norm := vectorNorm(next)
		if norm == 0 {
			// Rows are fully deflated; nothing left to extract.
			return next
		}
		for j := range next {
			next[j] /= norm
		}

		diff := 0.0
		for j := range component {
			diff += math.Abs(next[j] - component[j])
		}
		component = next

		if diff < convergenceEps {
			break
		}
	}

	return component
}

// fitLaplacianBasis builds the similarity-graph Laplacian L = D - S over the
// document rows, eigendecomposes it, and keeps the eigenvectors of the k
// smallest non-zero eigenvalues. Each retained document-space eigenvector u
// is lifted to the unit term-space direction X^T u so projection of unseen
// documents stays a plain dot product.
func fitLaplacianBasis(matrix [][]float64, k int) *basis {
	n := len(matrix)
	cols := len(matrix[0])

	similarity := make([][]float64, n)
	for i := range similarity {
		similarity[i] = make([]float64, n)
		for j := range similarity[i] {
			similarity[i][j] = cosineSimilarity(matrix[i], matrix[j])
		}
	}

	laplacian := make([][]float64, n)
	for i := range laplacian {
		laplacian[i] = make([]float64, n)
		degree := 0.0
		for j := range similarity[i] {
			degree += similarity[i][j]
		}
		for j := range laplacian[i] {
			laplacian[i][j] = -similarity[i][j]
		}
		laplacian[i][i] = degree - similarity[i][i]
	}

	values, vectors := jacobiEigen(laplacian)

	// Ascending by eigenvalue; skip the near-zero ones (the constant
	// eigenvector and any disconnected-component duplicates).
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	components := make([][]float64, 0, k)
	for _, idx := range order {
		if len(components) == k {
			break
		}
		if values[idx] <= zeroEigenvalueEps {
			continue
		}
		components = append(components, liftToTermSpace(matrix, vectors[idx], cols))
	}

	// Degenerate graphs (all similarities zero) have no non-zero
	// eigenvalues; fall back to the smallest ones so the basis keeps its
	// width.
	for _, idx := range order {
		if len(components) == k {
			break
		}
		if values[idx] > zeroEigenvalueEps {
			continue
		}
		components = append(components, liftToTermSpace(matrix, vectors[idx], cols))
	}

	return &basis{components: components}
}

// liftToTermSpace maps a document-space eigenvector u to the unit term-space
// direction X^T u. A zero lift stays a zero column.
func liftToTermSpace(matrix [][]float64, u []float64, cols int) []float64 {
	direction := make([]float64, cols)
	for i, row := range matrix {
		for j := range row {
			direction[j] += u[i] * row[j]
		}
	}
	return normalizeVector(direction)
}

// jacobiEigen computes eigenvalues and eigenvectors of a symmetric matrix by
// cyclic Jacobi rotations. vectors[i] is the eigenvector for values[i].
func jacobiEigen(symmetric [][]float64) (values []float64, vectors [][]float64) {
	n := len(symmetric)
	a := copyMatrix(symmetric)

	v := make([][]float64, n)
	for i := range v {
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < zeroEigenvalueEps {
			break
		}

		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < zeroEigenvalueEps {
					continue
				}

				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for i := 0; i < n; i++ {
					aip, aiq := a[i][p], a[i][q]
					a[i][p] = c*aip - s*aiq
					a[i][q] = s*aip + c*aiq
				}
				for i := 0; i < n; i++ {
					api, aqi := a[p][i], a[q][i]
					a[p][i] = c*api - s*aqi
					a[q][i] = s*api + c*aqi
				}
				for i := 0; i < n; i++ {
					vip, viq := v[i][p], v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	values = make([]float64, n)
	vectors = make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = a[i][i]
		vectors[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			vectors[i][j] = v[j][i]
		}
	}
	return values, vectors
}

// centerMatrix subtracts the column mean from every row, returning the
// centered copy and the mean.
func centerMatrix(matrix [][]float64) ([][]float64, []float64) {
	rows := len(matrix)
	cols := len(matrix[0])

	mean := make([]float64, cols)
	for _, row := range matrix {
		for j, val := range row {
			mean[j] += val
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}

	centered := make([][]float64, rows)
	for i, row := range matrix {
		centered[i] = make([]float64, cols)
		for j := range row {
			centered[i][j] = row[j] - mean[j]
		}
	}
	return centered, mean
}

func copyMatrix(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// cosineSimilarity returns 0 when either vector has zero norm.
func cosineSimilarity(a, b []float64) float64 {
	normA := vectorNorm(a)
	normB := vectorNorm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct(a, b) / (normA * normB)
}

// dotProduct computes the dot product of two vectors.
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// vectorNorm computes the L2 norm of a vector.
func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// normalizeVector scales a vector to unit length; a zero vector is returned
// unchanged.
func normalizeVector(v []float64) []float64 {
	norm := vectorNorm(v)
	if norm == 0 {
		return v
	}
	normalized := make([]float64, len(v))
	for i, val := range v {
		normalized[i] = val / norm
	}
	return normalized
}
