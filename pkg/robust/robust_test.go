package robust

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := Median(tt.in); got != tt.want {
			t.Errorf("%s: Median = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMAD(t *testing.T) {
	// Median 3, deviations {2,1,0,1,2} -> MAD 1
	if got := MAD([]float64{1, 2, 3, 4, 5}); got != 1 {
		t.Errorf("MAD = %v, want 1", got)
	}
	if got := MAD([]float64{7, 7, 7}); got != 0 {
		t.Errorf("MAD of constant = %v, want 0", got)
	}
}

func TestStdDevPopulation(t *testing.T) {
	// Population std of {2,4,4,4,5,5,7,9} is exactly 2.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", got)
	}
}

func TestModifiedZInliers(t *testing.T) {
	// One gross outlier among tightly clustered samples.
	xs := []float64{100, 101, 99, 100, 102, 98, 500}
	mask := ModifiedZInliers(xs)
	for i := 0; i < 6; i++ {
		if !mask[i] {
			t.Errorf("sample %d (%v) marked outlier", i, xs[i])
		}
	}
	if mask[6] {
		t.Error("gross outlier 500 marked inlier")
	}
}

func TestModifiedZInliersZeroMAD(t *testing.T) {
	xs := []float64{5, 5, 5, 5, 900}
	mask := ModifiedZInliers(xs)
	for i, in := range mask {
		if !in {
			t.Errorf("zero MAD: sample %d excluded", i)
		}
	}
}

func TestInterquartileBand(t *testing.T) {
	xs := []float64{9, 1, 2, 3, 4, 5, 6, 7, 8, 0}
	band := InterquartileBand(xs)
	if len(band) == 0 {
		t.Fatal("empty band")
	}
	for i := 1; i < len(band); i++ {
		if band[i] < band[i-1] {
			t.Fatal("band not sorted")
		}
	}
	// Extremes must be gone.
	if band[0] == 0 || band[len(band)-1] == 9 {
		t.Errorf("band retains extremes: %v", band)
	}
}
