package nn

import (
	"testing"
)

// TestTensorCreation verifies basic tensor shape bookkeeping
func TestTensorCreation(t *testing.T) {
	tensor := NewTensor[float32](2, 3, 4, 5)
	if tensor.Count() != 120 {
		t.Errorf("Expected count 120, got %d", tensor.Count())
	}
	if tensor.Num() != 2 || tensor.Channels() != 3 || tensor.Height() != 4 || tensor.Width() != 5 {
		t.Errorf("Expected shape (2,3,4,5), got %v", tensor.Shape)
	}
	if len(tensor.Data) != 120 || len(tensor.Grad) != 120 {
		t.Errorf("Data and Grad buffers must both cover the full shape")
	}

	data := []float64{1, 2, 3, 4, 5, 6}
	tensor2 := NewTensorFromSlice(data, 1, 6, 1, 1)
	if tensor2 == nil {
		t.Fatal("NewTensorFromSlice returned nil for a matching slice")
	}
	if tensor2.Data[0] != 1 || tensor2.Data[5] != 6 {
		t.Errorf("Data not correctly adopted")
	}

	// Mismatched slice length should return nil
	if NewTensorFromSlice(data, 2, 2, 2, 2) != nil {
		t.Error("Mismatched slice length should return nil")
	}
}

// TestTensorOffset verifies NCHW flat indexing
func TestTensorOffset(t *testing.T) {
	tensor := NewTensor[float32](2, 3, 4, 5)

	if got := tensor.Offset(0, 0, 0, 0); got != 0 {
		t.Errorf("Offset(0,0,0,0): expected 0, got %d", got)
	}
	if got := tensor.Offset(0, 0, 0, 1); got != 1 {
		t.Errorf("Offset(0,0,0,1): expected 1, got %d", got)
	}
	if got := tensor.Offset(0, 1, 0, 0); got != 20 {
		t.Errorf("Offset(0,1,0,0): expected 20, got %d", got)
	}
	if got := tensor.Offset(1, 2, 3, 4); got != 119 {
		t.Errorf("Offset(1,2,3,4): expected 119, got %d", got)
	}
}

// TestTensorClone verifies deep copies of both buffers
func TestTensorClone(t *testing.T) {
	original := NewTensorFromSlice([]int32{1, 2, 3, 4}, 1, 4, 1, 1)
	original.Grad[0] = 7
	clone := original.Clone()

	original.Data[0] = 100
	original.Grad[0] = 100

	if clone.Data[0] != 1 || clone.Grad[0] != 7 {
		t.Errorf("Clone was modified when original changed")
	}
}

// TestZeroGrad verifies gradient clearing leaves data intact
func TestZeroGrad(t *testing.T) {
	tensor := NewTensorFromSlice([]float32{1, 2, 3, 4}, 1, 4, 1, 1)
	for i := range tensor.Grad {
		tensor.Grad[i] = float32(i + 1)
	}
	tensor.ZeroGrad()
	for i, g := range tensor.Grad {
		if g != 0 {
			t.Errorf("Grad[%d] not cleared: %v", i, g)
		}
	}
	if tensor.Data[0] != 1 {
		t.Errorf("ZeroGrad touched the data buffer")
	}
}
