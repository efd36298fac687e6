package entity

import "fmt"

// Caps on a single line. Their product stays well inside int64.
const (
	MaxBiaya  int64 = 1_000_000_000_000
	MaxJumlah int64 = 1_000_000
)

// ComputeTotals fills jumlahBiaya = biaya × jumlah on each line and returns the sum.
// The input slice is not modified. A product or sum that would wrap returns
// ErrAmountOverflow naming the offending line.
func ComputeTotals(items []LineItem) ([]LineItem, int64, error) {
	out := make([]LineItem, len(items))
	var total int64
	for i, item := range items {
		if item.Biaya < 0 || item.Jumlah < 0 {
			return nil, 0, fmt.Errorf("line %d: %w", i, ErrAmountOverflow)
		}
		p := item.Biaya * item.Jumlah
		if item.Biaya != 0 && p/item.Biaya != item.Jumlah {
			return nil, 0, fmt.Errorf("line %d: %w", i, ErrAmountOverflow)
		}
		sum := total + p
		if sum < total {
			return nil, 0, fmt.Errorf("line %d: %w", i, ErrAmountOverflow)
		}
		item.JumlahBiaya = p
		total = sum
		out[i] = item
	}
	return out, total, nil
}

// Reconcile splits the difference between a cash advance and what was spent.
// At most one of the results is non-zero.
func Reconcile(jumlahBS, totalBiaya int64) (sisaLebih, sisaKurang int64) {
	if jumlahBS >= totalBiaya {
		return jumlahBS - totalBiaya, 0
	}
	return 0, totalBiaya - jumlahBS
}
