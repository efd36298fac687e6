package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Description: "Tiket kereta", Biaya: 300000, Jumlah: 2},
		{Description: "Konsumsi", Biaya: 100000, Jumlah: 1},
	}

	out, total, err := ComputeTotals(items)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(600000), out[0].JumlahBiaya)
	assert.Equal(t, int64(100000), out[1].JumlahBiaya)
	assert.Equal(t, int64(700000), total)
	assert.Zero(t, items[0].JumlahBiaya, "input must not be modified")
}

func TestComputeTotals_OrderInvariant(t *testing.T) {
	items := []LineItem{
		{Biaya: 125000, Jumlah: 3},
		{Biaya: 7500, Jumlah: 12},
		{Biaya: 1, Jumlah: 0},
		{Biaya: 990000, Jumlah: 1},
	}
	_, want, err := ComputeTotals(items)
	require.NoError(t, err)

	reversed := make([]LineItem, len(items))
	for i := range items {
		reversed[len(items)-1-i] = items[i]
	}
	rotated := append(append([]LineItem{}, items[2:]...), items[:2]...)

	_, gotReversed, _ := ComputeTotals(reversed)
	_, gotRotated, _ := ComputeTotals(rotated)

	assert.Equal(t, want, gotReversed)
	assert.Equal(t, want, gotRotated)
}

func TestComputeTotals_Overflow(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
	}{
		{"product wraps", []LineItem{{Biaya: math.MaxInt64 / 2, Jumlah: 3}}},
		{"sum wraps", []LineItem{{Biaya: math.MaxInt64 - 10, Jumlah: 1}, {Biaya: 11, Jumlah: 1}}},
		{"negative amount", []LineItem{{Biaya: -5, Jumlah: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, total, err := ComputeTotals(tt.items)
			assert.ErrorIs(t, err, ErrAmountOverflow)
			assert.Nil(t, out)
			assert.Zero(t, total)
		})
	}

	_, total, err := ComputeTotals([]LineItem{{Biaya: MaxBiaya, Jumlah: MaxJumlah}})
	require.NoError(t, err)
	assert.Equal(t, MaxBiaya*MaxJumlah, total)
}

func TestSubmission_RecomputeTotals_OverflowKeepsState(t *testing.T) {
	s := &Submission{
		DocType:    DocLPJ,
		JumlahBS:   1000,
		TotalBiaya: 700,
		SisaLebih:  300,
		LineItems:  []LineItem{{Biaya: math.MaxInt64 / 2, Jumlah: 3}},
	}

	assert.ErrorIs(t, s.RecomputeTotals(), ErrAmountOverflow)
	assert.Equal(t, int64(700), s.TotalBiaya)
	assert.Equal(t, int64(300), s.SisaLebih)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		jumlahBS   int64
		total      int64
		wantLebih  int64
		wantKurang int64
	}{
		{"surplus returned", 1000000, 700000, 300000, 0},
		{"shortfall reimbursed", 500000, 700000, 0, 200000},
		{"exact", 700000, 700000, 0, 0},
		{"no advance", 0, 50000, 0, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lebih, kurang := Reconcile(tt.jumlahBS, tt.total)
			assert.Equal(t, tt.wantLebih, lebih)
			assert.Equal(t, tt.wantKurang, kurang)
			assert.False(t, lebih != 0 && kurang != 0, "sisaLebih and sisaKurang must not both be non-zero")
		})
	}
}

func TestSubmission_RecomputeTotals_LPJ(t *testing.T) {
	s := &Submission{
		DocType:  DocLPJ,
		JumlahBS: 1000000,
		LineItems: []LineItem{
			{Biaya: 300000, Jumlah: 2},
			{Biaya: 100000, Jumlah: 1},
		},
	}

	require.NoError(t, s.RecomputeTotals())

	assert.Equal(t, int64(700000), s.TotalBiaya)
	assert.Equal(t, int64(300000), s.SisaLebih)
	assert.Equal(t, int64(0), s.SisaKurang)
}

func TestSubmission_RecomputeTotals_NonLPJClearsSisa(t *testing.T) {
	s := &Submission{
		DocType:   DocReimbursement,
		SisaLebih: 10,
		LineItems: []LineItem{{Biaya: 5000, Jumlah: 2}},
	}

	require.NoError(t, s.RecomputeTotals())

	assert.Equal(t, int64(10000), s.TotalBiaya)
	assert.Zero(t, s.SisaLebih)
	assert.Zero(t, s.SisaKurang)
}

func TestReviewersDisjoint(t *testing.T) {
	assert.True(t, ReviewersDisjoint([]string{"a", "b"}, []string{"c"}))
	assert.True(t, ReviewersDisjoint(nil, []string{"c"}))
	assert.False(t, ReviewersDisjoint([]string{"a", "b"}, []string{"b"}))
}

func TestParseDocType(t *testing.T) {
	for _, d := range DocTypes() {
		got, err := ParseDocType(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	_, err := ParseDocType("invoice")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUser_SnapshotIsIndependent(t *testing.T) {
	u := &User{UID: "u1", Validator: []string{"v1"}, Reviewer1: []string{"r1"}}

	snap := u.Snapshot()
	u.Validator[0] = "changed"

	assert.Equal(t, []string{"v1"}, snap.Validator)
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("category", "is required")
	err := verr.OrNil()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "category: is required")
}
