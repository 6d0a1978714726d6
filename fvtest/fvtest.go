// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fvtest provides utility functions for testing signal operators
// against golden vectors and against each other.
//
package fvtest

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/logic"
)

// CheckVectors drives the input signals row by row and compares the
// output signals against the expected "01xz" strings. Each row holds
// len(ins) input strings followed by len(outs) expected output strings,
// most significant bit first. Values settle combinationally between
// rows; no scheduler run is required.
//
func CheckVectors(t *testing.T, ins, outs []*fvsim.Signal, vectors [][]string) {
	t.Helper()
	for i, row := range vectors {
		require.Len(t, row, len(ins)+len(outs), "vector %d", i)
		for j, in := range ins {
			v, err := logic.Parse(row[j])
			require.NoError(t, err, "vector %d, input %q", i, in.Name())
			require.NoError(t, in.Put(v), "vector %d, input %q", i, in.Name())
		}
		for j, out := range outs {
			want := row[len(ins)+j]
			if got := out.Value().String(); got != want {
				t.Errorf("vector %d: %s = %s, want %s", i, out.Name(), got, want)
			}
		}
	}
}

// randValue returns a fully defined random value of width w.
//
func randValue(rng *rand.Rand, w int) logic.Value {
	var sb strings.Builder
	for i := 0; i < w; i++ {
		sb.WriteByte('0' + byte(rng.Intn(2)))
	}
	return logic.MustParse(sb.String())
}

// CheckEquiv drives the input signals with n random fully defined
// vectors and fails if signals a and b ever disagree. The random source
// is seeded deterministically, so failures reproduce.
//
func CheckEquiv(t *testing.T, ins []*fvsim.Signal, a, b *fvsim.Signal, n int) {
	t.Helper()
	require.Equal(t, a.Width(), b.Width(), "%s and %s differ in width", a.Name(), b.Name())
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		for _, in := range ins {
			require.NoError(t, in.Put(randValue(rng, in.Width())))
		}
		got, want := a.Value().String(), b.Value().String()
		if got != want {
			var stim []string
			for _, in := range ins {
				stim = append(stim, in.Name()+"="+in.Value().String())
			}
			t.Fatalf("vector %d (%s): %s = %s, %s = %s",
				i, strings.Join(stim, " "), a.Name(), got, b.Name(), want)
		}
	}
}
