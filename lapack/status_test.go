// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusStrings(t *testing.T) {
	require.Equal(t, "Success", StatusSuccess.String())
	require.Equal(t, "InvalidHandle", StatusInvalidHandle.String())
	require.Equal(t, "MemoryError", StatusMemoryError.String())
	require.Equal(t, "Status(99)", Status(99).String())
}

func TestStatusRoundTrip(t *testing.T) {
	for _, v := range StatusValues() {
		got, err := StatusString(v.String())
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.True(t, v.IsAStatus())
	}
	// Lookup is case-insensitive, like every enumer enum here.
	got, err := StatusString("invalidsize")
	require.NoError(t, err)
	require.Equal(t, StatusInvalidSize, got)

	_, err = StatusString("bogus")
	require.Error(t, err)
	require.False(t, Status(-1).IsAStatus())
}
