package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	require.NotNil(t, l)

	l, err = New("info", "json")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New("loud", "json")
	require.Error(t, err)
}
