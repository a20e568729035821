package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init("warn"))
	assert.Equal(t, logrus.WarnLevel, L().GetLevel())

	assert.Error(t, Init("loud"))
}

func TestSublogger(t *testing.T) {
	require.NoError(t, Init("debug"))

	var buf bytes.Buffer
	L().SetOutput(&buf)
	defer L().SetOutput(os.Stdout)

	NewSublogger("service").Info("job created")
	assert.Contains(t, buf.String(), "module=service")
	assert.Contains(t, buf.String(), "job created")
}
