package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_ParsesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("room", "A").Info("room booked")
	assert.Contains(t, buf.String(), "room=A")
	assert.Contains(t, buf.String(), `msg="room booked"`)
}

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	l := New("chatty", &buf)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}
