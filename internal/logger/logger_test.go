package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsCarriesEntry(t *testing.T) {
	var buf bytes.Buffer
	Setup("debug", "json")
	SetOutput(&buf)
	t.Cleanup(func() { Setup("info", "text") })

	ctx := WithFields(context.Background(), logrus.Fields{"request_id": "r-1"})
	ctx = WithFields(ctx, logrus.Fields{"user_id": "u1"})
	Infof(ctx, "hello %s", "world")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello world", line["msg"])
	require.Equal(t, "r-1", line["request_id"])
	require.Equal(t, "u1", line["user_id"])
}

func TestGetLoggerWithoutFields(t *testing.T) {
	require.NotNil(t, GetLogger(context.Background()))
}
