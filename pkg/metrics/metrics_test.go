package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLLMRequest(t *testing.T) {
	before := testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test", "m", "in"))

	RecordLLMRequest("test", "m", "success", 0.5, 10, 0)

	assert.Equal(t, before+10, testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test", "m", "in")))
	assert.Equal(t, 0.0, testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test", "m", "out")))
}

func TestRecordUpload(t *testing.T) {
	bytesBefore := testutil.ToFloat64(UploadBytesTotal)
	failedBefore := testutil.ToFloat64(UploadsTotal.WithLabelValues("storage"))

	RecordUpload("success", 128)
	RecordUpload("storage", 64)

	assert.Equal(t, bytesBefore+128, testutil.ToFloat64(UploadBytesTotal))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(UploadsTotal.WithLabelValues("storage")))
}

func TestSSEConnections(t *testing.T) {
	before := testutil.ToFloat64(SSEConnectionsActive)

	IncrementSSEConnections()
	assert.Equal(t, before+1, testutil.ToFloat64(SSEConnectionsActive))

	DecrementSSEConnections()
	assert.Equal(t, before, testutil.ToFloat64(SSEConnectionsActive))
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(ErrorsTotal.WithLabelValues("chat", "upstream"))

	RecordError("chat", "upstream")

	assert.Equal(t, before+1, testutil.ToFloat64(ErrorsTotal.WithLabelValues("chat", "upstream")))
}
