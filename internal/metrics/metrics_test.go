package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementSubmission(t *testing.T) {
	before := testutil.ToFloat64(SubmissionRequests.WithLabelValues(StatusBadRequest))

	IncrementSubmission(StatusBadRequest)
	IncrementSubmission(StatusBadRequest)

	after := testutil.ToFloat64(SubmissionRequests.WithLabelValues(StatusBadRequest))
	if after-before != 2 {
		t.Errorf("counter delta: got %v, want 2", after-before)
	}
}

func TestObserveSend_LabelsByOutcome(t *testing.T) {
	ObserveSend("metrics-test", nil, 10*time.Millisecond)
	ObserveSend("metrics-test", errors.New("boom"), 10*time.Millisecond)

	if n := testutil.CollectAndCount(MailSendDuration, "mail_send_duration_seconds"); n < 2 {
		t.Errorf("series count: got %d, want at least 2", n)
	}
}
