package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDownload(t *testing.T) {
	t.Run("CountsAttemptsBeyondTheFirst", func(t *testing.T) {
		r := New("", "rentafic")
		r.ObserveDownload(3)
		assert.Equal(t, float64(2), testutil.ToFloat64(r.downloadRetries))
	})

	t.Run("SingleAttemptAddsNothing", func(t *testing.T) {
		r := New("", "rentafic")
		r.ObserveDownload(1)
		r.ObserveDownload(0)
		assert.Zero(t, testutil.ToFloat64(r.downloadRetries))
	})
}
