package config_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestQueueAckWait(t *testing.T) {
	cfg := config.Queue{DispatchTimeout: 5 * time.Minute}

	// The visibility window must outlast the handler deadline so a
	// timed-out attempt cannot overlap its own redelivery.
	gt.Value(t, cfg.AckWait() > cfg.DispatchTimeout).Equal(true)
	gt.Value(t, cfg.AckWait()).Equal(5*time.Minute + 30*time.Second)
}
