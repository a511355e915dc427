package disruptor

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorBeforeStartReportsBufferOnly(t *testing.T) {
	d, _ := newTestDisruptor(t, 8)
	_, err := d.HandleEventsWith(newStubHandler("a"))
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(d.Collector()))
}

func TestCollectorReportsConsumers(t *testing.T) {
	d, executor := newTestDisruptor(t, 8)
	a := newStubHandler("a")

	group, err := d.HandleEventsWith(a)
	require.NoError(t, err)
	_, err = group.ThenHandleEventsWithWorkerPool(&stubWorker{})
	require.NoError(t, err)

	_, err = d.Start()
	require.NoError(t, err)
	defer stopAndWait(t, d, executor)

	for i := 0; i < 3; i++ {
		d.PublishEvent(func(event *testEvent, sequence int64) {})
	}
	require.Eventually(t, func() bool {
		value, _ := d.SequenceValueFor(a)
		return value == 2
	}, 2*time.Second, time.Millisecond)

	c := d.Collector()
	assert.Equal(t, 2+3*2, testutil.CollectAndCount(c))
	assert.Equal(t, 2, testutil.CollectAndCount(c, "disruptor_consumer_lag"))

	expected := `
# HELP disruptor_cursor Highest published sequence
# TYPE disruptor_cursor gauge
disruptor_cursor 2
# HELP disruptor_consumer_end_of_chain 1 if the consumer gates the ring buffer
# TYPE disruptor_consumer_end_of_chain gauge
disruptor_consumer_end_of_chain{consumer="a#1",kind="processor"} 1
disruptor_consumer_end_of_chain{consumer="worker-pool[1]#2",kind="worker-pool"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"disruptor_cursor", "disruptor_consumer_end_of_chain"))
}
