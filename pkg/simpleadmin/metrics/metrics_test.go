package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObservePostAction("publish", nil)
	c.ObservePostAction("publish", nil)
	c.ObservePostAction("publish", errors.New("boom"))
	c.ObserveMediaAction("delete", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.postActions.WithLabelValues("publish", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.postActions.WithLabelValues("publish", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mediaActions.WithLabelValues("delete", "success")))

	c.ObserveUsage(simpleadmin.UsagePartition{
		InUse:    []simpleadmin.MediaDescriptor{{Key: "a.png"}},
		NotInUse: []simpleadmin.MediaDescriptor{{Key: "b.png"}, {Key: "c.png"}},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mediaInUse))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.mediaNotInUse))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconciles))
}
