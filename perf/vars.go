package perf

import (
	"expvar"

	"github.com/encodeous/metric"
)

var (
	PacketsForwarded  = metric.NewCounter("10s1s")
	PacketsDropped    = metric.NewCounter("10s1s")
	VectorsReceived   = metric.NewCounter("10s1s")
	MessagesDelivered = metric.NewCounter("10s1s")
	Steps             = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("dvnet:PacketsForwarded/s", PacketsForwarded)
	expvar.Publish("dvnet:PacketsDropped/s", PacketsDropped)
	expvar.Publish("dvnet:VectorsReceived/s", VectorsReceived)
	expvar.Publish("dvnet:MessagesDelivered/s", MessagesDelivered)
	expvar.Publish("dvnet:Steps/s", Steps)
}
