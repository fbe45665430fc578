// Package metrics publishes business counters to CloudWatch. Publishing is
// fire-and-forget: a metrics failure is logged and never fails the request.
package metrics

import (
	"context"
	"log"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/dapursari/storefront/internal/aws"
)

const namespace = "Storefront"

// Recorder emits counters into the Storefront namespace.
type Recorder struct {
	client  aws.CloudWatchAPI
	nowFunc func() time.Time
}

// NewRecorder returns a Recorder. A nil client disables publishing (local dev).
func NewRecorder(client aws.CloudWatchAPI) *Recorder {
	return &Recorder{client: client, nowFunc: time.Now}
}

// Count emits a counter increment with optional dimensions.
func (r *Recorder) Count(ctx context.Context, name string, dims map[string]string) {
	if r == nil || r.client == nil {
		return
	}
	var dimensions []cwtypes.Dimension
	for k, v := range dims {
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(k),
			Value: sdkaws.String(v),
		})
	}
	now := r.nowFunc()
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Dimensions: dimensions,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
			},
		},
	})
	if err != nil {
		log.Printf("put metric %s: %v", name, err)
	}
}

// Metric names emitted around the order and auth flows.
const (
	MetricOrderCreated     = "OrderCreated"
	MetricOrderTransition  = "OrderTransition"
	MetricLoginLockout     = "LoginLockout"
	MetricEmailSent        = "EmailSent"
	MetricEmailFailed      = "EmailFailed"
	MetricWebhookRejected  = "WebhookRejected"
	MetricSweepOrderPurged = "SweepOrderPurged"
)
