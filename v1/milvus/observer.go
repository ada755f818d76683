package milvus

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/std-milvus/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
func (c *Client) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "milvus",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}

func (c *Client) logDebug(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, "[Milvus] "+msg, err, fields)
	}
}

func (c *Client) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, "[Milvus] "+msg, nil, fields)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, "[Milvus] "+msg, err, fields)
	}
}
