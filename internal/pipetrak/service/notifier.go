package service

import (
	"context"
	"encoding/json"

	"github.com/clachance14/pipetrak/internal/realtime"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventChannel is the redis channel bulk-update events are published
// on for other instances.
const EventChannel = "pipetrak:events"

// Notifier fans progress events out to connected clients (SSE hub) and
// to other instances (redis). Delivery is best effort: a nil redis
// client or hub degrades to a no-op, and publish errors are logged,
// never surfaced to the caller.
type Notifier struct {
	rdb    *redis.Client
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewNotifier creates a notifier; rdb and hub may each be nil.
func NewNotifier(rdb *redis.Client, hub *realtime.Hub, logger *zap.Logger) *Notifier {
	return &Notifier{rdb: rdb, hub: hub, logger: logger}
}

// MilestoneUpdated announces a single milestone change.
func (n *Notifier) MilestoneUpdated(ctx context.Context, projectID, componentID, milestoneName string) {
	n.publish(ctx, "milestone_update", map[string]interface{}{
		"project_id":     projectID,
		"component_id":   componentID,
		"milestone_name": milestoneName,
	})
}

// BulkUpdateCompleted announces a finished bulk operation.
func (n *Notifier) BulkUpdateCompleted(ctx context.Context, projectID, transactionID string, successful, failed int) {
	n.publish(ctx, "bulk_update", map[string]interface{}{
		"project_id":     projectID,
		"transaction_id": transactionID,
		"successful":     successful,
		"failed":         failed,
	})
}

// ConflictResolved announces a settled concurrent-edit conflict.
func (n *Notifier) ConflictResolved(ctx context.Context, projectID, milestoneID string) {
	n.publish(ctx, "conflict_resolved", map[string]interface{}{
		"project_id":   projectID,
		"milestone_id": milestoneID,
	})
}

// TransactionRolledBack announces an undone bulk transaction.
func (n *Notifier) TransactionRolledBack(ctx context.Context, projectID, transactionID string) {
	n.publish(ctx, "transaction_rolled_back", map[string]interface{}{
		"project_id":     projectID,
		"transaction_id": transactionID,
	})
}

func (n *Notifier) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if n == nil {
		return
	}
	payload["event"] = eventType
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	if n.hub != nil {
		n.hub.Broadcast(realtime.Event{EventType: eventType, Data: string(data)})
	}
	if n.rdb != nil {
		if err := n.rdb.Publish(ctx, EventChannel, data).Err(); err != nil && n.logger != nil {
			n.logger.Warn("failed to publish event to redis",
				zap.String("event", eventType),
				zap.Error(err))
		}
	}
}
