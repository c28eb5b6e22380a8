package queue

import (
	"encoding/json"

	"github.com/scentshop/internal/constants"

	"github.com/hibiken/asynq"
)

// TaskNotificationDispatch 出站事件分发任务
const TaskNotificationDispatch = constants.TaskNotificationDispatch

// NotificationDispatchPayload 出站事件分发任务载荷
type NotificationDispatchPayload struct {
	EventID uint   `json:"event_id"`
	Event   string `json:"event"`
	OrderID uint   `json:"order_id"`
}

// NewNotificationDispatchTask 创建出站事件分发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// ParseNotificationDispatchPayload 解析任务载荷
func ParseNotificationDispatchPayload(task *asynq.Task) (NotificationDispatchPayload, error) {
	var payload NotificationDispatchPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
