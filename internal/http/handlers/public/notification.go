package public

import (
	"github.com/scentshop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListNotifications 站内通知（最近 50 条）
func (h *Handler) ListNotifications(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	items, unread, err := h.NotificationService.List(actor)
	if err != nil {
		respondWithMappedError(c, err, notificationErrorRules, "notification fetch failed")
		return
	}
	response.Success(c, gin.H{"items": items, "unread": unread})
}

// GetUnreadCount 未读数量
func (h *Handler) GetUnreadCount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	unread, err := h.NotificationService.UnreadCount(actor)
	if err != nil {
		respondWithMappedError(c, err, notificationErrorRules, "notification fetch failed")
		return
	}
	response.Success(c, gin.H{"unread": unread})
}

// MarkNotificationRead 标记单条已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(actor, id); err != nil {
		respondWithMappedError(c, err, notificationErrorRules, "notification update failed")
		return
	}
	response.Success(c, gin.H{"id": id, "read": true})
}

// MarkAllNotificationsRead 全部标记已读
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	updated, err := h.NotificationService.MarkAllRead(actor)
	if err != nil {
		respondWithMappedError(c, err, notificationErrorRules, "notification update failed")
		return
	}
	response.Success(c, gin.H{"updated": updated})
}
