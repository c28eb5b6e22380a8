package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/metrics"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"gorm.io/gorm"
)

// EmailSender 邮件发送
type EmailSender interface {
	SendEmail(toEmail, subject, body string) error
}

// WhatsAppSender WhatsApp 发送
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, message string) error
}

// NotificationService 通知服务：出站事件分发与站内通知读取
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	outboxRepo       repository.OutboxRepository
	orderRepo        repository.OrderRepository
	userRepo         repository.UserRepository
	settingService   *AdminSettingService
	email            EmailSender
	whatsApp         WhatsAppSender
	ttl              time.Duration
	maxAttempts      int
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, outboxRepo repository.OutboxRepository, orderRepo repository.OrderRepository, userRepo repository.UserRepository, settingService *AdminSettingService, email EmailSender, whatsApp WhatsAppSender, cfg *config.NotificationConfig) *NotificationService {
	ttlDays := 30
	maxAttempts := 5
	if cfg != nil {
		if cfg.TTLDays > 0 {
			ttlDays = cfg.TTLDays
		}
		if cfg.MaxAttempts > 0 {
			maxAttempts = cfg.MaxAttempts
		}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		settingService:   settingService,
		email:            email,
		whatsApp:         whatsApp,
		ttl:              time.Duration(ttlDays) * 24 * time.Hour,
		maxAttempts:      maxAttempts,
	}
}

// MaxAttempts 单个事件最大分发次数
func (s *NotificationService) MaxAttempts() int {
	return s.maxAttempts
}

// Dispatch 分发出站事件：站内通知只生成一次，外部渠道逐个记录已发送，
// 有渠道失败时返回错误以便重试，达到上限后标记失败
func (s *NotificationService) Dispatch(ctx context.Context, eventID uint) error {
	log := logger.FromContext(ctx).With("event_id", eventID)
	event, err := s.outboxRepo.GetByID(eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrOutboxEventNotFound
	}
	if event.Status != constants.OutboxStatusPending {
		return nil
	}

	order, err := s.orderRepo.GetByID(event.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		log.Warnw("notification_order_missing", "order_id", event.OrderID)
		return s.finish(event, constants.OutboxStatusFailed, event.SentChannels, "order not found")
	}
	var user *models.User
	if order.UserID != nil {
		if user, err = s.userRepo.GetByID(*order.UserID); err != nil {
			return err
		}
	}
	setting := models.DefaultAdminSetting()
	if s.settingService != nil {
		setting = s.settingService.GetOrDefault(ctx)
	}
	plan := buildNotificationPlan(event, order, user, setting, time.Now().Add(s.ttl))

	if !event.InAppDone {
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			affected, err := s.outboxRepo.WithTx(tx).MarkInAppDone(event.ID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return nil
			}
			return s.notificationRepo.WithTx(tx).CreateBatch(plan.InApp)
		})
		if err != nil {
			return err
		}
		event.InAppDone = true
	}

	sent := append(models.StringArray{}, event.SentChannels...)
	var failures []string
	for _, msg := range plan.External {
		if sent.Contains(msg.Channel) {
			continue
		}
		err := s.send(ctx, msg)
		metrics.RecordNotificationSend(msg.Channel, err)
		switch {
		case err == nil:
			sent = append(sent, msg.Channel)
		case isChannelUnavailable(err):
			log.Infow("notification_channel_skipped", "channel", msg.Channel, "reason", err.Error())
			sent = append(sent, msg.Channel)
		default:
			log.Warnw("notification_send_failed", "channel", msg.Channel, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", msg.Channel, err))
		}
	}

	event.Attempts++
	if len(failures) == 0 {
		return s.finish(event, constants.OutboxStatusDone, sent, "")
	}
	lastError := strings.Join(failures, "; ")
	if event.Attempts >= s.maxAttempts {
		log.Errorw("notification_dispatch_gave_up", "attempts", event.Attempts, "error", lastError)
		return s.finish(event, constants.OutboxStatusFailed, sent, lastError)
	}
	if err := s.outboxRepo.UpdateFields(event.ID, map[string]interface{}{
		"attempts":      event.Attempts,
		"sent_channels": sent,
		"last_error":    lastError,
	}); err != nil {
		return err
	}
	metrics.RecordOutboxDispatch("retry")
	return errors.New(lastError)
}

func (s *NotificationService) finish(event *models.OutboxEvent, status string, sent models.StringArray, lastError string) error {
	now := time.Now()
	if sent == nil {
		sent = models.StringArray{}
	}
	if err := s.outboxRepo.UpdateFields(event.ID, map[string]interface{}{
		"status":        status,
		"attempts":      event.Attempts,
		"sent_channels": sent,
		"last_error":    lastError,
		"dispatched_at": now,
	}); err != nil {
		return err
	}
	event.Status = status
	metrics.RecordOutboxDispatch(status)
	return nil
}

func (s *NotificationService) send(ctx context.Context, msg externalMessage) error {
	switch msg.Channel {
	case constants.ChannelAdminEmail, constants.ChannelUserEmail:
		if s.email == nil {
			return ErrEmailServiceDisabled
		}
		return s.email.SendEmail(msg.To, msg.Subject, msg.Body)
	case constants.ChannelAdminWhatsApp:
		if s.whatsApp == nil {
			return ErrWhatsAppDisabled
		}
		return s.whatsApp.SendWhatsApp(ctx, msg.To, msg.Body)
	}
	return fmt.Errorf("unknown channel %s", msg.Channel)
}

// isChannelUnavailable 渠道未启用或目标无效，重试无意义
func isChannelUnavailable(err error) bool {
	for _, target := range []error{
		ErrEmailServiceDisabled,
		ErrEmailServiceNotConfigured,
		ErrInvalidEmail,
		ErrEmailRecipientRejected,
		ErrWhatsAppDisabled,
		ErrWhatsAppNotConfigured,
		ErrInvalidSettingValue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func recipientFilter(actor Actor) repository.NotificationFilter {
	if actor.IsAdmin() {
		return repository.NotificationFilter{RecipientType: constants.RecipientAdmin, Now: time.Now()}
	}
	return repository.NotificationFilter{RecipientType: constants.RecipientUser, RecipientID: actor.UserID, Now: time.Now()}
}

// List 最近 50 条未过期通知及未读数
func (s *NotificationService) List(actor Actor) ([]models.Notification, int64, error) {
	if actor.UserID == 0 {
		return nil, 0, ErrLoginRequired
	}
	filter := recipientFilter(actor)
	rows, err := s.notificationRepo.ListForRecipient(filter)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.notificationRepo.CountUnread(filter)
	if err != nil {
		return nil, 0, err
	}
	return rows, unread, nil
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(actor Actor) (int64, error) {
	if actor.UserID == 0 {
		return 0, ErrLoginRequired
	}
	return s.notificationRepo.CountUnread(recipientFilter(actor))
}

// MarkRead 标记单条已读，仅限接收方
func (s *NotificationService) MarkRead(actor Actor, id uint) error {
	row, err := s.notificationRepo.GetByID(id)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNotificationNotFound
	}
	switch row.RecipientType {
	case constants.RecipientAdmin:
		if !actor.IsAdmin() {
			return ErrForbidden
		}
	default:
		if actor.IsAdmin() || row.RecipientID == nil || *row.RecipientID != actor.UserID {
			return ErrForbidden
		}
	}
	if row.IsRead {
		return nil
	}
	return s.notificationRepo.MarkRead(id)
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(actor Actor) (int64, error) {
	if actor.UserID == 0 {
		return 0, ErrLoginRequired
	}
	return s.notificationRepo.MarkAllRead(recipientFilter(actor))
}

// PurgeExpired 清理过期通知
func (s *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.notificationRepo.DeleteExpired(time.Now())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		logger.FromContext(ctx).Infow("notification_expired_purged", "count", purged)
	}
	return purged, nil
}
