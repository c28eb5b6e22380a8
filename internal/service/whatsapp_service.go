package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scentshop/internal/config"
)

// WhatsAppService WhatsApp Cloud API 文本消息发送
type WhatsAppService struct {
	cfg    *config.WhatsAppConfig
	client *http.Client
}

// NewWhatsAppService 创建 WhatsApp 发送服务
func NewWhatsAppService(cfg *config.WhatsAppConfig) *WhatsAppService {
	timeout := 10 * time.Second
	if cfg != nil && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &WhatsAppService{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type whatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendWhatsApp 发送文本消息到指定号码
func (s *WhatsAppService) SendWhatsApp(ctx context.Context, to, message string) error {
	if s == nil || s.cfg == nil || !s.cfg.Enabled {
		return ErrWhatsAppDisabled
	}
	if strings.TrimSpace(s.cfg.APIBase) == "" || strings.TrimSpace(s.cfg.PhoneNumberID) == "" || strings.TrimSpace(s.cfg.AccessToken) == "" {
		return ErrWhatsAppNotConfigured
	}
	to = normalizePhoneNumber(to)
	if to == "" {
		return ErrInvalidSettingValue
	}

	payload := whatsAppTextMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	payload.Text.Body = strings.TrimSpace(message)
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.cfg.APIBase, "/"), strings.TrimSpace(s.cfg.PhoneNumberID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp send failed: status %d body %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
