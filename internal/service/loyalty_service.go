package service

import (
	"context"
	"strings"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/loyalty"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"github.com/shopspring/decimal"
)

// LoyaltyService 会员等级服务
type LoyaltyService struct {
	userRepo   repository.UserRepository
	orderRepo  repository.OrderRepository
	thresholds loyalty.Thresholds
}

// NewLoyaltyService 创建会员等级服务
func NewLoyaltyService(userRepo repository.UserRepository, orderRepo repository.OrderRepository, cfg *config.LoyaltyConfig) *LoyaltyService {
	return &LoyaltyService{
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		thresholds: thresholdsFromConfig(cfg),
	}
}

func thresholdsFromConfig(cfg *config.LoyaltyConfig) loyalty.Thresholds {
	if cfg == nil {
		return loyalty.DefaultThresholds()
	}
	return loyalty.NormalizeThresholds(loyalty.Thresholds{
		Silver:   decimal.NewFromFloat(cfg.Silver),
		Gold:     decimal.NewFromFloat(cfg.Gold),
		Platinum: decimal.NewFromFloat(cfg.Platinum),
		Diamond:  decimal.NewFromFloat(cfg.Diamond),
	})
}

// CalculateTier 计算用户应处等级；手动模式直接返回当前等级
func (s *LoyaltyService) CalculateTier(user *models.User) (string, error) {
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.LoyaltyMode == constants.LoyaltyModeManual {
		return loyalty.NormalizeTier(user.LoyaltyTier), nil
	}
	spend, err := s.orderRepo.SumDeliveredTotalByUser(user.ID)
	if err != nil {
		return "", err
	}
	return s.thresholds.TierForSpend(spend), nil
}

// Recalculate 重新计算并写回用户等级
func (s *LoyaltyService) Recalculate(ctx context.Context, userID uint) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	tier, err := s.CalculateTier(user)
	if err != nil {
		return "", err
	}
	if tier == user.LoyaltyTier {
		return tier, nil
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"loyalty_tier": tier}); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Infow("loyalty_tier_changed",
		"user_id", user.ID,
		"from", user.LoyaltyTier,
		"to", tier,
	)
	return tier, nil
}

// LoyaltySummary 会员概览
type LoyaltySummary struct {
	Tier            string          `json:"tier"`
	Mode            string          `json:"mode"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DeliveredSpend  decimal.Decimal `json:"delivered_spend"`
	NextTier        string          `json:"next_tier,omitempty"`
	NextThreshold   decimal.Decimal `json:"next_threshold"`
}

// Summary 查询用户会员概览
func (s *LoyaltyService) Summary(userID uint) (*LoyaltySummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	spend, err := s.orderRepo.SumDeliveredTotalByUser(user.ID)
	if err != nil {
		return nil, err
	}
	tier := loyalty.NormalizeTier(user.LoyaltyTier)
	summary := &LoyaltySummary{
		Tier:            tier,
		Mode:            user.LoyaltyMode,
		DiscountPercent: loyalty.DiscountPercent(tier),
		DeliveredSpend:  spend,
	}
	summary.NextTier, summary.NextThreshold = s.nextTier(tier)
	return summary, nil
}

func (s *LoyaltyService) nextTier(tier string) (string, decimal.Decimal) {
	switch tier {
	case constants.TierBronze:
		return constants.TierSilver, s.thresholds.Silver
	case constants.TierSilver:
		return constants.TierGold, s.thresholds.Gold
	case constants.TierGold:
		return constants.TierPlatinum, s.thresholds.Platinum
	case constants.TierPlatinum:
		return constants.TierDiamond, s.thresholds.Diamond
	}
	return "", decimal.Zero
}

// LoyaltyPatch 后台调整会员设置，nil 表示不修改
type LoyaltyPatch struct {
	Mode *string `json:"mode"`
	Tier *string `json:"tier"`
}

// apply 合并到用户，返回需要写入的字段
func (p LoyaltyPatch) apply(user *models.User) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if p.Mode != nil {
		mode := strings.ToLower(strings.TrimSpace(*p.Mode))
		if mode != constants.LoyaltyModeAuto && mode != constants.LoyaltyModeManual {
			return nil, ErrInvalidLoyaltyMode
		}
		user.LoyaltyMode = mode
		updates["loyalty_mode"] = mode
	}
	if p.Tier != nil {
		tier := strings.ToLower(strings.TrimSpace(*p.Tier))
		if !loyalty.IsValidTier(tier) {
			return nil, ErrInvalidTier
		}
		user.LoyaltyTier = tier
		updates["loyalty_tier"] = tier
	}
	return updates, nil
}

// UpdateUserLoyalty 后台修改用户会员模式/等级；切回自动模式时立即重算
func (s *LoyaltyService) UpdateUserLoyalty(ctx context.Context, actor Actor, userID uint, patch LoyaltyPatch) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	updates, err := patch.apply(user)
	if err != nil {
		return nil, err
	}
	if user.LoyaltyMode == constants.LoyaltyModeAuto {
		tier, err := s.CalculateTier(user)
		if err != nil {
			return nil, err
		}
		user.LoyaltyTier = tier
		updates["loyalty_tier"] = tier
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.userRepo.UpdateFields(user.ID, updates); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("loyalty_updated_by_admin",
		"user_id", user.ID,
		"admin_id", actor.UserID,
		"mode", user.LoyaltyMode,
		"tier", user.LoyaltyTier,
	)
	return user, nil
}
