// Package loyalty 会员等级与折扣规则
package loyalty

import (
	"strings"

	"github.com/scentshop/internal/constants"

	"github.com/shopspring/decimal"
)

var discountPercents = map[string]decimal.Decimal{
	constants.TierBronze:   decimal.Zero,
	constants.TierSilver:   decimal.NewFromInt(1),
	constants.TierGold:     decimal.RequireFromString("3.5"),
	constants.TierPlatinum: decimal.NewFromInt(7),
	constants.TierDiamond:  decimal.NewFromInt(14),
}

// Thresholds 等级累计消费门槛
type Thresholds struct {
	Silver   decimal.Decimal
	Gold     decimal.Decimal
	Platinum decimal.Decimal
	Diamond  decimal.Decimal
}

// DefaultThresholds 默认门槛：5万 / 10万 / 25万 / 100万
func DefaultThresholds() Thresholds {
	return Thresholds{
		Silver:   decimal.NewFromInt(50000),
		Gold:     decimal.NewFromInt(100000),
		Platinum: decimal.NewFromInt(250000),
		Diamond:  decimal.NewFromInt(1000000),
	}
}

// NormalizeThresholds 未配置的门槛回退默认值
func NormalizeThresholds(t Thresholds) Thresholds {
	def := DefaultThresholds()
	if t.Silver.Sign() <= 0 {
		t.Silver = def.Silver
	}
	if t.Gold.Sign() <= 0 {
		t.Gold = def.Gold
	}
	if t.Platinum.Sign() <= 0 {
		t.Platinum = def.Platinum
	}
	if t.Diamond.Sign() <= 0 {
		t.Diamond = def.Diamond
	}
	return t
}

// TierForSpend 根据累计消费计算等级
func (t Thresholds) TierForSpend(spend decimal.Decimal) string {
	switch {
	case spend.GreaterThanOrEqual(t.Diamond):
		return constants.TierDiamond
	case spend.GreaterThanOrEqual(t.Platinum):
		return constants.TierPlatinum
	case spend.GreaterThanOrEqual(t.Gold):
		return constants.TierGold
	case spend.GreaterThanOrEqual(t.Silver):
		return constants.TierSilver
	default:
		return constants.TierBronze
	}
}

// NormalizeTier 未知等级按 bronze 处理
func NormalizeTier(tier string) string {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if _, ok := discountPercents[tier]; ok {
		return tier
	}
	return constants.TierBronze
}

// IsValidTier 判断等级是否合法
func IsValidTier(tier string) bool {
	_, ok := discountPercents[strings.ToLower(strings.TrimSpace(tier))]
	return ok
}

// DiscountPercent 等级对应折扣百分比
func DiscountPercent(tier string) decimal.Decimal {
	return discountPercents[NormalizeTier(tier)]
}

// Snapshot 下单时的会员折扣快照
type Snapshot struct {
	Tier     string
	Percent  decimal.Decimal
	Discount decimal.Decimal
}

// Apply 计算小计对应的会员折扣，保留两位小数
func Apply(tier string, subtotal decimal.Decimal) Snapshot {
	tier = NormalizeTier(tier)
	percent := discountPercents[tier]
	return Snapshot{
		Tier:     tier,
		Percent:  percent,
		Discount: subtotal.Mul(percent).Div(decimal.NewFromInt(100)).Round(2),
	}
}
