// Package pricing 香水分装规格价格计算
package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// 规格（毫升）
const (
	Size3ml  = 3
	Size6ml  = 6
	Size12ml = 12
)

// Sizes 所有可售规格，按容量升序
var Sizes = []int{Size3ml, Size6ml, Size12ml}

var hundred = decimal.NewFromInt(100)

// SizePercentages 3ml / 12ml 相对 6ml 基准价的浮动百分比
type SizePercentages struct {
	Size3  decimal.Decimal `json:"size3"`
	Size12 decimal.Decimal `json:"size12"`
}

// DefaultSizePercentages 默认浮动：3ml -30%，12ml +35%
func DefaultSizePercentages() SizePercentages {
	return SizePercentages{
		Size3:  decimal.NewFromInt(-30),
		Size12: decimal.NewFromInt(35),
	}
}

// DiscountPercentages 各规格折扣百分比，未设置表示无折扣
type DiscountPercentages struct {
	Base   decimal.NullDecimal `json:"base"`
	Size3  decimal.NullDecimal `json:"size3"`
	Size12 decimal.NullDecimal `json:"size12"`
}

// Input 价格计算输入
type Input struct {
	Base6ml             decimal.Decimal
	SizePercentages     *SizePercentages
	DiscountPercentages DiscountPercentages
}

// SizePrice 单个规格的原价与折后价
type SizePrice struct {
	Original   decimal.Decimal  `json:"original"`
	Discounted *decimal.Decimal `json:"discounted"`
}

// Effective 实际售价：有折扣取折后价
func (p SizePrice) Effective() decimal.Decimal {
	if p.Discounted != nil {
		return *p.Discounted
	}
	return p.Original
}

// Table 规格标签（"3"/"6"/"12"）到价格的映射
type Table map[string]SizePrice

// Lookup 按毫升数查询价格
func (t Table) Lookup(sizeMl int) (SizePrice, bool) {
	p, ok := t[strconv.Itoa(sizeMl)]
	return p, ok
}

// Calculate 计算价格表；基准价缺失（<=0）时返回 nil。
// 每一步独立取整：折后价基于取整后的原价计算。
func Calculate(in Input) Table {
	if in.Base6ml.Sign() <= 0 {
		return nil
	}
	base := in.Base6ml
	percentages := DefaultSizePercentages()
	if in.SizePercentages != nil {
		percentages = *in.SizePercentages
	}

	price3 := adjust(base, percentages.Size3)
	price12 := adjust(base, percentages.Size12)

	return Table{
		"3":  {Original: price3, Discounted: applyDiscount(price3, in.DiscountPercentages.Size3)},
		"6":  {Original: base, Discounted: applyDiscount(base, in.DiscountPercentages.Base)},
		"12": {Original: price12, Discounted: applyDiscount(price12, in.DiscountPercentages.Size12)},
	}
}

func adjust(base, percent decimal.Decimal) decimal.Decimal {
	return roundHalfUp(base.Add(base.Mul(percent).Div(hundred)))
}

func applyDiscount(price decimal.Decimal, discount decimal.NullDecimal) *decimal.Decimal {
	if !discount.Valid {
		return nil
	}
	discounted := roundHalfUp(price.Sub(price.Mul(discount.Decimal).Div(hundred)))
	return &discounted
}

// roundHalfUp 取整到整数，.5 向正无穷进位
func roundHalfUp(v decimal.Decimal) decimal.Decimal {
	return v.Add(decimal.NewFromFloat(0.5)).Floor()
}

// ParseSize 解析 "6ml" / "6" / "6 ML" 形式的规格，仅接受 3/6/12
func ParseSize(size string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(size))
	s = strings.TrimSpace(strings.TrimSuffix(s, "ml"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	for _, allowed := range Sizes {
		if n == allowed {
			return n, true
		}
	}
	return 0, false
}

// SizeLabel 规格展示文本
func SizeLabel(sizeMl int) string {
	return strconv.Itoa(sizeMl) + "ml"
}
