package pwscore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidVariant 表示评分方案自身不合法（如标签表有空洞）
	ErrInvalidVariant = errors.New("pwscore: invalid variant")
	// ErrUnknownVariant 表示按名称找不到评分方案
	ErrUnknownVariant = errors.New("pwscore: unknown variant")
)

// Check 是可选规则的位集合
type Check uint8

const (
	CheckPatterns Check = 1 << iota // 重复字符 / 连续数字 / 键盘序列
	CheckCommon                     // 常见密码黑名单
	CheckEntropy                    // 熵奖励分
)

func (c Check) Has(flag Check) bool { return c&flag != 0 }

// LengthTier 长度分档：长度 >= Min 时得 Points 分。
// Variant.LengthTiers 必须按 Min 降序排列，命中第一个即停止。
type LengthTier struct {
	Min    int `json:"min"`
	Points int `json:"points"`
}

// Variant 描述一套完整的评分方案：规则集合、分数上界和强度标签表。
// Labels[i] 即分数 i 对应的强度，长度必须恰好为 MaxScore+1。
type Variant struct {
	Name             string       `json:"name"`
	MaxScore         int          `json:"max_score"`
	Labels           []string     `json:"labels"`
	LengthTiers      []LengthTier `json:"length_tiers"`
	Checks           Check        `json:"-"`
	EntropyThreshold float64      `json:"entropy_threshold,omitempty"`
	EntropyBonus     int          `json:"entropy_bonus,omitempty"`
}

const (
	VariantSimple   = "simple"
	VariantExtended = "extended"
)

// Simple 返回 0..5 分制方案，只有长度和字符类别两条规则。
func Simple() Variant {
	return Variant{
		Name:     VariantSimple,
		MaxScore: 5,
		Labels: []string{
			"Very Weak",
			"Weak",
			"Moderate",
			"Strong",
			"Very Strong",
			"Excellent",
		},
		LengthTiers: []LengthTier{
			{Min: 12, Points: 2},
			{Min: 8, Points: 1},
		},
	}
}

// Extended 返回 0..10 分制方案（默认方案），启用全部规则。
func Extended() Variant {
	return Variant{
		Name:     VariantExtended,
		MaxScore: 10,
		Labels: []string{
			"Very Weak", "Very Weak",
			"Weak", "Weak",
			"Moderate", "Moderate",
			"Strong", "Strong",
			"Very Strong", "Very Strong",
			"Excellent",
		},
		LengthTiers: []LengthTier{
			{Min: 16, Points: 3},
			{Min: 12, Points: 2},
			{Min: 8, Points: 1},
		},
		Checks:           CheckPatterns | CheckCommon | CheckEntropy,
		EntropyThreshold: 75,
		EntropyBonus:     1,
	}
}

// Variants 返回所有内置方案
func Variants() []Variant {
	return []Variant{Simple(), Extended()}
}

// VariantByName 按名称（大小写不敏感）查找内置方案
func VariantByName(name string) (Variant, error) {
	for _, v := range Variants() {
		if strings.EqualFold(v.Name, strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Validate 校验方案的完整性：标签表必须覆盖 [0, MaxScore] 的每一个整数。
func (v Variant) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidVariant)
	}
	if v.MaxScore < 0 {
		return fmt.Errorf("%w: %s: max score %d is negative", ErrInvalidVariant, v.Name, v.MaxScore)
	}
	if len(v.Labels) != v.MaxScore+1 {
		return fmt.Errorf("%w: %s: %d labels for score range [0,%d]", ErrInvalidVariant, v.Name, len(v.Labels), v.MaxScore)
	}
	for i, l := range v.Labels {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: %s: score %d has no label", ErrInvalidVariant, v.Name, i)
		}
	}
	for i := 1; i < len(v.LengthTiers); i++ {
		if v.LengthTiers[i].Min >= v.LengthTiers[i-1].Min {
			return fmt.Errorf("%w: %s: length tiers must be sorted by descending min", ErrInvalidVariant, v.Name)
		}
	}
	return nil
}

// Label 返回分数对应的强度标签，分数会先被裁剪到合法区间
func (v Variant) Label(score int) string {
	return v.Labels[v.clamp(score)]
}

func (v Variant) clamp(score int) int {
	return max(0, min(v.MaxScore, score))
}

// clone 深拷贝切片字段，避免调用方改写 Evaluator 内部状态
func (v Variant) clone() Variant {
	out := v
	out.Labels = append([]string(nil), v.Labels...)
	out.LengthTiers = append([]LengthTier(nil), v.LengthTiers...)
	return out
}
