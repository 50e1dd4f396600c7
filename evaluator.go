// Package pwscore 基于启发式规则估算密码强度，给出分数、强度标签、改进建议和熵估计。
//
// 它不是密码学意义上的强度评估器（不做字典攻击代价建模），
// 结果仅供提示，不应直接作为生产环境的认证策略。
package pwscore

import (
	"fmt"

	"github.com/oy3o/pwscore/wordlist"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result 一次评估的完整结果
type Result struct {
	Score     int           `json:"score"`
	MaxScore  int           `json:"max_score"`
	Strength  string        `json:"strength"`
	Feedback  []string      `json:"feedback"`
	Entropy   float64       `json:"entropy"`
	Variant   string        `json:"variant"`
	Breakdown []RuleOutcome `json:"breakdown"`
}

// Evaluator 持有只读的参考数据和评分方案。
// 构造完成后不再修改任何字段，可被多个 goroutine 并发调用。
type Evaluator struct {
	variant Variant
	policy  ClassPolicy
	logger  *zerolog.Logger

	commonSrc   []string
	keyboardSrc []string

	common   map[string]struct{}
	keyboard []string
	rules    []rule
}

// New 创建评估器。未指定的参考数据使用内置列表。
func New(opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		variant: Extended(),
		policy:  ClassUnicode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = &log.Logger
	}
	if err := e.variant.Validate(); err != nil {
		return nil, err
	}
	if e.policy != ClassUnicode && e.policy != ClassASCII {
		return nil, fmt.Errorf("pwscore: unknown class policy %d", e.policy)
	}

	if e.commonSrc == nil {
		e.commonSrc = wordlist.DefaultCommon()
	}
	if e.keyboardSrc == nil {
		e.keyboardSrc = wordlist.DefaultKeyboard()
	}

	common := wordlist.Normalize(e.commonSrc)
	e.common = make(map[string]struct{}, len(common))
	for _, w := range common {
		e.common[w] = struct{}{}
	}
	e.keyboard = wordlist.Normalize(e.keyboardSrc)
	e.commonSrc, e.keyboardSrc = nil, nil

	e.rules = e.buildRules()

	e.logger.Debug().
		Str("variant", e.variant.Name).
		Str("class_policy", e.policy.String()).
		Int("common_passwords", len(e.common)).
		Int("keyboard_patterns", len(e.keyboard)).
		Msg("Password evaluator ready")
	return e, nil
}

// buildRules 按固定顺序组装规则：长度、字符类别、模式、黑名单、熵奖励
func (e *Evaluator) buildRules() []rule {
	v := e.variant
	rules := []rule{
		lengthRule{tiers: v.LengthTiers},
		classRule{},
	}
	if v.Checks.Has(CheckPatterns) {
		rules = append(rules, patternRule{keyboard: e.keyboard})
	}
	if v.Checks.Has(CheckCommon) {
		rules = append(rules, commonRule{set: e.common})
	}
	if v.Checks.Has(CheckEntropy) {
		rules = append(rules, entropyRule{threshold: v.EntropyThreshold, bonus: v.EntropyBonus})
	}
	return rules
}

// Evaluate 评估密码强度。对任意字符串（包括空串）都有定义，不会失败。
func (e *Evaluator) Evaluate(password string) Result {
	in := analyze(password, e.policy)

	res := Result{
		MaxScore:  e.variant.MaxScore,
		Feedback:  make([]string, 0),
		Entropy:   entropyOf(in),
		Variant:   e.variant.Name,
		Breakdown: make([]RuleOutcome, 0, len(e.rules)),
	}

	total := 0
	for _, r := range e.rules {
		out := r.apply(in)
		total += out.Delta
		res.Feedback = append(res.Feedback, out.Feedback...)
		res.Breakdown = append(res.Breakdown, out)
	}

	res.Score = e.variant.clamp(total)
	res.Strength = e.variant.Labels[res.Score]
	return res
}

// Variant 返回当前评分方案的副本
func (e *Evaluator) Variant() Variant { return e.variant.clone() }

// ClassPolicy 返回字符分类策略
func (e *Evaluator) ClassPolicy() ClassPolicy { return e.policy }

// CommonCount 返回黑名单条目数
func (e *Evaluator) CommonCount() int { return len(e.common) }

// KeyboardCount 返回键盘序列条目数
func (e *Evaluator) KeyboardCount() int { return len(e.keyboard) }
