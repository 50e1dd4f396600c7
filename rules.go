package pwscore

import (
	"strings"
	"unicode/utf8"
)

// 反馈文案
const (
	FeedbackTooShort   = "Password is too short. Use at least 8 characters."
	FeedbackNoUpper    = "Add uppercase letters."
	FeedbackNoLower    = "Add lowercase letters."
	FeedbackNoDigit    = "Add numbers."
	FeedbackNoSpecial  = "Add special characters."
	FeedbackRepeated   = "Avoid repeated characters (e.g., 'aaa')."
	FeedbackSequential = "Avoid sequential numbers."
	FeedbackKeyboard   = "Avoid keyboard patterns."
	FeedbackCommon     = "This is a commonly used password. Choose something unique."
)

// 规则名称，出现在 RuleOutcome.Rule 中
const (
	RuleLength         = "length"
	RuleCharacterClass = "character_classes"
	RulePatterns       = "patterns"
	RuleCommon         = "common_password"
	RuleEntropyBonus   = "entropy_bonus"
)

// RuleOutcome 单条规则的得分增量和反馈
type RuleOutcome struct {
	Rule     string   `json:"rule"`
	Delta    int      `json:"delta"`
	Feedback []string `json:"feedback,omitempty"`
}

type rule interface {
	name() string
	apply(in *input) RuleOutcome
}

// sequentialDigits 三位递增数字串
var sequentialDigits = []string{"012", "123", "234", "345", "456", "567", "678", "789"}

type lengthRule struct {
	tiers []LengthTier
}

func (lengthRule) name() string { return RuleLength }

func (r lengthRule) apply(in *input) RuleOutcome {
	out := RuleOutcome{Rule: RuleLength}
	for _, t := range r.tiers {
		if in.length >= t.Min {
			out.Delta = t.Points
			return out
		}
	}
	out.Feedback = append(out.Feedback, FeedbackTooShort)
	return out
}

type classRule struct{}

func (classRule) name() string { return RuleCharacterClass }

func (classRule) apply(in *input) RuleOutcome {
	out := RuleOutcome{Rule: RuleCharacterClass}
	checks := []struct {
		ok  bool
		msg string
	}{
		{in.hasUpper, FeedbackNoUpper},
		{in.hasLower, FeedbackNoLower},
		{in.hasDigit, FeedbackNoDigit},
		{in.hasSpecial, FeedbackNoSpecial},
	}
	for _, c := range checks {
		if c.ok {
			out.Delta++
		} else {
			out.Feedback = append(out.Feedback, c.msg)
		}
	}
	return out
}

type patternRule struct {
	keyboard []string
}

func (patternRule) name() string { return RulePatterns }

func (r patternRule) apply(in *input) RuleOutcome {
	out := RuleOutcome{Rule: RulePatterns}

	if hasRepeatedRun(in.raw, 3) {
		out.Delta--
		out.Feedback = append(out.Feedback, FeedbackRepeated)
	}

	for _, seq := range sequentialDigits {
		if strings.Contains(in.raw, seq) {
			out.Delta--
			out.Feedback = append(out.Feedback, FeedbackSequential)
			break
		}
	}

	// 只罚一次，命中第一个即停止
	for _, p := range r.keyboard {
		if strings.Contains(in.folded, p) {
			out.Delta--
			out.Feedback = append(out.Feedback, FeedbackKeyboard)
			break
		}
	}
	return out
}

// hasRepeatedRun 判断是否存在连续 n 个相同字符。
// 按原始字节比较，不同的非法 UTF-8 字节不会因为都解码成 U+FFFD 而被视为相同。
func hasRepeatedRun(s string, n int) bool {
	prev := ""
	run := 0
	for i := 0; i < len(s); {
		_, w := utf8.DecodeRuneInString(s[i:])
		cur := s[i : i+w]
		if cur == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = cur
		i += w
	}
	return false
}

type commonRule struct {
	set map[string]struct{}
}

func (commonRule) name() string { return RuleCommon }

func (r commonRule) apply(in *input) RuleOutcome {
	out := RuleOutcome{Rule: RuleCommon}
	if _, ok := r.set[in.folded]; ok {
		out.Delta = -2
		out.Feedback = append(out.Feedback, FeedbackCommon)
	}
	return out
}

type entropyRule struct {
	threshold float64
	bonus     int
}

func (entropyRule) name() string { return RuleEntropyBonus }

func (r entropyRule) apply(in *input) RuleOutcome {
	out := RuleOutcome{Rule: RuleEntropyBonus}
	if entropyOf(in) > r.threshold {
		out.Delta = r.bonus
	}
	return out
}
