package pwscore

import "github.com/rs/zerolog"

type Option func(*Evaluator)

// WithVariant 设置评分方案，默认 Extended()
func WithVariant(v Variant) Option {
	return func(e *Evaluator) {
		e.variant = v.clone()
	}
}

// WithCommonPasswords 替换常见密码黑名单（精确匹配，大小写不敏感）
func WithCommonPasswords(list []string) Option {
	return func(e *Evaluator) {
		e.commonSrc = append(make([]string, 0, len(list)), list...)
	}
}

// WithKeyboardPatterns 替换键盘序列列表（子串匹配，大小写不敏感）
func WithKeyboardPatterns(list []string) Option {
	return func(e *Evaluator) {
		e.keyboardSrc = append(make([]string, 0, len(list)), list...)
	}
}

// WithClassPolicy 设置字符分类策略，默认 ClassUnicode
func WithClassPolicy(p ClassPolicy) Option {
	return func(e *Evaluator) {
		e.policy = p
	}
}

// WithLogger 设置自定义 Logger
func WithLogger(l *zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}
