package pwscore

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oy3o/pwscore/wordlist"
)

// SpecialChars 计入“特殊字符”类别的固定字符集
const SpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// ClassPolicy 决定非 ASCII 字符如何归类
type ClassPolicy int

const (
	// ClassUnicode 使用 Unicode 属性判断大小写与数字（默认）。
	// 例如 'É' 计为大写，'٣' 计为数字，'中' 计为字母但不属于任何大小写类别。
	ClassUnicode ClassPolicy = iota
	// ClassASCII 只认 A-Z / a-z / 0-9，其余字符一律视为非字母数字。
	ClassASCII
)

func (p ClassPolicy) String() string {
	switch p {
	case ClassUnicode:
		return "unicode"
	case ClassASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// ParseClassPolicy 解析 "unicode" 或 "ascii"，空串视为 ClassUnicode
func ParseClassPolicy(s string) (ClassPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unicode":
		return ClassUnicode, nil
	case "ascii":
		return ClassASCII, nil
	}
	return 0, fmt.Errorf("pwscore: unknown class policy %q", s)
}

// input 是对一次评估的输入做的一次性分析，所有规则共享
type input struct {
	raw    string
	folded string // 小写形式，用于黑名单与键盘序列匹配
	length int    // 按字符（rune）计

	hasUpper    bool
	hasLower    bool
	hasDigit    bool
	hasSpecial  bool
	hasNonAlnum bool
}

func analyze(password string, policy ClassPolicy) *input {
	in := &input{
		raw:    password,
		folded: wordlist.Fold(password),
		length: utf8.RuneCountInString(password),
	}

	for _, r := range password {
		upper, lower, digit, alnum := classify(r, policy)
		in.hasUpper = in.hasUpper || upper
		in.hasLower = in.hasLower || lower
		in.hasDigit = in.hasDigit || digit
		in.hasNonAlnum = in.hasNonAlnum || !alnum
		if !in.hasSpecial && strings.ContainsRune(SpecialChars, r) {
			in.hasSpecial = true
		}
	}
	return in
}

func classify(r rune, policy ClassPolicy) (upper, lower, digit, alnum bool) {
	if policy == ClassASCII {
		upper = r >= 'A' && r <= 'Z'
		lower = r >= 'a' && r <= 'z'
		digit = r >= '0' && r <= '9'
		return upper, lower, digit, upper || lower || digit
	}
	upper = unicode.IsUpper(r)
	lower = unicode.IsLower(r)
	digit = unicode.IsDigit(r) || unicode.Is(digitLike, r)
	return upper, lower, digit, unicode.IsLetter(r) || unicode.IsNumber(r)
}

// digitLike 是 No 类别中数值类型为 Digit 的字符，例如上标 '²'、圈码 '①'。
// 它们和 Nd 一起计为数字；'½' 这类分数不算。
var digitLike = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00b2, Hi: 0x00b3, Stride: 1},
		{Lo: 0x00b9, Hi: 0x00b9, Stride: 1},
		{Lo: 0x1369, Hi: 0x1371, Stride: 1},
		{Lo: 0x19da, Hi: 0x19da, Stride: 1},
		{Lo: 0x2070, Hi: 0x2070, Stride: 1},
		{Lo: 0x2074, Hi: 0x2079, Stride: 1},
		{Lo: 0x2080, Hi: 0x2089, Stride: 1},
		{Lo: 0x2460, Hi: 0x2468, Stride: 1},
		{Lo: 0x2474, Hi: 0x247c, Stride: 1},
		{Lo: 0x2488, Hi: 0x2490, Stride: 1},
		{Lo: 0x24ea, Hi: 0x24ea, Stride: 1},
		{Lo: 0x24f5, Hi: 0x24fd, Stride: 1},
		{Lo: 0x24ff, Hi: 0x24ff, Stride: 1},
		{Lo: 0x2776, Hi: 0x277e, Stride: 1},
		{Lo: 0x2780, Hi: 0x2788, Stride: 1},
		{Lo: 0x278a, Hi: 0x2792, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10a40, Hi: 0x10a43, Stride: 1},
		{Lo: 0x10e60, Hi: 0x10e68, Stride: 1},
		{Lo: 0x11052, Hi: 0x1105a, Stride: 1},
		{Lo: 0x1f100, Hi: 0x1f10a, Stride: 1},
	},
	LatinOffset: 2,
}
