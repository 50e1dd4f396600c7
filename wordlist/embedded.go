package wordlist

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed common.txt
var commonRaw string

//go:embed keyboard.txt
var keyboardRaw string

// Kind 内置列表种类
type Kind int

const (
	Common Kind = iota
	Keyboard
)

func (k Kind) String() string {
	switch k {
	case Common:
		return "common"
	case Keyboard:
		return "keyboard"
	default:
		return "unknown"
	}
}

// DefaultCommon 返回内置常见密码列表的副本
func DefaultCommon() []string { return mustParse(commonRaw) }

// DefaultKeyboard 返回内置键盘序列列表的副本
func DefaultKeyboard() []string { return mustParse(keyboardRaw) }

func mustParse(raw string) []string {
	list, err := Parse(strings.NewReader(raw))
	if err != nil {
		// 内置数据在编译期固定，读取 strings.Reader 不会出错
		panic(err)
	}
	return list
}

type embeddedSource struct {
	kind Kind
}

// Embedded 返回内置列表来源
func Embedded(kind Kind) Source { return embeddedSource{kind: kind} }

func (s embeddedSource) Name() string { return "embedded:" + s.kind.String() }

func (s embeddedSource) Load(ctx context.Context) ([]string, error) {
	switch s.kind {
	case Common:
		return DefaultCommon(), nil
	case Keyboard:
		return DefaultKeyboard(), nil
	default:
		return nil, fmt.Errorf("unknown embedded list %d", s.kind)
	}
}
