// Package wordlist 加载并规范化密码评估所用的参考数据（常见密码、键盘序列）。
//
// 文件格式：每行一个条目，空行与以 # 开头的行被忽略。
package wordlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source 参考数据来源
type Source interface {
	Name() string
	Load(ctx context.Context) ([]string, error)
}

// Load 依次读取所有来源，合并后规范化去重。任一来源失败即返回错误。
func Load(ctx context.Context, sources ...Source) ([]string, error) {
	var all []string
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("wordlist: load %s: %w", src.Name(), err)
		}
		all = append(all, list...)
	}
	return Normalize(all), nil
}

// Fold 返回用于比较的小写形式（Unicode 感知）。
// cases.Caser 不能跨 goroutine 共享，这里每次新建。
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Normalize 去除首尾空白、转小写、丢弃空串并按首次出现顺序去重
func Normalize(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, w := range list {
		w = Fold(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Parse 按行读取条目，忽略空行和注释行
func Parse(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
