package security

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oy3o/pwscore"
)

// Evaluator 是 *pwscore.Evaluator 中检查项用到的部分
type Evaluator interface {
	Evaluate(password string) pwscore.Result
}

// SecretStrengthChecker 用评估器给服务自身的口令打分（如监控端口的 Basic Auth 密码）。
// 空口令或分数低于 MinScore 时失败。
type SecretStrengthChecker struct {
	NameID    string
	Secret    string
	MinScore  int
	Evaluator Evaluator
	Severity  Severity
}

func (c *SecretStrengthChecker) Name() string { return "secret_strength:" + c.NameID }

func (c *SecretStrengthChecker) Check(ctx context.Context) Result {
	if c.Secret == "" {
		return Result{
			Name: c.Name(), Passed: false, Severity: SeverityFatal,
			Message: "Secret is empty!",
		}
	}

	res := c.Evaluator.Evaluate(c.Secret)
	if res.Score < c.MinScore {
		msg := fmt.Sprintf("Secret is %s (score %d/%d, need >= %d)", res.Strength, res.Score, res.MaxScore, c.MinScore)
		if len(res.Feedback) > 0 {
			msg += ": " + strings.Join(res.Feedback, " ")
		}
		return Result{
			Name:     c.Name(),
			Passed:   false,
			Severity: c.Severity,
			Message:  msg,
		}
	}
	return Result{Name: c.Name(), Passed: true}
}

// ReferenceData 是 *pwscore.Evaluator 中参考数据的统计接口
type ReferenceData interface {
	CommonCount() int
	KeyboardCount() int
}

// WordlistChecker 检查参考数据是否加载成功。
// 列表为空时评估仍然可用，只是对应规则永远不会触发。
type WordlistChecker struct {
	Data     ReferenceData
	Severity Severity
}

func (c *WordlistChecker) Name() string { return "wordlist" }

func (c *WordlistChecker) Check(ctx context.Context) Result {
	var empty []string
	if c.Data.CommonCount() == 0 {
		empty = append(empty, "common passwords")
	}
	if c.Data.KeyboardCount() == 0 {
		empty = append(empty, "keyboard patterns")
	}
	if len(empty) > 0 {
		return Result{
			Name:     c.Name(),
			Passed:   false,
			Severity: c.Severity,
			Message:  fmt.Sprintf("Reference data is empty: %s. The matching rules will never fire.", strings.Join(empty, ", ")),
		}
	}
	return Result{Name: c.Name(), Passed: true}
}

// FilePermChecker 检查词表文件的权限，可被他人写入意味着黑名单可能被篡改
type FilePermChecker struct {
	Path     string
	MaxPerm  os.FileMode // 例如 0644
	Severity Severity
}

func (c *FilePermChecker) Name() string { return fmt.Sprintf("file_perm:%s", c.Path) }

func (c *FilePermChecker) Check(ctx context.Context) Result {
	info, err := os.Stat(c.Path)
	if err != nil {
		return Result{
			Name:     c.Name(),
			Passed:   false,
			Severity: c.Severity,
			Message:  fmt.Sprintf("File not found or not readable: %s", c.Path),
			Error:    err,
		}
	}

	if info.Mode().Perm()&^c.MaxPerm != 0 {
		return Result{
			Name:     c.Name(),
			Passed:   false,
			Severity: c.Severity,
			Message:  fmt.Sprintf("Insecure permissions: got %o, max allowed %o", info.Mode().Perm(), c.MaxPerm),
		}
	}
	return Result{Name: c.Name(), Passed: true}
}

// BindAddrChecker 检查监听地址是否暴露在所有网卡上
type BindAddrChecker struct {
	Addr        string
	AllowPublic bool
}

func (c *BindAddrChecker) Name() string { return "network_bind:" + c.Addr }

func (c *BindAddrChecker) Check(ctx context.Context) Result {
	public := strings.Contains(c.Addr, "0.0.0.0") ||
		strings.Contains(c.Addr, "[::]") ||
		strings.HasPrefix(c.Addr, ":")

	if public && !c.AllowPublic {
		return Result{
			Name:     c.Name(),
			Passed:   false,
			Severity: SeverityWarn,
			Message:  fmt.Sprintf("Service is listening on all interfaces (%s). Ensure this is intended.", c.Addr),
		}
	}
	return Result{Name: c.Name(), Passed: true}
}
