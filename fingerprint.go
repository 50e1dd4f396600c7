package pwscore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprinter 生成密码的带密钥摘要，用于日志与审计中代替明文。
// 摘要只用于关联记录，不参与黑名单匹配。
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter 创建摘要器。key 为空时生成进程内随机密钥（摘要只在本进程内可比）。
func NewFingerprinter(key []byte) (*Fingerprinter, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("pwscore: fingerprint key is %d bytes, max %d", len(key), blake2b.Size)
	}
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("pwscore: generate fingerprint key: %w", err)
		}
	}
	return &Fingerprinter{key: append([]byte(nil), key...)}, nil
}

// Sum 返回十六进制的 BLAKE2b-256 摘要
func (f *Fingerprinter) Sum(password string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// 密钥长度已在构造时校验
		panic(err)
	}
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}
