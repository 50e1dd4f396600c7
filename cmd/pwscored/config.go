package main

import (
	"github.com/oy3o/o11y"
	"github.com/oy3o/pwscore/audit"
	"github.com/oy3o/pwscore/ratelimit"
	"github.com/oy3o/pwscore/wordlist"
)

type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Monitor   MonitorConfig    `mapstructure:"monitor"`
	Wordlist  WordlistConfig   `mapstructure:"wordlist"`
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	Audit     audit.Config     `mapstructure:"audit"`

	Log struct {
		Level string `mapstructure:"level" default:"info"`
	} `mapstructure:"log"`

	O11y o11y.Config `mapstructure:"o11y"`
}

type AppConfig struct {
	Name        string `mapstructure:"name" default:"pwscored"`
	Addr        string `mapstructure:"addr" default:"127.0.0.1:8080"`
	Variant     string `mapstructure:"variant" default:"extended"`
	ClassPolicy string `mapstructure:"class_policy" default:"unicode"`
	MaxInputLen int    `mapstructure:"max_input_len" default:"256"` // 按字符计
	MaxConns    int    `mapstructure:"max_conns" default:"5000"`
	AllowPublic bool   `mapstructure:"allow_public"`
}

type MonitorConfig struct {
	Addr     string `mapstructure:"addr" default:"127.0.0.1:9090"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// 监控口令的最低分数，按默认方案评分
	MinScore int `mapstructure:"min_score" default:"6"`
}

type WordlistConfig struct {
	CommonFile   string            `mapstructure:"common_file"`
	PatternsFile string            `mapstructure:"patterns_file"`
	S3           wordlist.S3Config `mapstructure:"s3"`
}
