package main

import (
	"cmp"
	"context"
	"fmt"

	"github.com/oy3o/pwscore"
	"github.com/oy3o/pwscore/wordlist"
	"github.com/rs/zerolog"
)

type referenceData struct {
	common   []string
	patterns []string
	files    []string // 本地词表文件，用于权限检查
}

func loadReferenceData(ctx context.Context, cfg WordlistConfig, logger *zerolog.Logger) (*referenceData, error) {
	var ref referenceData

	var commonSrc []wordlist.Source
	if cfg.CommonFile != "" {
		commonSrc = append(commonSrc, wordlist.File(cfg.CommonFile))
		ref.files = append(ref.files, cfg.CommonFile)
	}
	if cfg.S3.Enabled() {
		client, err := wordlist.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		commonSrc = append(commonSrc, wordlist.S3(client, cfg.S3.Bucket, cfg.S3.Key))
	}
	if len(commonSrc) == 0 {
		commonSrc = append(commonSrc, wordlist.Embedded(wordlist.Common))
	}

	patternSrc := wordlist.Embedded(wordlist.Keyboard)
	if cfg.PatternsFile != "" {
		patternSrc = wordlist.File(cfg.PatternsFile)
		ref.files = append(ref.files, cfg.PatternsFile)
	}

	var err error
	if ref.common, err = wordlist.Load(ctx, commonSrc...); err != nil {
		return nil, err
	}
	if ref.patterns, err = wordlist.Load(ctx, patternSrc); err != nil {
		return nil, err
	}

	logger.Info().
		Int("common", len(ref.common)).
		Int("patterns", len(ref.patterns)).
		Msg("Reference data loaded")
	return &ref, nil
}

// buildEvaluators 为每个内置方案构造评估器，返回配置的默认方案和其余方案
func buildEvaluators(cfg AppConfig, ref *referenceData, logger *zerolog.Logger) (*pwscore.Evaluator, []*pwscore.Evaluator, error) {
	def, err := pwscore.VariantByName(cmp.Or(cfg.Variant, pwscore.VariantExtended))
	if err != nil {
		return nil, nil, err
	}
	policy, err := pwscore.ParseClassPolicy(cfg.ClassPolicy)
	if err != nil {
		return nil, nil, err
	}

	var primary *pwscore.Evaluator
	var others []*pwscore.Evaluator
	for _, v := range pwscore.Variants() {
		e, err := pwscore.New(
			pwscore.WithVariant(v),
			pwscore.WithCommonPasswords(ref.common),
			pwscore.WithKeyboardPatterns(ref.patterns),
			pwscore.WithClassPolicy(policy),
			pwscore.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		if v.Name == def.Name {
			primary = e
		} else {
			others = append(others, e)
		}
	}
	return primary, others, nil
}
