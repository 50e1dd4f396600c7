package wordlist

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config 对象存储连接参数，兼容 Cloudflare R2 / MinIO 等 S3 协议实现
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Enabled 是否配置了对象存储来源
func (c S3Config) Enabled() bool { return c.Bucket != "" && c.Key != "" }

// GetObjectAPI 是 *s3.Client 中本包用到的子集，便于测试替换
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client 创建 S3 客户端。未提供静态凭证时使用默认凭证链（环境变量、共享配置、IAM 角色）。
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

type s3Source struct {
	api    GetObjectAPI
	bucket string
	key    string
}

// S3 从对象存储读取，格式与 File 相同
func S3(api GetObjectAPI, bucket, key string) Source {
	return s3Source{api: api, bucket: bucket, key: key}
}

func (s s3Source) Name() string { return fmt.Sprintf("s3://%s/%s", s.bucket, s.key) }

func (s s3Source) Load(ctx context.Context) ([]string, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return Parse(out.Body)
}
