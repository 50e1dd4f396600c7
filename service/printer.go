package service

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const maskedValue = "******"

// sensitiveKeywords 字段名包含这些词时打印为掩码
var sensitiveKeywords = []string{"password", "secret", "token", "key", "auth", "credential", "pwd"}

func printServiceListening(logger *zerolog.Logger, name, protocol, addr string) {
	if logger == nil {
		return
	}
	logger.Info().
		Str("service", name).
		Str("protocol", protocol).
		Str("address", addr).
		Int("pid", os.Getpid()).
		Msg("Service listening...")
}

// printConfigSnapshot 以 JSON 打印脱敏后的生效配置
func printConfigSnapshot(logger *zerolog.Logger, cfg any) {
	if cfg == nil || logger == nil {
		return
	}

	b, err := sonic.MarshalIndent(maskSensitiveData(cfg), "", "  ")
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to marshal config snapshot")
		return
	}
	logger.Info().RawJSON("config_snapshot", b).Msg("Effective configuration")
}

// maskSensitiveData 递归地把结构体 / map 转成 map[string]any，并替换敏感字段的值
func maskSensitiveData(v any) any {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		out := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := fieldKey(field)
			out[name] = maskValue(name, val.Field(i).Interface())
		}
		return out

	case reflect.Map:
		out := make(map[string]any)
		for _, k := range val.MapKeys() {
			name := fmt.Sprint(k.Interface())
			out[name] = maskValue(name, val.MapIndex(k).Interface())
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			out[i] = maskSensitiveData(val.Index(i).Interface())
		}
		return out

	default:
		return v
	}
}

func maskValue(name string, v any) any {
	if isSensitive(name) {
		// 空值不掩码，方便看出“没有配置”
		if rv := reflect.ValueOf(v); !rv.IsValid() || rv.IsZero() {
			return v
		}
		return maskedValue
	}
	return maskSensitiveData(v)
}

// fieldKey 优先使用 mapstructure > json 标签作为键名
func fieldKey(field reflect.StructField) string {
	for _, tagName := range []string{"mapstructure", "json"} {
		if tag := field.Tag.Get(tagName); tag != "" && tag != "-" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return field.Name
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
