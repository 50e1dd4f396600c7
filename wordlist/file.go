package wordlist

import (
	"context"
	"os"
)

type fileSource struct {
	path string
}

// File 从本地文件读取
func File(path string) Source { return fileSource{path: path} }

func (s fileSource) Name() string { return "file:" + s.path }

func (s fileSource) Load(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
