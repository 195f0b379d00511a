package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/shared/logs"
)

// runExport 把一个或多个原生格式文件转成 JSON。
// 默认每个文件挂在去掉扩展名的文件名下；--merge 时合并顶层字段，后面的文件覆盖前面的。
func runExport(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	merge := fs.Bool("merge", false, "合并所有文件的顶层字段")
	out := fs.StringP("out", "o", "", "输出文件，默认标准输出")
	encName := fs.String("encoding", "", "文件编码：utf-8 或 windows-1252")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: export needs at least one file", errUsage)
	}
	enc, err := pdx.EncodingByName(*encName)
	if err != nil {
		return err
	}

	root := pdx.NewObject()
	for _, path := range fs.Args() {
		n, err := decodeFile(path, enc)
		if err != nil {
			return err
		}
		if *merge {
			root.Merge(n)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		root.Replace(name, n)
	}

	raw, err := root.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if *out == "" {
		_, err = stdout.Write(append(raw, '\n'))
		return err
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	logs.Info("exported", zap.Int("files", fs.NArg()), zap.String("out", *out), zap.Int("bytes", len(raw)))
	return nil
}

func decodeFile(path string, enc encoding.Encoding) (*pdx.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	n, err := pdx.Decode(f, st.Size(), pdx.WithEncoding(enc))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return n, nil
}
