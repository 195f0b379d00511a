package pdx

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// countingReader 统计从原始流读走的字节数，字节进度按它计算（声明的总大小是原始流大小）。
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// source 是解码器看到的输入：必要时透明解压 + 转码。
type source struct {
	raw    *countingReader
	text   io.Reader
	closer func()
}

func openSource(r io.Reader, enc encoding.Encoding) (*source, error) {
	raw := &countingReader{r: r}
	br := bufio.NewReader(raw)
	s := &source{raw: raw, text: br, closer: func() {}}

	magic, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: open zstd stream: %v", ErrRead, err)
		}
		s.text = zr
		s.closer = zr.Close
	case bytes.HasPrefix(magic, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: open gzip stream: %v", ErrRead, err)
		}
		s.text = gr
		s.closer = func() { _ = gr.Close() }
	}

	if enc != nil {
		s.text = transform.NewReader(s.text, enc.NewDecoder())
	}
	return s, nil
}

// EncodingByName 把配置里的编码名转换成 x/text 编码；utf-8 返回 nil（不转码）。
func EncodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252", "latin1", "iso-8859-1":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported save encoding %q", name)
	}
}
