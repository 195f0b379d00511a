package pdx

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/text/encoding"
)

const (
	DefaultBatchSize = 100000
	DefaultChunkSize = 64 * 1024
)

// ErrRead 表示输入流读取失败（解码失败由调用方决定是否重试）。
var ErrRead = errors.New("pdx: read save stream failed")

// Decoder 是尽力而为的存档解码器：不校验语法，容忍重复键和不配平的 `}`。
type Decoder struct {
	batchSize int
	chunkSize int
	progress  ProgressFunc
	encoding  encoding.Encoding
}

type Option func(*Decoder)

// WithBatchSize 设置每批解析的行数，批次之间回调进度并让出调度。
func WithBatchSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithChunkSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(d *Decoder) {
		d.progress = fn
	}
}

// WithEncoding 指定存档文本编码（原版存档是 windows-1252）。
func WithEncoding(enc encoding.Encoding) Option {
	return func(d *Decoder) {
		d.encoding = enc
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		batchSize: DefaultBatchSize,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode 是 NewDecoder(opts...).Decode(r, size) 的快捷方式。
func Decode(r io.Reader, size int64, opts ...Option) (*Node, error) {
	return NewDecoder(opts...).Decode(r, size)
}

// DecodeString 解码内存中的文本（字节进度按文本长度计算）。
func DecodeString(text string, opts ...Option) (*Node, error) {
	return NewDecoder(opts...).Decode(strings.NewReader(text), int64(len(text)))
}

// Decode 读取整个流（阶段一：字节进度 = 已读字节 / size），
// 然后逐批解析行（阶段二：行进度 = 已解析行 / 总行数）。两个阶段都到 100 才返回。
func (d *Decoder) Decode(r io.Reader, size int64) (*Node, error) {
	src, err := openSource(r, d.encoding)
	if err != nil {
		return nil, err
	}
	defer src.closer()

	text, err := d.readAll(src, size)
	if err != nil {
		return nil, err
	}
	return d.parse(text), nil
}

func (d *Decoder) readAll(src *source, size int64) (string, error) {
	var sb strings.Builder
	if size > 0 {
		sb.Grow(int(size))
	}
	buf := make([]byte, d.chunkSize)
	last := -1.0
	for {
		n, err := src.text.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
			last = percentOf(src.raw.n, size)
			d.report(Progress{Phase: PhaseRead, Percent: last, Done: src.raw.n, Total: size})
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRead, err)
		}
	}
	if last < 100 {
		d.report(Progress{Phase: PhaseRead, Percent: 100, Done: src.raw.n, Total: size})
	}
	return sb.String(), nil
}

func (d *Decoder) parse(text string) *Node {
	lines := splitLines(preprocess(text))
	total := int64(len(lines))

	st := newParseState()
	if total == 0 {
		d.report(Progress{Phase: PhaseParse, Percent: 100})
		return st.root
	}
	for start := 0; start < len(lines); start += d.batchSize {
		end := min(start+d.batchSize, len(lines))
		for _, line := range lines[start:end] {
			st.parseLine(line)
		}
		d.report(Progress{Phase: PhaseParse, Percent: percentOf(int64(end), total), Done: int64(end), Total: total})
		runtime.Gosched()
	}
	return st.root
}

func (d *Decoder) report(p Progress) {
	if d.progress != nil {
		d.progress(p)
	}
}

// preprocess 去掉 `#` 行注释，并让每个 `{` / `}` 独占一行（括号是唯一的嵌套信号）。
// 引号内的 `#` 和括号保持原样；引号状态在换行处复位，避免未闭合的引号吞掉后文。
func preprocess(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + len(text)/8)
	inQuote := false
	inComment := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			inQuote, inComment = false, false
			sb.WriteByte(c)
			continue
		}
		if inComment {
			continue
		}
		switch {
		case c == '"':
			inQuote = !inQuote
			sb.WriteByte(c)
		case inQuote:
			sb.WriteByte(c)
		case c == '#':
			inComment = true
		case c == '{' || c == '}':
			sb.WriteByte('\n')
			sb.WriteByte(c)
			sb.WriteByte('\n')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitLines 切行并丢弃空行，返回去掉首尾空白的行。
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw)/2)
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type parseState struct {
	root    *Node
	stack   []*Node
	pending string
}

func newParseState() *parseState {
	root := NewObject()
	return &parseState{
		root:    root,
		stack:   []*Node{root},
		pending: AnonymousKey,
	}
}

func (s *parseState) top() *Node {
	return s.stack[len(s.stack)-1]
}

func (s *parseState) parseLine(line string) {
	switch line {
	case "{":
		obj := NewObject()
		s.top().Put(s.pending, obj)
		s.stack = append(s.stack, obj)
		s.pending = AnonymousKey
		return
	case "}":
		// 多余的 `}` 在根上直接忽略
		if len(s.stack) > 1 {
			s.stack = s.stack[:len(s.stack)-1]
		}
		return
	}

	tokens := tokenize(line)
	var bare []string
	flush := func() {
		if len(bare) > 0 {
			s.appendValues(bare)
			bare = nil
		}
	}
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) && tokens[i+1] == "=" && tokens[i] != "=" {
			flush()
			key := tokens[i]
			if i+2 >= len(tokens) {
				// `key =` 结尾：等待下一行的 `{` 或值列表
				s.pending = key
				return
			}
			if value := stripQuotes(tokens[i+2]); value != "" {
				s.top().Put(key, NewScalar(value))
			}
			i += 3
			continue
		}
		if tokens[i] != "=" {
			bare = append(bare, stripQuotes(tokens[i]))
		}
		i++
	}
	flush()
}

// appendValues 把裸值追加到当前帧 pending key 下的列表；不是列表时新建列表。
func (s *parseState) appendValues(values []string) {
	frame := s.top()
	if cur := frame.Get(s.pending); cur.IsList() {
		for _, v := range values {
			cur.Append(NewScalar(v))
		}
		return
	}
	frame.Replace(s.pending, ScalarList(values...))
}

// tokenize 按空白切分一行，`=` 单独成词，引号内的空白和 `=` 不切分。
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case inQuote:
			cur.WriteByte(c)
		case c == '=':
			flush()
			tokens = append(tokens, "=")
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// Unquote 去掉 key 上的引号（key 按原样保存，例如 "12"=focus）。
func Unquote(s string) string {
	return stripQuotes(s)
}
