package refdata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"Vic2Economy/internal/pdx"
)

// Manifest 描述一个规则表集合：数据集名 → 文件路径（相对 Root）。
//
//	root: ./data/vanilla
//	encoding: windows-1252
//	datasets:
//	  issues: common/issues.json
//	  terrain: map/terrain.txt
//	  adjacencies: map/adjacencies.csv
type Manifest struct {
	Root     string             `yaml:"root"`
	Encoding string             `yaml:"encoding"`
	Datasets map[Dataset]string `yaml:"datasets"`
}

// LoadManifest 读取 yaml 清单。Root 为空时取清单所在目录，相对 Root 按清单目录解析。
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadManifest, path, err)
	}
	if len(m.Datasets) == 0 {
		return m, fmt.Errorf("%w: %s declares no datasets", ErrBadManifest, path)
	}
	dir := filepath.Dir(path)
	switch {
	case m.Root == "":
		m.Root = dir
	case !filepath.IsAbs(m.Root):
		m.Root = filepath.Join(dir, m.Root)
	}
	return m, nil
}

// Load 读取清单及其列出的全部文件，构造 Bundle。
func Load(manifestPath string) (*Bundle, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return m.Load()
}

// Load 按扩展名解码每个文件：.json 走 gjson，.csv 按原始文本保存，其余按存档格式解码。
func (m Manifest) Load() (*Bundle, error) {
	enc, err := pdx.EncodingByName(m.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	tables := make(map[Dataset]*pdx.Node, len(m.Datasets))
	texts := make(map[Dataset]string)
	for name, rel := range m.Datasets {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.Root, rel)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %s: %v", ErrMissingDataset, name, err)
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case name.IsText() || ext == ".csv":
			texts[name] = string(raw)
		case ext == ".json":
			n, err := FromJSON(raw)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", name, err)
			}
			tables[name] = n
		default:
			n, err := pdx.Decode(bytes.NewReader(raw), int64(len(raw)), pdx.WithEncoding(enc))
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", name, err)
			}
			tables[name] = n
		}
	}
	return New(tables, texts), nil
}

// FromJSON 把 JSON 文档转换成 Value Node，保持对象 key 的原始顺序。
// 数字保留原始文本，布尔值变成 "true"/"false"，null 丢弃。
func FromJSON(raw []byte) (*pdx.Node, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadManifest)
	}
	n := nodeFromJSON(gjson.ParseBytes(raw))
	if n == nil {
		n = pdx.NewObject()
	}
	return n, nil
}

func nodeFromJSON(v gjson.Result) *pdx.Node {
	switch {
	case v.IsObject():
		obj := pdx.NewObject()
		v.ForEach(func(k, child gjson.Result) bool {
			obj.Replace(k.String(), nodeFromJSON(child))
			return true
		})
		return obj
	case v.IsArray():
		list := pdx.NewList()
		v.ForEach(func(_, child gjson.Result) bool {
			if c := nodeFromJSON(child); c != nil {
				list.Append(c)
			}
			return true
		})
		return list
	}
	switch v.Type {
	case gjson.String:
		return pdx.NewScalar(v.Str)
	case gjson.Number:
		return pdx.NewScalar(v.Raw)
	case gjson.True, gjson.False:
		return pdx.NewScalar(v.String())
	default:
		return nil
	}
}
