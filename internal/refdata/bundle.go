package refdata

import (
	"errors"
	"fmt"
	"strings"

	"Vic2Economy/internal/pdx"
)

var (
	ErrMissingDataset = errors.New("refdata: dataset missing")
	ErrBadManifest    = errors.New("refdata: bad bundle manifest")
)

// Dataset 是规则表的名字，清单文件和 Bundle 都按它索引。
type Dataset string

const (
	Issues         Dataset = "issues"
	Modifiers      Dataset = "modifiers"
	Technologies   Dataset = "technologies"
	Inventions     Dataset = "inventions"
	Terrain        Dataset = "terrain"
	TerrainMap     Dataset = "terrain_map"
	Continents     Dataset = "continents"
	Production     Dataset = "production"
	Crime          Dataset = "crime"
	NationalFocus  Dataset = "national_focus"
	Regions        Dataset = "region"
	AdjacencyMap   Dataset = "adjacency_map"
	Adjacencies    Dataset = "adjacencies"
	PortMap        Dataset = "port_map"
	PopTypes       Dataset = "pop_types"
	NationalValues Dataset = "national_values"
	Defines        Dataset = "defines"
)

// textDatasets 以原始文本形式提供，不做解码。
var textDatasets = map[Dataset]bool{
	Adjacencies: true,
}

// IsText 判断数据集是否按原始文本保存。
func (d Dataset) IsText() bool { return textDatasets[d] }

// Bundle 是只读的规则表集合。构造完成后不再修改，可以被多个查询并发读取。
// 所有访问器都显式接收 Bundle，没有包级共享状态。
type Bundle struct {
	tables map[Dataset]*pdx.Node
	texts  map[Dataset]string

	continentOf map[string]string
	stateIndex  map[string]int
	ports       map[string]string
}

// New 用已经解码好的表构造 Bundle，并预先建立地理索引。
func New(tables map[Dataset]*pdx.Node, texts map[Dataset]string) *Bundle {
	b := &Bundle{
		tables: make(map[Dataset]*pdx.Node, len(tables)),
		texts:  make(map[Dataset]string, len(texts)),
	}
	for k, v := range tables {
		b.tables[k] = v
	}
	for k, v := range texts {
		b.texts[k] = v
	}
	b.buildIndexes()
	return b
}

func (b *Bundle) buildIndexes() {
	// 同一省份出现在多个大洲时以最后一个为准
	b.continentOf = make(map[string]string)
	b.Table(Continents).Each(func(name string, c *pdx.Node) {
		for _, id := range c.Path("provinces", pdx.AnonymousKey).Strings() {
			b.continentOf[id] = name
		}
	})

	// 州下标取第一个包含该省份的州（按定义顺序，从 0 开始）
	b.stateIndex = make(map[string]int)
	idx := 0
	b.Table(Regions).Each(func(_ string, r *pdx.Node) {
		for _, id := range r.Get(pdx.AnonymousKey).Strings() {
			if _, ok := b.stateIndex[id]; !ok {
				b.stateIndex[id] = idx
			}
		}
		idx++
	})

	b.ports = make(map[string]string)
	b.Table(PortMap).Each(func(id string, seaZone *pdx.Node) {
		b.ports[id] = seaZone.String()
	})
}

// Table 返回数据集的根节点；缺失时返回 nil（nil 节点上的读操作都返回零值）。
func (b *Bundle) Table(d Dataset) *pdx.Node {
	if b == nil {
		return nil
	}
	return b.tables[d]
}

func (b *Bundle) Text(d Dataset) string {
	if b == nil {
		return ""
	}
	return b.texts[d]
}

func (b *Bundle) Has(d Dataset) bool {
	if b == nil {
		return false
	}
	if d.IsText() {
		_, ok := b.texts[d]
		return ok
	}
	return b.tables[d] != nil
}

// Require 检查一组数据集都已提供。
func (b *Bundle) Require(ds ...Dataset) error {
	var missing []string
	for _, d := range ds {
		if !b.Has(d) {
			missing = append(missing, string(d))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDataset, strings.Join(missing, ", "))
	}
	return nil
}

// Datasets 返回已加载的数据集名字。
func (b *Bundle) Datasets() []Dataset {
	out := make([]Dataset, 0, len(b.tables)+len(b.texts))
	for d := range b.tables {
		out = append(out, d)
	}
	for d := range b.texts {
		out = append(out, d)
	}
	return out
}

// ---- 查表 ----

// Modifier 返回全局修正表中 name 条目的 key 数值，缺失按 0。
func (b *Bundle) Modifier(name, key string) float64 {
	return b.Table(Modifiers).Path(name, key).Float()
}

// TerrainCategory 返回地形类别条目。地形表通常是 categories = { ... }，
// 也接受直接以地形名为顶层 key 的形态。
func (b *Bundle) TerrainCategory(terrain string) *pdx.Node {
	t := b.Table(Terrain)
	if cats := t.Get("categories"); cats != nil {
		return cats.Get(terrain)
	}
	return t.Get(terrain)
}

// ProvinceTerrain 返回省份的地形类型。
func (b *Bundle) ProvinceTerrain(provinceID string) string {
	return b.Table(TerrainMap).Get(provinceID).String()
}

// TerrainModifier 是 TerrainCategory(省份地形)[key]。
func (b *Bundle) TerrainModifier(provinceID, key string) float64 {
	return b.TerrainCategory(b.ProvinceTerrain(provinceID)).Get(key).Float()
}

func (b *Bundle) ContinentOf(provinceID string) (string, bool) {
	c, ok := b.continentOf[provinceID]
	return c, ok
}

func (b *Bundle) Continent(name string) *pdx.Node {
	return b.Table(Continents).Get(name)
}

// StateIndexOf 返回包含该省份的州在州定义中的下标。
func (b *Bundle) StateIndexOf(provinceID string) (int, bool) {
	i, ok := b.stateIndex[provinceID]
	return i, ok
}

// Neighbors 返回相邻省份列表。
func (b *Bundle) Neighbors(provinceID string) []string {
	n := b.Table(AdjacencyMap).Get(provinceID)
	switch {
	case n.IsList():
		return n.Strings()
	case n.IsObject():
		return n.Get(pdx.AnonymousKey).Strings()
	case n.IsScalar():
		return []string{n.String()}
	}
	return nil
}

// SeaZone 返回港口省份对应的海区；不是港口时 ok=false。
func (b *Bundle) SeaZone(provinceID string) (string, bool) {
	z, ok := b.ports[provinceID]
	return z, ok
}

func (b *Bundle) IsPort(provinceID string) bool {
	_, ok := b.ports[provinceID]
	return ok
}

// Crime 按下标（从 0 开始，按定义顺序）返回犯罪条目。
func (b *Bundle) Crime(index int) *pdx.Node {
	t := b.Table(Crime)
	keys := t.Keys()
	if index < 0 || index >= len(keys) {
		return nil
	}
	return t.Get(keys[index])
}

// FocusValue 在第一个包含 focus 的国策组里查修正值。
func (b *Bundle) FocusValue(focus, modifier string) float64 {
	var (
		value float64
		found bool
	)
	b.Table(NationalFocus).Each(func(_ string, group *pdx.Node) {
		if found {
			return
		}
		if f := group.Get(focus); f != nil {
			value = f.Get(modifier).Float()
			found = true
		}
	})
	return value
}

func (b *Bundle) NationalValue(name, modifier string) float64 {
	return b.Table(NationalValues).Path(name, modifier).Float()
}

func (b *Bundle) Technology(name string) *pdx.Node {
	return b.Table(Technologies).Get(name)
}

// Invention 按下标（从 0 开始，按定义顺序）返回发明条目。
func (b *Bundle) Invention(index int) (string, *pdx.Node, bool) {
	t := b.Table(Inventions)
	keys := t.Keys()
	if index < 0 || index >= len(keys) {
		return "", nil, false
	}
	return keys[index], t.Get(keys[index]), true
}

// PopTypeNames 返回人口类型列表：数据集可以是名字列表，也可以是 name → 定义 的对象。
func (b *Bundle) PopTypeNames() []string {
	t := b.Table(PopTypes)
	switch {
	case t.IsList():
		return t.Strings()
	case t.IsObject():
		if t.Has(pdx.AnonymousKey) && t.Len() == 1 {
			return t.Get(pdx.AnonymousKey).Strings()
		}
		return t.Keys()
	}
	return nil
}

func (b *Bundle) PopType(name string) *pdx.Node {
	return b.Table(PopTypes).Get(name)
}

// Define 返回 defines 表中 group.key 的数值。
func (b *Bundle) Define(group, key string) float64 {
	return b.Table(Defines).Path(group, key).Float()
}
