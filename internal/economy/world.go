package economy

import (
	"fmt"
	"strconv"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

// World 把规则表和存档组合起来：一次性建好共享的派生表，按需构造国家。
// 构造完成后只读，多个查询可以并发使用同一个 World。
type World struct {
	bundle *refdata.Bundle
	save   *pdx.Node

	goodsOutput      map[string]float64
	goodsWorkerTypes map[string][]string
	rgoWorkers       []string
	straits          refdata.Straits

	provinceIDs []string
	provinces   map[string]*Province
}

// RequiredDatasets 是产出计算离不开的规则表，其余表缺失时相关修正按 0 计。
var RequiredDatasets = []refdata.Dataset{
	refdata.Production,
	refdata.Terrain,
	refdata.TerrainMap,
	refdata.Continents,
	refdata.Regions,
	refdata.AdjacencyMap,
	refdata.PopTypes,
}

func NewWorld(save *pdx.Node, b *refdata.Bundle) (*World, error) {
	straits, err := refdata.ParseStraits(b.Text(refdata.Adjacencies))
	if err != nil {
		return nil, err
	}
	w := &World{
		bundle:           b,
		save:             save,
		goodsOutput:      make(map[string]float64),
		goodsWorkerTypes: make(map[string][]string),
		straits:          straits,
		provinces:        make(map[string]*Province),
	}
	w.buildProductionTables()

	// 根上 key 为整数且值为对象的条目就是省份
	save.Each(func(key string, v *pdx.Node) {
		if _, err := strconv.Atoi(key); err != nil || !v.IsObject() {
			return
		}
		w.provinceIDs = append(w.provinceIDs, key)
		w.provinces[key] = NewProvince(key, v, b)
	})
	return w, nil
}

func (w *World) buildProductionTables() {
	production := w.bundle.Table(refdata.Production)
	seenWorker := make(map[string]bool)
	production.Each(func(_ string, def *pdx.Node) {
		if good := def.Get("output_goods").String(); good != "" {
			w.goodsOutput[good] = def.Get("value").Float()
			if tmpl := def.Get("template").String(); tmpl != "" {
				w.goodsWorkerTypes[good] = employeeTypes(production.Get(tmpl))
			}
		}
		if def.Get("type").String() == "rgo" {
			for _, t := range employeeTypes(def) {
				if !seenWorker[t] {
					seenWorker[t] = true
					w.rgoWorkers = append(w.rgoWorkers, t)
				}
			}
		}
	})
}

func employeeTypes(template *pdx.Node) []string {
	var out []string
	for _, e := range template.Path("employees").Records(pdx.AnonymousKey).All() {
		if t := e.Get("poptype").String(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (w *World) Bundle() *refdata.Bundle { return w.bundle }
func (w *World) Save() *pdx.Node         { return w.save }

// GoodsOutput 返回商品的基础产出。
func (w *World) GoodsOutput(good string) (float64, bool) {
	v, ok := w.goodsOutput[good]
	return v, ok
}

// GoodsWorkerTypes 返回能生产该商品的工人类型。
func (w *World) GoodsWorkerTypes(good string) []string { return w.goodsWorkerTypes[good] }

// RgoWorkers 是所有 RGO 模板雇佣的人口类型并集，按首次出现顺序。
func (w *World) RgoWorkers() []string { return w.rgoWorkers }

func (w *World) Straits() refdata.Straits { return w.straits }

// Provinces 按存档顺序返回全部省份。
func (w *World) Provinces() []*Province {
	out := make([]*Province, 0, len(w.provinceIDs))
	for _, id := range w.provinceIDs {
		out = append(out, w.provinces[id])
	}
	return out
}

func (w *World) Province(id string) (*Province, bool) {
	p, ok := w.provinces[id]
	return p, ok
}

// CreateCountries 为每个 tag 构造并装配国家。存档里没有的 tag 返回 ErrUnknownCountry。
func (w *World) CreateCountries(tags []string) (map[string]*Country, error) {
	wars := w.save.Records("active_war").All()
	out := make(map[string]*Country, len(tags))
	for _, tag := range tags {
		data := w.save.Get(tag)
		if !data.IsObject() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, tag)
		}
		raw := NewRawCountry(tag, data, w.bundle)

		var owned, controlled []*Province
		for _, id := range w.provinceIDs {
			p := w.provinces[id]
			if p.Owner() == tag {
				owned = append(owned, p)
			}
			if p.Controller() == tag {
				controlled = append(controlled, p)
			}
		}
		capital, _ := w.Province(raw.Capital())

		out[tag] = Wire(raw, Wiring{
			Owned:       owned,
			Controlled:  controlled,
			Capital:     capital,
			Straits:     w.straits,
			ContinentOf: w.bundle.ContinentOf,
			Wars:        wars,
		})
	}
	return out, nil
}

// Country 是只构造单个国家的快捷方式。
func (w *World) Country(tag string) (*Country, error) {
	m, err := w.CreateCountries([]string{tag})
	if err != nil {
		return nil, err
	}
	return m[tag], nil
}

// IsUnderSiege 判断省份是否处于围城战中。
func (w *World) IsUnderSiege(provinceID string) bool {
	for _, s := range w.save.Path("combat").Records("siege_combat").All() {
		if s.Get("location").String() == provinceID {
			return true
		}
	}
	return false
}

func (w *World) RgoEffFromSiege(class RgoClass) float64 {
	return w.bundle.Modifier("has_siege", class.EffKey())
}
