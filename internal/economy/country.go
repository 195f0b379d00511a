package economy

import (
	"strconv"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

// 国家层面的修正 key。
const (
	ModRgoThroughput = "RGO_throughput"
	ModRgoOutput     = "RGO_output"
	ModGoodsOutput   = "rgo_goods_output"
	ModRgoSize       = "rgo_size"
	ModRgoSizeLegacy = "RGO_size"

	ModLocalThroughput = "local_RGO_throughput"
	ModLocalOutput     = "local_RGO_output"
)

// RawCountry 是从存档切片构造出的国家数据，构造时算好缓存标量，之后只读。
// 省份集合、海峡和连通性由 Wire 补齐。
type RawCountry struct {
	tag  string
	data *pdx.Node

	capital       string
	technologies  []string
	inventions    []int
	focuses       map[string]string
	nationalValue string
	warExhaustion float64

	rgoSize       map[RgoClass]float64
	throughputEff float64
}

func NewRawCountry(tag string, data *pdx.Node, b *refdata.Bundle) *RawCountry {
	c := &RawCountry{
		tag:           tag,
		data:          data,
		capital:       data.Get("capital").String(),
		technologies:  data.Get("technology").Keys(),
		focuses:       make(map[string]string),
		nationalValue: pdx.Unquote(data.Get("nationalvalue").String()),
		warExhaustion: data.Get("war_exhaustion").Float(),
	}

	active := data.Get("active_inventions")
	if active.IsObject() {
		active = active.Get(pdx.AnonymousKey)
	}
	for _, s := range active.Strings() {
		if i, err := strconv.Atoi(s); err == nil {
			c.inventions = append(c.inventions, i)
		}
	}

	data.Get("national_focus").Each(func(state string, focus *pdx.Node) {
		c.focuses[pdx.Unquote(state)] = pdx.Unquote(focus.String())
	})

	c.rgoSize = map[RgoClass]float64{
		Farm: c.nationalRgoSize(b, Farm),
		Mine: c.nationalRgoSize(b, Mine),
	}
	c.throughputEff = b.Modifier("war_exhaustion", ModRgoThroughput)*c.warExhaustion +
		c.ModifierFromEvents(b, ModRgoThroughput) +
		c.ModifierFromIssues(b, ModRgoThroughput) +
		c.ModifierFromNationalValue(b, ModRgoThroughput)
	return c
}

func (c *RawCountry) nationalRgoSize(b *refdata.Bundle, class RgoClass) float64 {
	key := class.SizeKey()
	return c.ModifierFromIssues(b, key) + c.ModifierFromEvents(b, key) + c.ModifierFromNationalValue(b, key)
}

func (c *RawCountry) Tag() string                { return c.tag }
func (c *RawCountry) Data() *pdx.Node            { return c.data }
func (c *RawCountry) Capital() string            { return c.capital }
func (c *RawCountry) Focuses() map[string]string { return c.focuses }
func (c *RawCountry) ActiveInventions() []int    { return c.inventions }

// RgoSize 是改革、事件、价值观对某类 RGO 规模的修正，构造时算好。
func (c *RawCountry) RgoSize(class RgoClass) float64 { return c.rgoSize[class] }

// RgoThroughputEff = 厌战度 × 厌战修正 + 事件 + 改革 + 国家价值观，构造时算好。
func (c *RawCountry) RgoThroughputEff() float64 { return c.throughputEff }

// ModifierFromIssues 遍历 类别 → 改革 → 立场，累加国家当前立场上的修正。
func (c *RawCountry) ModifierFromIssues(b *refdata.Bundle, name string) float64 {
	total := 0.0
	b.Table(refdata.Issues).Each(func(_ string, category *pdx.Node) {
		category.Each(func(reform string, stances *pdx.Node) {
			selected := c.data.Get(reform).String()
			if selected == "" {
				return
			}
			stances.Each(func(stance string, def *pdx.Node) {
				if stance == selected && def.IsObject() {
					total += def.Get(name).Float()
				}
			})
		})
	})
	return total
}

// ModifierFromEvents 累加国家上生效的事件修正。
func (c *RawCountry) ModifierFromEvents(b *refdata.Bundle, name string) float64 {
	total := 0.0
	for _, m := range c.data.Records("modifier").All() {
		total += b.Modifier(m.Get("modifier").String(), name)
	}
	return total
}

func (c *RawCountry) ModifierFromNationalValue(b *refdata.Bundle, name string) float64 {
	if c.nationalValue == "" {
		return 0
	}
	return b.NationalValue(c.nationalValue, name)
}

// ModifierFromTechnology 累加已研究科技的修正。commodity 非空时只取该商品的子项。
func (c *RawCountry) ModifierFromTechnology(b *refdata.Bundle, name, commodity string) float64 {
	total := 0.0
	for _, t := range c.technologies {
		total += effectValue(b.Technology(t).Get(name), commodity)
	}
	return total
}

// ModifierFromInventions 同科技，但修正可能直接挂在发明上，也可能在 effect 下，两处都算。
func (c *RawCountry) ModifierFromInventions(b *refdata.Bundle, name, commodity string) float64 {
	total := 0.0
	for _, idx := range c.inventions {
		_, inv, ok := b.Invention(idx)
		if !ok {
			continue
		}
		total += effectValue(inv.Get(name), commodity)
		total += effectValue(inv.Path("effect", name), commodity)
	}
	return total
}

// TechRgoSize 是科技和发明对某商品 RGO 规模的修正，新旧两种大小写的 key 都累加。
func (c *RawCountry) TechRgoSize(b *refdata.Bundle, good string) float64 {
	total := 0.0
	for _, key := range []string{ModRgoSize, ModRgoSizeLegacy} {
		total += c.ModifierFromTechnology(b, key, good) + c.ModifierFromInventions(b, key, good)
	}
	return total
}

// RgoOutput 是国家对某商品的产出效率修正。
func (c *RawCountry) RgoOutput(b *refdata.Bundle, good string) float64 {
	return c.ModifierFromTechnology(b, ModGoodsOutput, good) +
		c.ModifierFromInventions(b, ModGoodsOutput, good) +
		c.ModifierFromIssues(b, ModRgoOutput) +
		c.ModifierFromEvents(b, ModRgoOutput) +
		c.ModifierFromNationalValue(b, ModRgoOutput)
}

// RgoEff 是国家对某类 RGO 的效率修正（farm_rgo_eff / mine_rgo_eff）。
func (c *RawCountry) RgoEff(b *refdata.Bundle, class RgoClass) float64 {
	key := class.EffKey()
	return c.ModifierFromIssues(b, key) +
		c.ModifierFromEvents(b, key) +
		c.ModifierFromNationalValue(b, key) +
		c.ModifierFromTechnology(b, key, "") +
		c.ModifierFromInventions(b, key, "")
}

// effectValue 读取一条效果：无商品时取标量；有商品时取该商品子项，列表形态逐项累加。
func effectValue(v *pdx.Node, commodity string) float64 {
	if v == nil {
		return 0
	}
	total := 0.0
	for _, it := range pdx.RecordsOf(v).All() {
		if commodity == "" {
			total += it.Float()
			continue
		}
		total += it.Get(commodity).Float()
	}
	return total
}
