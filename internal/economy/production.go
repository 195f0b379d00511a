package economy

import (
	"slices"
)

// DefaultOverseasPenalty 是海外且不可达省份的产出惩罚系数。
const DefaultOverseasPenalty = 0.25

// Query 选择要统计的国家和商品。
type Query struct {
	Countries       []string `json:"countries"`
	Goods           []string `json:"goods"`
	OverseasPenalty float64  `json:"overseas_penalty"`
}

// RgoInputs 是单个省份产出公式的全部输入。
type RgoInputs struct {
	ProvinceSize      int     `json:"province_size"`
	TerrainModifier   float64 `json:"terrain_modifier"`
	RgoSizeModifier   float64 `json:"rgo_size_modifier"`
	BaseOutput        float64 `json:"base_output"`
	NumWorkers        float64 `json:"num_workers"`
	CountryThroughput float64 `json:"country_throughput"`
	LocalThroughput   float64 `json:"local_throughput"`
	Overseas          bool    `json:"overseas"`
	OverseasPenalty   float64 `json:"overseas_penalty"`
	AristocratPct     float64 `json:"aristocrat_pct"`
	CountryRgoOutput  float64 `json:"country_rgo_output"`
	LocalRgoOutput    float64 `json:"local_rgo_output"`
	CountryRgoEff     float64 `json:"country_rgo_eff"`
	LocalRgoEff       float64 `json:"local_rgo_eff"`
	SiegeEff          float64 `json:"siege_eff"`
	BlockadeEff       float64 `json:"blockade_eff"`
}

// RgoOutput 是公式的中间量和结果。
type RgoOutput struct {
	BaseProduction   float64 `json:"base_production"`
	MaxWorkers       float64 `json:"max_workers"`
	Throughput       float64 `json:"throughput"`
	OutputEfficiency float64 `json:"output_efficiency"`
	Production       float64 `json:"production"`
}

// Evaluate 计算
//
//	baseProduction   = size * (1 + terrain + rgoSize) * baseOutput
//	maxWorkers       = 40000 * size * (1 + terrain + rgoSize)
//	throughput       = workers / maxWorkers * (1 + countryThroughput + localThroughput) * (1 - penalty*overseas)
//	outputEfficiency = 1 + aristocrat% + countryOutput + localOutput + countryEff + localEff + siege + blockade
//	production       = baseProduction * throughput * outputEfficiency
//
// maxWorkers 不为正时没有岗位，产出为 0。
func (in RgoInputs) Evaluate() RgoOutput {
	scale := float64(in.ProvinceSize) * (1 + in.TerrainModifier + in.RgoSizeModifier)
	out := RgoOutput{
		BaseProduction: scale * in.BaseOutput,
		MaxWorkers:     BaseWorkplaces * scale,
	}
	if out.MaxWorkers <= 0 {
		return out
	}
	overseas := 0.0
	if in.Overseas {
		overseas = 1
	}
	out.Throughput = in.NumWorkers / out.MaxWorkers *
		(1 + in.CountryThroughput + in.LocalThroughput) *
		(1 - in.OverseasPenalty*overseas)
	out.OutputEfficiency = 1 + finiteOrZero(in.AristocratPct) +
		in.CountryRgoOutput + in.LocalRgoOutput +
		in.CountryRgoEff + in.LocalRgoEff +
		in.SiegeEff + in.BlockadeEff
	out.Production = out.BaseProduction * out.Throughput * out.OutputEfficiency
	return out
}

// ProvinceProduction 是一个省份的计算明细。
type ProvinceProduction struct {
	ProvinceID string    `json:"province_id"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	Good       string    `json:"good"`
	Inputs     RgoInputs `json:"inputs"`
	RgoOutput
}

// ProductionResult 是 tag → 商品 → 产出，以及参与计算的省份明细（按存档顺序）。
type ProductionResult struct {
	Output    map[string]map[string]float64 `json:"output"`
	Provinces []ProvinceProduction          `json:"provinces"`
}

// Production 计算所选国家对所选商品的 RGO 产出。每次调用都完整重算，不修改输入。
func (w *World) Production(q Query) (*ProductionResult, error) {
	countries, err := w.CreateCountries(q.Countries)
	if err != nil {
		return nil, err
	}

	res := &ProductionResult{Output: make(map[string]map[string]float64, len(q.Countries))}
	for _, tag := range q.Countries {
		res.Output[tag] = make(map[string]float64, len(q.Goods))
		for _, g := range q.Goods {
			res.Output[tag][g] = 0
		}
	}

	for _, p := range w.Provinces() {
		owner, good := p.Owner(), p.GoodsType()
		c, ok := countries[owner]
		if !ok || !slices.Contains(q.Goods, good) {
			continue
		}
		in, err := w.rgoInputs(c, p, good, q.OverseasPenalty)
		if err != nil {
			return nil, err
		}
		out := in.Evaluate()
		res.Output[owner][good] += out.Production
		res.Provinces = append(res.Provinces, ProvinceProduction{
			ProvinceID: p.ID(),
			Name:       p.Name(),
			Owner:      owner,
			Good:       good,
			Inputs:     in,
			RgoOutput:  out,
		})
	}
	return res, nil
}

func (w *World) rgoInputs(c *Country, p *Province, good string, penalty float64) (RgoInputs, error) {
	b := w.bundle
	class := p.Class()
	focuses := c.Focuses()

	localThroughput, err := p.Modifier(b, ModLocalThroughput, focuses)
	if err != nil {
		return RgoInputs{}, err
	}
	localOutput, err := p.Modifier(b, ModLocalOutput, focuses)
	if err != nil {
		return RgoInputs{}, err
	}
	localEff, err := p.Modifier(b, class.EffKey(), focuses)
	if err != nil {
		return RgoInputs{}, err
	}

	aristocrats := 0.0
	if state, ok := b.StateIndexOf(p.ID()); ok {
		aristocrats = finiteOrZero(c.PopsPercentageInState(b, "aristocrats", state))
	}
	siege := 0.0
	if w.IsUnderSiege(p.ID()) {
		siege = w.RgoEffFromSiege(class)
	}
	baseOutput, _ := w.GoodsOutput(good)
	workerTypes := w.GoodsWorkerTypes(good)
	if len(workerTypes) == 0 {
		workerTypes = w.rgoWorkers
	}

	return RgoInputs{
		ProvinceSize:      p.Size(b, workerTypes),
		TerrainModifier:   p.TerrainModifier(b),
		RgoSizeModifier:   p.RgoSizeModifier(b) + c.RgoSize(class) + c.TechRgoSize(b, good),
		BaseOutput:        baseOutput,
		NumWorkers:        p.NumWorkers(),
		CountryThroughput: c.RgoThroughputEff(),
		LocalThroughput:   localThroughput,
		Overseas:          c.IsOverseas(p.ID()),
		OverseasPenalty:   penalty,
		AristocratPct:     aristocrats,
		CountryRgoOutput:  c.RgoOutput(b, good),
		LocalRgoOutput:    localOutput,
		CountryRgoEff:     c.RgoEff(b, class),
		LocalRgoEff:       localEff,
		SiegeEff:          siege,
		BlockadeEff:       c.ModifierFromBlockade(b, p),
	}, nil
}
