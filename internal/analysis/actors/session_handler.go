package actors

import (
	"encoding/json"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
)

func handleStatus(s *entity.Session, _ *messages.StatusRequest) (*messages.StatusReply, error) {
	return &messages.StatusReply{Status: s.Status()}, nil
}

func handleProduction(s *entity.Session, req *messages.ProductionRequest) (*messages.ProductionReply, error) {
	res, err := s.World().Production(req.Query)
	if err != nil {
		return nil, err
	}
	return &messages.ProductionReply{Result: res}, nil
}

func handlePopulation(s *entity.Session, req *messages.PopulationRequest) (*messages.PopulationReply, error) {
	return &messages.PopulationReply{Totals: s.World().PopulationTotals(req.Countries)}, nil
}

func handlePopNeeds(s *entity.Session, req *messages.PopNeedsRequest) (*messages.PopNeedsReply, error) {
	needs, err := s.World().PopNeeds(req.Query)
	if err != nil {
		return nil, err
	}
	return &messages.PopNeedsReply{Needs: needs}, nil
}

func handleEnemies(s *entity.Session, req *messages.EnemiesRequest) (*messages.EnemiesReply, error) {
	c, err := s.World().Country(req.Country)
	if err != nil {
		return nil, err
	}
	return &messages.EnemiesReply{Country: req.Country, Enemies: c.Enemies()}, nil
}

func handleExport(s *entity.Session, _ *messages.ExportRequest) (*messages.ExportReply, error) {
	raw, err := json.Marshal(s.Save())
	if err != nil {
		return nil, err
	}
	return &messages.ExportReply{JSON: raw}, nil
}
