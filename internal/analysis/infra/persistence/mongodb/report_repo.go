package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/infra/persistence/model"
)

const defaultReportCollectionName = "report"

const (
	OpGetReport  = "repo.report.Get"
	OpSaveReport = "repo.report.Save"
	OpListReport = "repo.report.ListBySession"
)

var errNilCollection = errors.New("mongodb report collection is nil")

type ReportRepo struct {
	coll *mongo.Collection
}

func NewReportRepo(db *mongo.Database) *ReportRepo {
	if db == nil {
		return &ReportRepo{}
	}
	return &ReportRepo{coll: db.Collection(defaultReportCollectionName)}
}

// EnsureIndexes 建 session_id + created_at 组合索引，列表查询按它排序。
func (r *ReportRepo) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errNilCollection
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

func (r *ReportRepo) Save(ctx context.Context, rep *entity.Report) error {
	if rep == nil {
		return nil
	}
	if r == nil || r.coll == nil {
		return fmt.Errorf("%s: %w", OpSaveReport, errNilCollection)
	}
	doc := model.ReportToDoc(rep)
	_, err := r.coll.ReplaceOne(
		ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s report_id=%s: %w", OpSaveReport, doc.ID, err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*entity.Report, error) {
	if r == nil || r.coll == nil {
		return nil, fmt.Errorf("%s: %w", OpGetReport, errNilCollection)
	}
	var doc model.ReportDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	switch {
	case err == nil:
		return model.DocToReport(doc), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, entity.ErrReportNotFound
	default:
		return nil, fmt.Errorf("%s report_id=%s: %w", OpGetReport, id, err)
	}
}

func (r *ReportRepo) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	if r == nil || r.coll == nil {
		return nil, fmt.Errorf("%s: %w", OpListReport, errNilCollection)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s session_id=%s: %w", OpListReport, sessionID, err)
	}
	var docs []model.ReportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s session_id=%s: %w", OpListReport, sessionID, err)
	}
	out := make([]*entity.Report, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.DocToReport(d))
	}
	return out, nil
}
