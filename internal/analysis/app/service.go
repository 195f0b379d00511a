package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/app/port"
	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/modules/kit/errx"
)

// Options 是服务的可调参数，零值取默认。
type Options struct {
	Decode          serverconfig.DecodeConfig
	OverseasPenalty float64
	Clock           Clock
	NewID           IDGen
}

// Service 是分析服务的应用层：解码存档开会话，把查询交给会话 actor，并为每次查询留档。
// 本层不打印错误日志，错误带着 cause 链交给接口层统一上报。
type Service struct {
	bundle   *refdata.Bundle
	sessions port.Sessions
	reports  port.ReportStore
	log      port.Logger
	opts     Options
}

func NewService(bundle *refdata.Bundle, sessions port.Sessions, reports port.ReportStore, log port.Logger, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
	}
	if opts.Decode.MaxUploadMB <= 0 {
		opts.Decode.MaxUploadMB = serverconfig.DefaultMaxUploadMB
	}
	return &Service{
		bundle:   bundle,
		sessions: sessions,
		reports:  reports,
		log:      log,
		opts:     opts,
	}
}

// MaxUploadBytes 是单个存档允许的最大字节数。
func (s *Service) MaxUploadBytes() int64 {
	return int64(s.opts.Decode.MaxUploadMB) << 20
}

// Decode 解码一份存档并打开会话。onProgress 可为空，按两阶段顺序收到进度。
func (s *Service) Decode(ctx context.Context, in DecodeInput, onProgress pdx.ProgressFunc) (entity.LoadStatus, error) {
	if in.Reader == nil {
		return entity.LoadStatus{}, ErrInvalidQuery.WithReason(ReasonEmptySave)
	}
	if in.Size > s.MaxUploadBytes() {
		return entity.LoadStatus{}, ErrSaveTooLarge.WithData("bytes", in.Size).WithData("limit_mb", s.opts.Decode.MaxUploadMB)
	}
	if err := s.bundle.Require(economy.RequiredDatasets...); err != nil {
		return entity.LoadStatus{}, ErrDecodeFailed.WithReason(ReasonMissingDataset).WithCause(err)
	}
	encName := in.Encoding
	if encName == "" {
		encName = s.opts.Decode.Encoding
	}
	enc, err := pdx.EncodingByName(encName)
	if err != nil {
		return entity.LoadStatus{}, ErrInvalidQuery.WithReason(ReasonBadEncoding).WithData("encoding", encName)
	}

	status := entity.LoadStatus{
		SessionID: s.opts.NewID(),
		FileName:  in.FileName,
		Bytes:     in.Size,
		Encoding:  encName,
		StartedAt: s.opts.Clock().UTC(),
	}
	log := s.log.WithContext(ctx).With(zap.String("session_id", status.SessionID))
	var read int64
	track := func(p pdx.Progress) {
		status.Track(p)
		if p.Phase == pdx.PhaseRead {
			read = max(read, p.Done)
			log.Debug("save read progress",
				zap.String("read", humanize.Bytes(uint64(max(p.Done, 0)))),
				zap.Float64("percent", p.Percent))
		} else {
			log.Debug("save parse progress",
				zap.String("lines", humanize.Comma(p.Done)),
				zap.Float64("percent", p.Percent))
		}
		if onProgress != nil {
			onProgress(p)
		}
	}

	dec := pdx.NewDecoder(
		pdx.WithBatchSize(s.opts.Decode.BatchSize),
		pdx.WithChunkSize(s.opts.Decode.ChunkSize),
		pdx.WithEncoding(enc),
		pdx.WithProgress(track),
	)
	begin := time.Now()
	lr := &limitedReader{r: in.Reader, left: s.MaxUploadBytes()}
	save, err := dec.Decode(lr, in.Size)
	if err != nil {
		if lr.exceeded {
			return entity.LoadStatus{}, ErrSaveTooLarge.WithData("limit_mb", s.opts.Decode.MaxUploadMB)
		}
		return entity.LoadStatus{}, ErrDecodeFailed.WithReason(ReasonStreamBroken).WithData("file", in.FileName).WithCause(err)
	}

	world, err := economy.NewWorld(save, s.bundle)
	if err != nil {
		return entity.LoadStatus{}, ErrDecodeFailed.WithData("file", in.FileName).WithCause(err)
	}
	status.Duration = time.Since(begin)
	if status.Bytes <= 0 {
		status.Bytes = read
	}

	sess := entity.NewSession(status, save, world)
	if err := s.sessions.Open(ctx, sess); err != nil {
		return entity.LoadStatus{}, mapSessionErr(err, status.SessionID)
	}

	log.Info("save decoded",
		zap.String("file", in.FileName),
		zap.String("size", humanize.Bytes(uint64(max(in.Size, 0)))),
		zap.Int("provinces", sess.Status().Provinces),
		zap.Duration("cost", status.Duration))
	return sess.Status(), nil
}

func (s *Service) Status(ctx context.Context, id entity.SessionID) (entity.LoadStatus, error) {
	rep, err := ask[*messages.StatusReply](ctx, s, &messages.StatusRequest{SessionBase: messages.SessionBase{Session: id}})
	if err != nil {
		return entity.LoadStatus{}, err
	}
	return rep.Status, nil
}

func (s *Service) Sessions(ctx context.Context) ([]entity.LoadStatus, error) {
	list, err := s.sessions.List(ctx)
	if err != nil {
		return nil, mapSessionErr(err, "")
	}
	return list, nil
}

func (s *Service) CloseSession(ctx context.Context, id entity.SessionID) error {
	if err := s.sessions.Close(ctx, id); err != nil {
		return mapSessionErr(err, id)
	}
	return nil
}

// Production 计算所选国家对所选商品的产出，并留档。
func (s *Service) Production(ctx context.Context, id entity.SessionID, in ProductionInput) (*ProductionOutput, error) {
	q, err := s.productionQuery(in)
	if err != nil {
		return nil, err
	}
	rep, err := ask[*messages.ProductionReply](ctx, s, &messages.ProductionRequest{
		SessionBase: messages.SessionBase{Session: id},
		Query:       q,
	})
	if err != nil {
		return nil, err
	}
	reportID, err := s.keep(ctx, id, entity.ReportProduction, q, rep.Result)
	if err != nil {
		return nil, err
	}
	return &ProductionOutput{ReportID: reportID, ProductionResult: rep.Result}, nil
}

func (s *Service) productionQuery(in ProductionInput) (economy.Query, error) {
	if len(in.Countries) == 0 {
		return economy.Query{}, ErrInvalidQuery.WithReason(ReasonEmptyCountries)
	}
	if len(in.Goods) == 0 {
		return economy.Query{}, ErrInvalidQuery.WithReason(ReasonEmptyGoods)
	}
	penalty := s.opts.OverseasPenalty
	if in.OverseasPenalty != nil {
		penalty = *in.OverseasPenalty
	}
	if penalty < 0 || penalty > 1 {
		return economy.Query{}, ErrInvalidQuery.WithReason(ReasonBadPenalty).WithData("overseas_penalty", penalty)
	}
	return economy.Query{Countries: in.Countries, Goods: in.Goods, OverseasPenalty: penalty}, nil
}

// Population 统计所选国家（为空时为全部省份）各人口类型的总数。
func (s *Service) Population(ctx context.Context, id entity.SessionID, in PopulationInput) (*PopulationOutput, error) {
	rep, err := ask[*messages.PopulationReply](ctx, s, &messages.PopulationRequest{
		SessionBase: messages.SessionBase{Session: id},
		Countries:   in.Countries,
	})
	if err != nil {
		return nil, err
	}
	reportID, err := s.keep(ctx, id, entity.ReportPopulation, in, rep.Totals)
	if err != nil {
		return nil, err
	}
	return &PopulationOutput{ReportID: reportID, Totals: rep.Totals}, nil
}

func (s *Service) PopNeeds(ctx context.Context, id entity.SessionID, q economy.PopNeedsQuery) (*PopNeedsOutput, error) {
	switch {
	case strings.TrimSpace(q.Good) == "":
		return nil, ErrInvalidQuery.WithReason(ReasonEmptyGood)
	case q.Plurality < 0 || q.Plurality > 100:
		return nil, ErrInvalidQuery.WithReason(ReasonBadPlurality).WithData("plurality", q.Plurality)
	case q.Inventions != nil && *q.Inventions < 0:
		return nil, ErrInvalidQuery.WithReason(ReasonBadInventions).WithData("inventions", *q.Inventions)
	}
	rep, err := ask[*messages.PopNeedsReply](ctx, s, &messages.PopNeedsRequest{
		SessionBase: messages.SessionBase{Session: id},
		Query:       q,
	})
	if err != nil {
		return nil, err
	}
	reportID, err := s.keep(ctx, id, entity.ReportPopNeeds, q, rep.Needs)
	if err != nil {
		return nil, err
	}
	return &PopNeedsOutput{ReportID: reportID, Good: q.Good, Needs: rep.Needs}, nil
}

func (s *Service) Enemies(ctx context.Context, id entity.SessionID, in EnemiesInput) (*EnemiesOutput, error) {
	if strings.TrimSpace(in.Country) == "" {
		return nil, ErrInvalidQuery.WithReason(ReasonEmptyCountries)
	}
	rep, err := ask[*messages.EnemiesReply](ctx, s, &messages.EnemiesRequest{
		SessionBase: messages.SessionBase{Session: id},
		Country:     in.Country,
	})
	if err != nil {
		return nil, err
	}
	out := &EnemiesOutput{Country: rep.Country, Enemies: rep.Enemies}
	if out.Enemies == nil {
		out.Enemies = []string{}
	}
	reportID, err := s.keep(ctx, id, entity.ReportEnemies, in, out)
	if err != nil {
		return nil, err
	}
	out.ReportID = reportID
	return out, nil
}

// Export 把会话里的存档树导出为 JSON。
func (s *Service) Export(ctx context.Context, id entity.SessionID) ([]byte, error) {
	rep, err := ask[*messages.ExportReply](ctx, s, &messages.ExportRequest{SessionBase: messages.SessionBase{Session: id}})
	if err != nil {
		return nil, err
	}
	return rep.JSON, nil
}

func (s *Service) Report(ctx context.Context, id string) (*entity.Report, error) {
	r, err := s.reports.Get(ctx, id)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, entity.ErrReportNotFound):
		return nil, ErrReportNotFound.WithData("report_id", id)
	default:
		return nil, ErrStoreFailed.WithReason(ReasonReportRepoFailed).WithCause(err)
	}
}

// Reports 列出某个会话的全部报告；会话关闭后报告仍可查。
func (s *Service) Reports(ctx context.Context, id entity.SessionID) ([]*entity.Report, error) {
	list, err := s.reports.ListBySession(ctx, id)
	if err != nil {
		return nil, ErrStoreFailed.WithReason(ReasonReportRepoFailed).WithCause(err)
	}
	return list, nil
}

// keep 为一次查询生成报告并交给写后缓存。
func (s *Service) keep(ctx context.Context, id entity.SessionID, kind entity.ReportKind, params, result any) (string, error) {
	status, err := s.Status(ctx, id)
	if err != nil {
		return "", err
	}
	r, err := entity.NewReport(s.opts.NewID(), status, kind, params, result, s.opts.Clock())
	if err != nil {
		return "", ErrStoreFailed.WithData("kind", string(kind)).WithCause(err)
	}
	s.reports.Put(r)
	return r.ID, nil
}

// ask 向会话发请求并断言回复类型。
func ask[Rep any](ctx context.Context, s *Service, msg messages.SessionMessage) (Rep, error) {
	var zero Rep
	res, err := s.sessions.Ask(ctx, msg)
	if err != nil {
		return zero, mapSessionErr(err, msg.SessionID())
	}
	rep, ok := res.(Rep)
	if !ok {
		return zero, ErrInternal.WithData("reply_type", typeName(res))
	}
	return rep, nil
}

// mapSessionErr 把会话层和计算层的错误翻译成服务错误码。
func mapSessionErr(err error, id entity.SessionID) error {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return ErrSessionNotFound.WithData("session_id", id)
	case errors.Is(err, entity.ErrTooManySessions):
		return ErrTooManySessions
	case errors.Is(err, economy.ErrUnknownCountry):
		return ErrUnknownCountry.WithData("session_id", id).WithCause(err)
	case errors.Is(err, economy.ErrBadStateDefinitions):
		return ErrQueryFailed.WithReason(ReasonBadStateDefs).WithData("session_id", id).WithCause(err)
	}
	if e, ok := errx.As(err); ok {
		// runtime 已经给出超时/不可用
		return e
	}
	return ErrQueryFailed.WithData("session_id", id).WithCause(err)
}

var errSaveTooLarge = errors.New("save exceeds upload limit")

// limitedReader 在超过上限时报错并记下 exceeded，而不是像 io.LimitReader 那样静默截断。
type limitedReader struct {
	r        io.Reader
	left     int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left <= 0 {
		// 正好读满上限时再探一个字节，区分 EOF 和超限
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			l.exceeded = true
			return 0, errSaveTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.left {
		p = p[:l.left]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	return n, err
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
