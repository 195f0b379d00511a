package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/actor"
	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/dc"
	"Vic2Economy/internal/analysis/infra/persistence"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/queryplan"
	"Vic2Economy/internal/refdata"
	"Vic2Economy/internal/shared/logs"
	"Vic2Economy/internal/shared/serverconfig"
)

// CLI 读本地文件，上限比服务端宽松
const cliMaxUploadMB = 2048

// runQuery 按 HCL 计划解码一份存档，逐个执行生产查询并打印表格。
// 每个查询的结果作为报告存下来，store 块未配置时只存在内存里。
func runQuery(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
	planPath := fs.String("plan", "", "HCL 查询计划")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *planPath == "" {
		return fmt.Errorf("%w: query needs --plan", errUsage)
	}

	plan, err := queryplan.ParseFile(*planPath)
	if err != nil {
		return err
	}
	if plan.Bundle == "" {
		return fmt.Errorf("%w: plan %s has no bundle", queryplan.ErrInvalidPlan, *planPath)
	}
	bundle, err := refdata.Load(plan.Bundle)
	if err != nil {
		return err
	}

	storage := serverconfig.StorageConfig{Driver: serverconfig.StorageMemory}
	if plan.Store != nil && plan.Store.Driver == serverconfig.StorageSQLite {
		storage = serverconfig.StorageConfig{Driver: serverconfig.StorageSQLite, SQLite: serverconfig.SQLiteConfig{Path: plan.Store.Path}}
	}
	repo, closeRepo, err := persistence.OpenReportRepo(storage, logs.Port())
	if err != nil {
		return err
	}
	defer closeRepo()
	reports := dc.NewReportDC(repo, 0, logs.Port())
	defer func() {
		if err := reports.Close(ctx); err != nil {
			logs.Error("flush reports failed", zap.Error(err))
		}
	}()

	runtime := actor.NewRuntime(actor.Options{})
	defer runtime.Shutdown()

	svc := app.NewService(bundle, runtime, reports, logs.Port(), app.Options{
		Decode:          serverconfig.DecodeConfig{Encoding: plan.Encoding, MaxUploadMB: cliMaxUploadMB},
		OverseasPenalty: economy.DefaultOverseasPenalty,
	})

	f, err := os.Open(plan.Save)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	status, err := svc.Decode(ctx, app.DecodeInput{FileName: filepath.Base(plan.Save), Size: st.Size(), Reader: f}, nil)
	if err != nil {
		return err
	}
	logs.Info("save loaded",
		zap.String("file", status.FileName),
		zap.String("size", humanize.Bytes(uint64(max(status.Bytes, 0)))),
		zap.Int("provinces", status.Provinces),
		zap.Duration("took", status.Duration))

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "QUERY\tCOUNTRY\tGOOD\tOUTPUT\tREPORT")
	var errs []error
	for _, q := range plan.Queries {
		eq := q.EconomyQuery(economy.DefaultOverseasPenalty)
		out, err := svc.Production(ctx, status.SessionID, app.ProductionInput{
			Countries:       eq.Countries,
			Goods:           eq.Goods,
			OverseasPenalty: &eq.OverseasPenalty,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("query %s: %w", q.Name, err))
			continue
		}
		for _, c := range eq.Countries {
			for _, g := range eq.Goods {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.Name, c, g, humanize.FormatFloat("#,###.####", out.Output[c][g]), out.ReportID)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
