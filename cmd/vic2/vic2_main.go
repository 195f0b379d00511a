package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"Vic2Economy/internal/shared/logs"
	"Vic2Economy/internal/shared/serverconfig"
)

var errUsage = errors.New("usage")

const usage = `用法:
  vic2 export [--merge] [-o out.json] [--encoding windows-1252] <file>...
  vic2 query --plan plan.hcl
  vic2 token --subject name [--ttl 24h] [--scope analysis]
`

func main() {
	if _, err := logs.Init("vic2", serverconfig.LogConfig{Level: os.Getenv("VIC2_LOG_LEVEL"), Dev: true}); err != nil {
		panic(err)
	}
	defer logs.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logs.Error("vic2 failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stdout, usage)
		return errUsage
	}
	switch args[0] {
	case "export":
		return runExport(args[1:], stdout)
	case "query":
		return runQuery(ctx, args[1:], stdout)
	case "token":
		return runToken(args[1:], stdout)
	case "-h", "--help", "help":
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	default:
		_, _ = fmt.Fprint(stdout, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}
