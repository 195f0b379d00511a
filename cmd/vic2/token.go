package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"Vic2Economy/internal/shared/security"
)

// runToken 签发访问 analyzer 的令牌，密钥取环境变量 JWT_SECRET。
func runToken(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	subject := fs.String("subject", "", "调用方标识")
	ttl := fs.Duration("ttl", 24*time.Hour, "有效期")
	scopes := fs.StringSlice("scope", []string{"analysis"}, "可访问的接口组")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *subject == "" {
		return fmt.Errorf("%w: token needs --subject", errUsage)
	}
	tok, err := security.Award(*subject, *ttl, *scopes...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, tok)
	return err
}
