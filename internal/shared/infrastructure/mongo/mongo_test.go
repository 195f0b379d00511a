package mongo

import (
	"errors"
	"testing"

	"Vic2Economy/internal/shared/serverconfig"
)

func TestOpen_空URI直接失败(t *testing.T) {
	if _, _, err := Open(serverconfig.MongoDBConfig{}, nil); !errors.Is(err, ErrEmptyURI) {
		t.Fatalf("期望 ErrEmptyURI, got=%v", err)
	}
}
