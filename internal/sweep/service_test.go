package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubExpirer struct {
	counts []int64
	err    error
	calls  int
	lastAt time.Time
}

func (s *stubExpirer) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	s.lastAt = now
	if s.err != nil {
		return 0, s.err
	}
	var count int64
	if s.calls < len(s.counts) {
		count = s.counts[s.calls]
	}
	s.calls++
	return count, nil
}

func TestRunOnceReportsCount(t *testing.T) {
	expirer := &stubExpirer{counts: []int64{3}}
	svc := NewService(expirer, time.Hour, zerolog.Nop())

	expired, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if expired != 3 {
		t.Errorf("esperado 3 vencidas, veio %d", expired)
	}
	if expirer.lastAt.IsZero() {
		t.Error("o instante da varredura deveria ser repassado")
	}
}

func TestRunOnceIdempotent(t *testing.T) {
	expirer := &stubExpirer{counts: []int64{2, 0}}
	svc := NewService(expirer, time.Hour, zerolog.Nop())

	if _, err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("primeira varredura: %v", err)
	}
	expired, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("segunda varredura: %v", err)
	}
	if expired != 0 {
		t.Errorf("segunda varredura não deveria vencer nada, veio %d", expired)
	}
}

func TestRunOncePropagatesError(t *testing.T) {
	wantErr := errors.New("banco fora do ar")
	svc := NewService(&stubExpirer{err: wantErr}, time.Hour, zerolog.Nop())

	if _, err := svc.RunOnce(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("esperado %v, veio %v", wantErr, err)
	}
}

func TestStartIsIdempotentAndStops(t *testing.T) {
	expirer := &stubExpirer{}
	svc := NewService(expirer, 50*time.Millisecond, zerolog.Nop())

	ctx := context.Background()
	svc.Start(ctx)
	svc.Start(ctx)

	time.Sleep(120 * time.Millisecond)
	svc.Stop()

	if expirer.calls < 1 {
		t.Error("o loop deveria ter executado ao menos uma varredura")
	}
}

func TestDefaultIntervalApplied(t *testing.T) {
	svc := NewService(&stubExpirer{}, 0, zerolog.Nop())
	if svc.interval != time.Hour {
		t.Errorf("intervalo padrão deveria ser 1h, veio %s", svc.interval)
	}
}
