package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Expirer executa a transição em massa das iniciativas vencidas.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Service roda a varredura periódica de expiração. Falhas são logadas e
// nunca interrompem as varreduras seguintes.
type Service struct {
	expirer  Expirer
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	once   sync.Once
	cancel context.CancelFunc
}

func NewService(expirer Expirer, interval time.Duration, logger zerolog.Logger) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start inicia o loop periódico. Safe para chamar múltiplas vezes.
func (s *Service) Start(parent context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop encerra o loop periódico.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("sweep: loop iniciado")

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sweep: primeira varredura falhou")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweep: loop encerrado")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep: varredura periódica falhou")
			}
		}
	}
}

// RunOnce executa uma varredura e reporta quantas iniciativas venceram.
func (s *Service) RunOnce(ctx context.Context) (int64, error) {
	expired, err := s.expirer.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info().Int64("expired", expired).Msg("sweep: iniciativas vencidas")
	}
	return expired, nil
}
