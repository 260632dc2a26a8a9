package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/config"
)

// Sender delivers a single notification job.
type Sender interface {
	Send(ctx context.Context, job *Job) error
}

// LogSender writes notification contents to the log instead of calling a
// mail provider. Production deployments swap in a real implementation.
type LogSender struct {
	cfg    config.NotifyConfig
	logger *zap.Logger
}

// NewLogSender builds the stub sender.
func NewLogSender(cfg config.NotifyConfig, logger *zap.Logger) *LogSender {
	return &LogSender{cfg: cfg, logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, job *Job) error {
	switch job.Kind {
	case KindVerification:
		s.logger.Info("sending verification email",
			zap.String("from", s.cfg.EmailFrom),
			zap.String("to", job.Recipient),
			zap.String("url", fmt.Sprintf("%s/verify-email?token=%s", s.cfg.BaseURL, job.Data["token"])))
	case KindPasswordReset:
		s.logger.Info("sending password reset email",
			zap.String("from", s.cfg.EmailFrom),
			zap.String("to", job.Recipient),
			zap.String("url", fmt.Sprintf("%s/reset-password?token=%s", s.cfg.BaseURL, job.Data["token"])))
	case KindWelcome:
		s.logger.Info("sending welcome email",
			zap.String("from", s.cfg.EmailFrom),
			zap.String("to", job.Recipient))
	default:
		return fmt.Errorf("unknown notification kind: %s", job.Kind)
	}
	return nil
}
