package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/otp"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
)

type CodeService interface {
	Send(ctx context.Context, ch models.VerificationChannel, subject string) (string, error)
	Verify(ctx context.Context, ch models.VerificationChannel, subject, code string) (string, error)
}

// VerificationService gates checkout behind one time codes and records
// verified contacts on the session.
type VerificationService struct {
	OTP CodeService
}

func otpError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidSubject):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, otp.ErrInvalidCode):
		return ErrInvalidOTP
	case errors.Is(err, otp.ErrDispatch), errors.Is(err, otp.ErrNoSender):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return err
}

func (v *VerificationService) SendEmail(ctx context.Context, email string) error {
	_, err := v.OTP.Send(ctx, models.ChannelEmail, email)
	if err != nil {
		return otpError(err)
	}
	return nil
}

func (v *VerificationService) VerifyEmail(ctx context.Context, s *session.Session, email, code string) error {
	subject, err := v.OTP.Verify(ctx, models.ChannelEmail, email, code)
	if err != nil {
		return otpError(err)
	}
	s.VerifiedEmail = subject
	s.Touch()
	return nil
}

func phoneChannel(name string) (models.VerificationChannel, error) {
	switch models.VerificationChannel(name) {
	case "", models.ChannelSMS:
		return models.ChannelSMS, nil
	case models.ChannelWhatsApp:
		return models.ChannelWhatsApp, nil
	}
	return "", fmt.Errorf("%w: unknown channel %q", ErrValidation, name)
}

func (v *VerificationService) SendPhone(ctx context.Context, channel, phone string) error {
	ch, err := phoneChannel(channel)
	if err != nil {
		return err
	}
	if _, err := v.OTP.Send(ctx, ch, phone); err != nil {
		return otpError(err)
	}
	return nil
}

func (v *VerificationService) VerifyPhone(ctx context.Context, s *session.Session, channel, phone, code string) error {
	ch, err := phoneChannel(channel)
	if err != nil {
		return err
	}
	subject, err := v.OTP.Verify(ctx, ch, phone, code)
	if err != nil {
		return otpError(err)
	}
	s.VerifiedPhone = subject
	s.Touch()
	return nil
}
