// Package otp issues and checks one time codes that prove control of an
// email address or phone number.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/notify"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
)

const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
	codeDigits         = 6
)

var (
	ErrInvalidSubject = errors.New("invalid subject")
	ErrInvalidCode    = errors.New("invalid or expired OTP")
	ErrDispatch       = errors.New("could not send OTP")
	ErrNoSender       = errors.New("no sender for channel")
)

// Sender delivers a code to a subject over one channel.
type Sender interface {
	SendCode(ctx context.Context, subject, code string) error
}

type Store interface {
	UpsertCode(ctx context.Context, code *models.VerificationCode) error
	GetCode(ctx context.Context, channel models.VerificationChannel, subject string) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	ConsumeCode(ctx context.Context, id uint) (bool, error)
}

type Service struct {
	Store       Store
	Senders     map[models.VerificationChannel]Sender
	TTL         time.Duration
	MaxAttempts int
	HashCost    int
	Now         func() time.Time
	Rand        io.Reader
}

func NewService(store Store, senders map[models.VerificationChannel]Sender) *Service {
	return &Service{
		Store:       store,
		Senders:     senders,
		TTL:         DefaultTTL,
		MaxAttempts: DefaultMaxAttempts,
		HashCost:    bcrypt.DefaultCost,
		Now:         time.Now,
		Rand:        rand.Reader,
	}
}

// Send dispatches a fresh code and, only once delivery succeeded, stores it
// in place of any earlier pending code. It returns the normalised subject.
func (s *Service) Send(ctx context.Context, ch models.VerificationChannel, subject string) (string, error) {
	subject, err := NormalizeSubject(ch, subject)
	if err != nil {
		return "", err
	}
	sender, ok := s.Senders[ch]
	if !ok || sender == nil {
		return "", fmt.Errorf("%w: %s", ErrNoSender, ch)
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if err := sender.SendCode(ctx, subject, code); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	rec := &models.VerificationCode{
		Channel:   ch,
		Subject:   subject,
		CodeHash:  string(hash),
		ExpiresAt: s.Now().Add(s.TTL).UTC(),
	}
	if err := s.Store.UpsertCode(ctx, rec); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return subject, nil
}

// Verify redeems a code. Every kind of failure returns ErrInvalidCode.
func (s *Service) Verify(ctx context.Context, ch models.VerificationChannel, subject, code string) (string, error) {
	subject, err := NormalizeSubject(ch, subject)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if len(code) != codeDigits {
		return "", ErrInvalidCode
	}

	rec, err := s.Store.GetCode(ctx, ch, subject)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", ErrInvalidCode
		}
		return "", fmt.Errorf("load code: %w", err)
	}

	if rec.IsVerified || !s.Now().Before(rec.ExpiresAt) || rec.Attempts >= s.MaxAttempts {
		return "", ErrInvalidCode
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		if err := s.Store.IncrementAttempts(ctx, rec.ID); err != nil {
			return "", fmt.Errorf("count attempt: %w", err)
		}
		return "", ErrInvalidCode
	}

	consumed, err := s.Store.ConsumeCode(ctx, rec.ID)
	if err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	if !consumed {
		return "", ErrInvalidCode
	}
	return subject, nil
}

func (s *Service) generate() (string, error) {
	n, err := rand.Int(s.Rand, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func NormalizeSubject(ch models.VerificationChannel, subject string) (string, error) {
	switch ch {
	case models.ChannelEmail:
		email := strings.ToLower(strings.TrimSpace(subject))
		if email == "" || !strings.Contains(email, "@") {
			return "", fmt.Errorf("%w: valid email required", ErrInvalidSubject)
		}
		return email, nil
	case models.ChannelSMS, models.ChannelWhatsApp:
		phone, err := notify.NormalizePhone(subject)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidSubject, err)
		}
		return phone, nil
	default:
		return "", fmt.Errorf("%w: unknown channel %q", ErrInvalidSubject, ch)
	}
}
