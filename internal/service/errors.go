package service

import "errors"

var (
	ErrValidation       = errors.New("validation")
	ErrNotFound         = errors.New("not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrEmailNotVerified = errors.New("please verify your email first")
	ErrIntegrity        = errors.New("security verification failed")
	ErrUpstream         = errors.New("upstream provider failed")
	ErrInvalidOTP       = errors.New("invalid or expired OTP")
)
