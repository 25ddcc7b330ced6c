package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed submission
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindValidation    ErrorKind = "validation"
	KindEncryption    ErrorKind = "encryption"
	KindNetwork       ErrorKind = "network"
	KindAborted       ErrorKind = "aborted"
	KindRejected      ErrorKind = "rejected"
	KindParse         ErrorKind = "parse"
	KindInternal      ErrorKind = "internal"
)

// ConfigurationError represents a missing or placeholder credential.
// It is always raised before any network activity.
type ConfigurationError struct {
	Vendor  Vendor
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Vendor, e.Field, e.Message)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(vendor Vendor, field, message string) *ConfigurationError {
	return &ConfigurationError{
		Vendor:  vendor,
		Field:   field,
		Message: message,
	}
}

// EncryptionError represents cipher or signature generation faults
type EncryptionError struct {
	Vendor  Vendor
	Op      string
	Message string
	Cause   error
}

func (e *EncryptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Vendor, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Vendor, e.Op, e.Message)
}

func (e *EncryptionError) Unwrap() error {
	return e.Cause
}

// NewEncryptionError creates a new encryption error
func NewEncryptionError(vendor Vendor, op, message string, cause error) *EncryptionError {
	return &EncryptionError{
		Vendor:  vendor,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError represents timeouts, connection failures and explicit aborts
type NetworkError struct {
	Vendor  Vendor
	Op      string
	Message string
	Timeout bool
	Aborted bool
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Vendor, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Vendor, e.Op, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a new network error
func NewNetworkError(vendor Vendor, op, message string, cause error) *NetworkError {
	return &NetworkError{
		Vendor:  vendor,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// VendorRejection is a well-formed response carrying a business failure code
type VendorRejection struct {
	Vendor  Vendor
	Code    string
	Message string
}

func (e *VendorRejection) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] rejected %s: %s", e.Vendor, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] rejected: %s", e.Vendor, e.Message)
}

// NewVendorRejection creates a new vendor rejection
func NewVendorRejection(vendor Vendor, code, message string) *VendorRejection {
	return &VendorRejection{
		Vendor:  vendor,
		Code:    code,
		Message: message,
	}
}

// ParseError represents malformed or unexpected vendor responses
type ParseError struct {
	Vendor  Vendor
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Vendor, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Vendor, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(vendor Vendor, field, message string, cause error) *ParseError {
	return &ParseError{
		Vendor:  vendor,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError represents invoice validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// KindOf classifies err into the error taxonomy
func KindOf(err error) ErrorKind {
	var (
		cfgErr   *ConfigurationError
		valErr   *ValidationError
		encErr   *EncryptionError
		netErr   *NetworkError
		rejErr   *VendorRejection
		parseErr *ParseError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &valErr):
		return KindValidation
	case errors.As(err, &encErr):
		return KindEncryption
	case errors.As(err, &netErr):
		if netErr.Aborted {
			return KindAborted
		}
		return KindNetwork
	case errors.As(err, &rejErr):
		return KindRejected
	case errors.As(err, &parseErr):
		return KindParse
	}
	return KindInternal
}

// Message returns the user facing text of err.
// Vendor rejections surface the vendor message verbatim.
func Message(err error) string {
	var rejErr *VendorRejection
	if errors.As(err, &rejErr) && rejErr.Message != "" {
		return rejErr.Message
	}
	return err.Error()
}
