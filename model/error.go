// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"fmt"
)

// ValidationError は入力値のバリデーションエラーを表す型
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// PersistenceError はストアへの読み書きに失敗したことを表す型
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError はPersistenceErrorを生成します。errがnilの場合はnilを返します。
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// ConfigurationError は起動時の設定不備を表す型
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Message)
}

// NewConfigurationError はConfigurationErrorを生成するヘルパー関数
func NewConfigurationError(key, msg string) error {
	return &ConfigurationError{Key: key, Message: msg}
}

// IsValidationError はerrのチェーンにValidationErrorが含まれるかを返します。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistenceError はerrのチェーンにPersistenceErrorが含まれるかを返します。
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
