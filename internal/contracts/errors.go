package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError 설정 오류 (즉시 중단, 재시도 없음)
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError builds a ConfigurationError with a formatted message
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DataQualityError 종목 단위 데이터 품질 오류 (해당 종목만 제외)
type DataQualityError struct {
	Ticker  string
	Date    time.Time
	Message string
}

func (e *DataQualityError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("data quality error: %s: %s", e.Ticker, e.Message)
	}
	return fmt.Sprintf("data quality error: %s on %s: %s", e.Ticker, e.Date.Format("2006-01-02"), e.Message)
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsDataQualityError reports whether err wraps a DataQualityError
func IsDataQualityError(err error) bool {
	var target *DataQualityError
	return errors.As(err, &target)
}
