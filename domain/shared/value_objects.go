package shared

import (
	"errors"
	"fmt"
)

// ErrCurrencyMismatch 不同币种的金额不能运算
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money 值对象 - 表示金额，以最小货币单位存储（如分）
type Money struct {
	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"size:3;not null" json:"currency"`
}

// NewMoney 创建新的Money值对象
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Add 金额相加，返回新的Money值对象
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// IsPositive 金额是否大于零
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Between 是否落在 [min, max] 区间，max 为 0 表示无上限
func (m Money) Between(min, max int64) bool {
	if m.Amount < min {
		return false
	}
	return max <= 0 || m.Amount <= max
}

// Equals 比较两个Money值对象是否相等
func (m Money) Equals(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
