package model

import (
	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

type AccountState int

const (
	OK AccountState = iota
	NonpositiveAccountBalance
	MarginCall
	MarginCallWarning
)

func (s AccountState) String() string {
	switch s {
	case OK:
		return "OK"
	case NonpositiveAccountBalance:
		return "NONPOSITIVE_ACCOUNT_BALANCE"
	case MarginCall:
		return "MARGIN_CALL"
	case MarginCallWarning:
		return "MARGIN_CALL_WARNING"
	default:
		return "UNKNOWN"
	}
}

// AccountProperties configures a simulation run. Use NewAccountProperties,
// which applies documented defaults before any Option overrides them.
type AccountProperties struct {
	AccountBalance     fixed.Point
	Leverage           fixed.Point
	StopOutLevel       fixed.Point
	StopOutWarningLevel fixed.Point
}

type Option func(*AccountProperties)

func WithAccountBalance(balance fixed.Point) Option {
	return func(p *AccountProperties) {
		p.AccountBalance = balance
	}
}

func WithLeverage(leverage fixed.Point) Option {
	return func(p *AccountProperties) {
		p.Leverage = leverage
	}
}

func WithStopOutLevel(level fixed.Point) Option {
	return func(p *AccountProperties) {
		p.StopOutLevel = level
	}
}

func WithStopOutWarningLevel(level fixed.Point) Option {
	return func(p *AccountProperties) {
		p.StopOutWarningLevel = level
	}
}

func NewAccountProperties(opts ...Option) AccountProperties {
	p := AccountProperties{
		AccountBalance:      fixed.FromInt(10000, 0),
		Leverage:            fixed.FromInt(50, 0),
		StopOutLevel:        fixed.FromInt(5, 1),
		StopOutWarningLevel: fixed.FromInt(55, 2),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Results is the terminal output of a simulation run.
type Results struct {
	ExecutionID   utility.RunID
	Balance       fixed.Point
	TotalEquity   fixed.Point
	OpenPositions []Position
	Trades        []Trade
}

func (r Results) Fields() []zap.Field {
	return []zap.Field{
		zap.String("execution_id", r.ExecutionID.String()),
		zap.String("balance", r.Balance.String()),
		zap.String("total_equity", r.TotalEquity.String()),
		zap.Int("open_positions", len(r.OpenPositions)),
		zap.Int("trades", len(r.Trades)),
	}
}
