package ledger

import (
	"context"
	"log/slog"

	"github.com/fastprodman/ledgerengine/internal/models"
)

// Reason explains why a record was dropped without changing state.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonAccountLocked         Reason = "account_locked"
	ReasonInvalidAmount         Reason = "invalid_amount"
	ReasonInsufficientFunds     Reason = "insufficient_funds"
	ReasonTransactionNotFound   Reason = "transaction_not_found"
	ReasonNotDisputable         Reason = "not_disputable"
	ReasonInvalidDisputeState   Reason = "invalid_dispute_state"
	ReasonInsufficientAvailable Reason = "insufficient_available"
	ReasonInsufficientHeld      Reason = "insufficient_held"
)

// Diagnostic describes a rejected record. Seq is the 1-based position of the
// record in the engine's input.
type Diagnostic struct {
	Seq    uint64
	Record models.Record
	Reason Reason
	Detail string
}

// Sink receives diagnostics. Implementations must not call back into the engine.
type Sink interface {
	Record(d Diagnostic)
}

type NopSink struct{}

func (NopSink) Record(Diagnostic) {}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Record(d Diagnostic) { f(d) }

// MultiSink fans a diagnostic out to every non-nil sink in order.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}

	return out
}

type multiSink []Sink

func (m multiSink) Record(d Diagnostic) {
	for _, s := range m {
		s.Record(d)
	}
}

// LogSink writes diagnostics to a slog logger at warn level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogSink{logger: logger}
}

func (s *LogSink) Record(d Diagnostic) {
	attrs := []slog.Attr{
		slog.Uint64("seq", d.Seq),
		slog.String("reason", string(d.Reason)),
		slog.String("type", string(d.Record.Kind)),
		slog.Any("client", d.Record.ClientID),
		slog.Any("tx", d.Record.ID),
	}
	if d.Record.HasAmount {
		attrs = append(attrs, slog.String("amount", d.Record.Amount.String()))
	}
	if d.Detail != "" {
		attrs = append(attrs, slog.String("detail", d.Detail))
	}

	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "transaction rejected", attrs...)
}
