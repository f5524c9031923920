package ledger

import (
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/repos/transactions"
	"github.com/shopspring/decimal"
)

// Outcome is the result of applying a single record. Applied is false for
// every no-op, with Reason naming the rule that rejected the record.
type Outcome struct {
	Applied bool
	Reason  Reason
}

func applied() (Outcome, error) {
	return Outcome{Applied: true}, nil
}

// Stats counts what the engine did so far.
type Stats struct {
	Records  uint64
	Applied  map[models.Kind]uint64
	Rejected map[Reason]uint64
}

// RejectedTotal sums rejections over all reasons.
func (s Stats) RejectedTotal() uint64 {
	var n uint64
	for _, c := range s.Rejected {
		n += c
	}

	return n
}

// Engine applies transaction records to client accounts.
//
// Records must be applied one at a time in input order: a dispute depends on
// the deposit it references, and a chargeback must lock the account before
// the next record for that client is looked at. Engine is not safe for
// concurrent use.
type Engine struct {
	accounts map[uint16]*models.Account
	txns     transactions.Transactions
	sink     Sink

	seq      uint64
	applied  map[models.Kind]uint64
	rejected map[Reason]uint64
}

// New returns an engine backed by store. A nil sink discards diagnostics.
func New(store transactions.Transactions, sink Sink) *Engine {
	if sink == nil {
		sink = NopSink{}
	}

	return &Engine{
		accounts: make(map[uint16]*models.Account),
		txns:     store,
		sink:     sink,
		applied:  make(map[models.Kind]uint64),
		rejected: make(map[Reason]uint64),
	}
}

// Apply runs one record through the state machine.
//
// The returned error is non-nil only for fatal conditions (a duplicate
// transaction id); such errors are *ApplyError and leave state untouched.
// Every other rejection is reported through Outcome and the sink.
func (e *Engine) Apply(record models.Record) (Outcome, error) {
	e.seq++

	// A locked account is inert.
	if acc, ok := e.accounts[record.ClientID]; ok && acc.Locked {
		return e.reject(record, ReasonAccountLocked, "")
	}

	var (
		out Outcome
		err error
	)

	switch record.Kind {
	case models.KindDeposit:
		out, err = e.deposit(record)
	case models.KindWithdrawal:
		out, err = e.withdraw(record)
	case models.KindDispute:
		out, err = e.dispute(record)
	case models.KindResolve:
		out, err = e.resolve(record)
	case models.KindChargeback:
		out, err = e.chargeback(record)
	default:
		return Outcome{}, e.fatal(record, fmt.Errorf("%w: %q", models.ErrUnknownKind, record.Kind))
	}

	if err != nil {
		return Outcome{}, err
	}

	if out.Applied {
		e.applied[record.Kind]++
	}

	return out, nil
}

// ApplyBatch applies records in slice order and stops at the first fatal error.
func (e *Engine) ApplyBatch(records []models.Record) error {
	for _, record := range records {
		_, err := e.Apply(record)
		if err != nil {
			return err
		}
	}

	return nil
}

// Accounts returns a copy of every known account in no particular order.
func (e *Engine) Accounts() []models.Account {
	out := make([]models.Account, 0, len(e.accounts))
	for _, acc := range e.accounts {
		out = append(out, *acc)
	}

	return out
}

func (e *Engine) Account(clientID uint16) (models.Account, bool) {
	acc, ok := e.accounts[clientID]
	if !ok {
		return models.Account{}, false
	}

	return *acc, true
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Records:  e.seq,
		Applied:  make(map[models.Kind]uint64, len(e.applied)),
		Rejected: make(map[Reason]uint64, len(e.rejected)),
	}
	for k, v := range e.applied {
		s.Applied[k] = v
	}
	for k, v := range e.rejected {
		s.Rejected[k] = v
	}

	return s
}

func (e *Engine) deposit(record models.Record) (Outcome, error) {
	if !record.HasAmount {
		return e.reject(record, ReasonInvalidAmount, "missing amount")
	}

	err := models.ValidateAmount(record.Amount)
	if err != nil {
		return e.reject(record, ReasonInvalidAmount, err.Error())
	}

	// Store first so a duplicate id never leaves a half-applied deposit behind.
	err = e.txns.Insert(record)
	if err != nil {
		return Outcome{}, e.fatal(record, err)
	}

	acc := e.account(record.ClientID)
	acc.Available = acc.Available.Add(record.Amount)

	return applied()
}

func (e *Engine) withdraw(record models.Record) (Outcome, error) {
	if !record.HasAmount {
		return e.reject(record, ReasonInvalidAmount, "missing amount")
	}

	err := models.ValidateAmount(record.Amount)
	if err != nil {
		return e.reject(record, ReasonInvalidAmount, err.Error())
	}

	available := decimal.Zero
	if acc, ok := e.accounts[record.ClientID]; ok {
		available = acc.Available
	}

	if available.LessThan(record.Amount) {
		// The client is known from now on even though nothing moved.
		e.account(record.ClientID)

		return e.reject(record, ReasonInsufficientFunds,
			fmt.Sprintf("available %s", available.StringFixed(models.AmountPlaces)))
	}

	err = e.txns.Insert(record)
	if err != nil {
		return Outcome{}, e.fatal(record, err)
	}

	acc := e.account(record.ClientID)
	acc.Available = acc.Available.Sub(record.Amount)

	return applied()
}

func (e *Engine) dispute(record models.Record) (Outcome, error) {
	ref, ok := e.txns.GetForClient(record.ID, record.ClientID)
	if !ok {
		return e.reject(record, ReasonTransactionNotFound, "")
	}

	// Holding a withdrawal would move money the client no longer has.
	if ref.Kind != models.KindDeposit {
		return e.reject(record, ReasonNotDisputable, fmt.Sprintf("referenced %s", ref.Kind))
	}

	if ref.DisputeStatus != models.DisputeNone {
		return e.reject(record, ReasonInvalidDisputeState, fmt.Sprintf("status %s", ref.DisputeStatus))
	}

	acc := e.account(record.ClientID)
	if acc.Available.LessThan(ref.Amount) {
		return e.reject(record, ReasonInsufficientAvailable,
			fmt.Sprintf("available %s, disputed %s", acc.Available.StringFixed(models.AmountPlaces), ref.Amount))
	}

	err := e.txns.SetDisputeStatus(ref.ID, models.DisputeDisputed)
	if err != nil {
		return Outcome{}, e.fatal(record, err)
	}

	acc.Available = acc.Available.Sub(ref.Amount)
	acc.Held = acc.Held.Add(ref.Amount)

	return applied()
}

func (e *Engine) resolve(record models.Record) (Outcome, error) {
	ref, acc, out, ok := e.disputed(record)
	if !ok {
		return out, nil
	}

	err := e.txns.SetDisputeStatus(ref.ID, models.DisputeResolved)
	if err != nil {
		return Outcome{}, e.fatal(record, err)
	}

	acc.Held = acc.Held.Sub(ref.Amount)
	acc.Available = acc.Available.Add(ref.Amount)

	return applied()
}

func (e *Engine) chargeback(record models.Record) (Outcome, error) {
	ref, acc, out, ok := e.disputed(record)
	if !ok {
		return out, nil
	}

	err := e.txns.SetDisputeStatus(ref.ID, models.DisputeChargedBack)
	if err != nil {
		return Outcome{}, e.fatal(record, err)
	}

	acc.Held = acc.Held.Sub(ref.Amount)
	acc.Locked = true

	return applied()
}

// disputed resolves the record referenced by a resolve or chargeback and
// checks it is currently under dispute. When ok is false the rejection has
// already been reported and out holds it.
func (e *Engine) disputed(record models.Record) (ref models.Record, acc *models.Account, out Outcome, ok bool) {
	ref, found := e.txns.GetForClient(record.ID, record.ClientID)
	if !found {
		out, _ = e.reject(record, ReasonTransactionNotFound, "")
		return ref, nil, out, false
	}

	if ref.DisputeStatus != models.DisputeDisputed {
		out, _ = e.reject(record, ReasonInvalidDisputeState, fmt.Sprintf("status %s", ref.DisputeStatus))
		return ref, nil, out, false
	}

	acc = e.account(record.ClientID)
	if acc.Held.LessThan(ref.Amount) {
		out, _ = e.reject(record, ReasonInsufficientHeld,
			fmt.Sprintf("held %s, disputed %s", acc.Held.StringFixed(models.AmountPlaces), ref.Amount))
		return ref, nil, out, false
	}

	return ref, acc, Outcome{}, true
}

func (e *Engine) account(clientID uint16) *models.Account {
	acc, ok := e.accounts[clientID]
	if !ok {
		acc = models.NewAccount(clientID)
		e.accounts[clientID] = acc
	}

	return acc
}

func (e *Engine) reject(record models.Record, reason Reason, detail string) (Outcome, error) {
	e.rejected[reason]++
	e.sink.Record(Diagnostic{
		Seq:    e.seq,
		Record: record,
		Reason: reason,
		Detail: detail,
	})

	return Outcome{Reason: reason}, nil
}

func (e *Engine) fatal(record models.Record, err error) error {
	return &ApplyError{
		Seq:    e.seq,
		TxID:   record.ID,
		Client: record.ClientID,
		Err:    err,
	}
}
