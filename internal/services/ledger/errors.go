package ledger

import "fmt"

// ApplyError is returned for conditions that make the rest of the run
// untrustworthy. It pins the failure to a position in the input.
type ApplyError struct {
	Seq    uint64
	TxID   uint32
	Client uint16
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("record %d (tx=%d, client=%d): %v", e.Seq, e.TxID, e.Client, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
