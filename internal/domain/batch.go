package domain

import "math/big"

// BatchStatus is the executor's externally visible state. Transitions are
// strictly forward: PREPARING -> CHECKING_BALANCE -> (APPROVING) ->
// EXECUTING -> CONFIRMING -> terminal.
type BatchStatus string

const (
	BatchPreparing       BatchStatus = "PREPARING"
	BatchCheckingBalance BatchStatus = "CHECKING_BALANCE"
	BatchApproving       BatchStatus = "APPROVING"
	BatchExecuting       BatchStatus = "EXECUTING"
	BatchConfirming      BatchStatus = "CONFIRMING"
	BatchConfirmed       BatchStatus = "CONFIRMED"
	BatchFailed          BatchStatus = "FAILED"

	// BatchRejected means the user declined the wallet prompt. Distinct from
	// FAILED so callers can render it as a non-alarming outcome.
	BatchRejected BatchStatus = "REJECTED"

	// BatchTimeout means the attempt budget was exhausted while the bundle
	// was still pending. The batch may still confirm later; the caller should
	// advise checking the wallet rather than assume loss of funds.
	BatchTimeout BatchStatus = "CONFIRMATION_TIMEOUT"
)

// Terminal reports whether the status ends the batch lifecycle.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchConfirmed, BatchFailed, BatchRejected, BatchTimeout:
		return true
	default:
		return false
	}
}

// Call is one entry in a wallet_sendCalls batch.
type Call struct {
	To    string
	Value *big.Int
	Data  []byte
}

// BatchRequest is the EIP-5792 wallet_sendCalls parameter object.
type BatchRequest struct {
	Version        string
	From           string
	ChainID        int64
	Calls          []Call
	AtomicRequired bool
	PaymasterURL   string // optional gas sponsorship capability
}

// Receipt is one transaction receipt returned by wallet_getCallsStatus.
type Receipt struct {
	TransactionHash string
	Status          string
	GasUsed         uint64
}

// CallsStatus is the wallet_getCallsStatus response, reduced to the fields
// the executor acts on.
type CallsStatus struct {
	Pending   bool
	Confirmed bool
	Failed    bool
	Receipts  []Receipt
}

// BatchExecutionResult is the outcome of one batch submission. It lives only
// for the duration of the submission; it is not persisted. On partial
// outcomes (timeout, failure after submission) BundleID survives so the user
// can investigate independently of this client.
type BatchExecutionResult struct {
	BundleID string
	Status   BatchStatus
	TxHash   string // last receipt's hash: the final leg executed
	Err      string
}
