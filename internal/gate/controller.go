// internal/gate/controller.go
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/payments"
)

type State string

const (
	StateChecking        State = "checking_access"
	StateGranted         State = "granted"
	StatePaymentRequired State = "payment_required"
	StatePaying          State = "paying"
	StateNotFound        State = "not_found"
)

// MonthlyAccessWindow is how long a monthly payment stays valid.
const MonthlyAccessWindow = 30 * 24 * time.Hour

// PayHint explains why the pay action is disabled. These are states, not
// errors: the prompt renders a "setting up" message instead of failing.
type PayHint string

const (
	PayHintIdentityUnavailable PayHint = "identity_unavailable"
	PayHintSigningUnavailable  PayHint = "signing_unavailable"
)

var (
	// ErrPaymentInFlight: a second pay action arrived while one was
	// already running. The caller ignores it; at most one attempt runs
	// per gate instance.
	ErrPaymentInFlight = errors.New("payment already in progress")
	// ErrNotPayable: the gate is not in a state that accepts payment.
	ErrNotPayable = errors.New("gate is not awaiting payment")
	// ErrIdentityUnavailable: no viewer identity to pay with.
	ErrIdentityUnavailable = errors.New("viewer identity unavailable")
)

// Status is the externally visible snapshot of a gate.
type Status struct {
	State        State                  `json:"state"`
	Descriptor   *Descriptor            `json:"descriptor,omitempty"`
	Decision     *Decision              `json:"decision,omitempty"`
	PayAvailable bool                   `json:"pay_available"`
	PayHint      PayHint                `json:"pay_hint,omitempty"`
	Warning      string                 `json:"warning,omitempty"`
	TxRef        string                 `json:"tx_ref,omitempty"`
	PaymentError *payments.PaymentError `json:"-"`
}

// Deps are the collaborators a Controller orchestrates. All of them are
// injected so tests can substitute in-memory fakes; nothing here reaches
// for ambient singletons.
type Deps struct {
	Content  ContentStore
	Records  PaymentRecordStore
	Local    LocalStore
	Executor payments.Executor
	Mode     payments.Mode
	Now      func() time.Time
	Log      logrus.FieldLogger
}

// Controller drives one viewer's access to one piece of content through
// CheckingAccess -> {Granted, PaymentRequired, NotFound} and
// PaymentRequired -> Paying -> {Granted, PaymentRequired(with error)}.
// Granted is sticky: re-entering the gate in the same session never
// re-prompts.
type Controller struct {
	deps   Deps
	kind   models.ContentType
	id     string
	viewer identity.Identity

	mu       sync.Mutex
	state    State
	desc     *Descriptor
	decision Decision
	paying   bool
	warning  string
	txRef    string
	payErr   *payments.PaymentError
}

func NewController(deps Deps, kind models.ContentType, contentID string, viewer identity.Identity) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Mode == "" {
		deps.Mode = payments.ModeToken
	}
	return &Controller{
		deps:   deps,
		kind:   kind,
		id:     contentID,
		viewer: viewer,
		state:  StateChecking,
	}
}

// Idle reports whether no payment is in flight. An idle controller can be
// dropped and later rebuilt from the durable records.
func (c *Controller) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.paying
}

// Resolve loads the descriptor and evaluates access. It settles to
// Granted, PaymentRequired, or NotFound without user input. Transient
// collaborator failures on the record lookups degrade to "no record"
// rather than blocking the content check.
func (c *Controller) Resolve(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.state == StateGranted || c.state == StateNotFound {
		defer c.mu.Unlock()
		return c.snapshotLocked(ctx), nil
	}
	c.state = StateChecking
	c.mu.Unlock()

	desc, err := c.deps.Content.GetContent(ctx, c.kind, c.id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.state = StateNotFound
			return c.snapshotLocked(ctx), nil
		}
		return Status{}, fmt.Errorf("load content %s/%s: %w", c.kind, c.id, err)
	}
	if ctx.Err() != nil {
		// Gate is gone; do not apply the late result.
		return Status{}, ctx.Err()
	}

	now := c.deps.Now()
	remote := c.lookupRemote(ctx, now)
	local := c.lookupLocal()

	decision := Evaluate(*desc, c.viewer, remote, local, now)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc = desc
	c.decision = decision
	if decision.Granted {
		c.state = StateGranted
	} else {
		c.state = StatePaymentRequired
	}
	return c.snapshotLocked(ctx), nil
}

// Pay runs one payment attempt. A concurrent call while an attempt is in
// flight returns ErrPaymentInFlight and changes nothing.
func (c *Controller) Pay(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.state == StateGranted {
		defer c.mu.Unlock()
		return c.snapshotLocked(ctx), nil
	}
	if c.paying {
		defer c.mu.Unlock()
		return c.snapshotLocked(ctx), ErrPaymentInFlight
	}
	if c.state != StatePaymentRequired || c.decision.Terms == nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(ctx), ErrNotPayable
	}
	if !c.viewer.Present() {
		defer c.mu.Unlock()
		return c.snapshotLocked(ctx), ErrIdentityUnavailable
	}
	terms := *c.decision.Terms
	desc := *c.desc
	c.paying = true
	c.state = StatePaying
	c.payErr = nil
	c.mu.Unlock()

	txRef, err := c.deps.Executor.Execute(ctx, c.viewer, identity.Wallet(terms.Recipient), terms.Amount, c.deps.Mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.paying = false

	if ctx.Err() != nil {
		// Caller navigated away mid-payment; discard the outcome silently.
		c.state = StatePaymentRequired
		return Status{}, ctx.Err()
	}

	if err != nil {
		c.state = StatePaymentRequired
		if pe, ok := payments.AsPaymentError(err); ok {
			c.payErr = pe
		} else {
			c.payErr = &payments.PaymentError{Kind: payments.ErrExecutionFailed, Err: err}
		}
		return c.snapshotLocked(ctx), nil
	}

	c.txRef = txRef
	c.settleLocked(ctx, desc, txRef)
	return c.snapshotLocked(ctx), nil
}

// settleLocked records a successful payment and re-evaluates. Funds have
// already moved, so a record-store failure must not lock the viewer out:
// it falls back to a local record and a non-blocking warning.
func (c *Controller) settleLocked(ctx context.Context, desc Descriptor, txRef string) {
	now := c.deps.Now()

	remote := &RemoteRecord{Member: true}
	var local *LocalRecord

	if err := c.deps.Records.RecordPayment(ctx, desc, c.viewer, txRef, now); err != nil {
		c.deps.Log.WithError(err).WithFields(logrus.Fields{
			"content_id": desc.ID,
			"viewer":     c.viewer.Address,
		}).Warn("payment record write failed, keeping local fallback record")

		remote = nil
		record := LocalRecord{
			ContentID: desc.ID,
			ViewMode:  desc.ViewMode,
			Amount:    desc.Amount,
			TxRef:     txRef,
			PaidAt:    now,
		}
		if desc.ViewMode == models.ViewModeMonthly {
			expires := now.Add(MonthlyAccessWindow)
			record.ExpiresAt = &expires
		}
		if putErr := c.deps.Local.Put(c.viewer, record); putErr != nil {
			c.deps.Log.WithError(putErr).Warn("local payment record write failed")
		}
		local = &record
		c.warning = "payment succeeded but the record could not be synced; access is kept locally"
	}

	c.decision = Evaluate(desc, c.viewer, remote, local, now)
	if !c.decision.Granted {
		// Funds moved; never re-prompt in this session.
		c.decision = Decision{Granted: true, Reason: ReasonLocalRecord}
	}
	c.state = StateGranted
}

func (c *Controller) lookupRemote(ctx context.Context, now time.Time) *RemoteRecord {
	if !c.viewer.Present() {
		return nil
	}
	paid, err := c.deps.Records.IsPaid(ctx, c.kind, c.id, c.viewer, now)
	if err != nil {
		c.deps.Log.WithError(err).WithField("content_id", c.id).Warn("paid-record lookup failed")
		return nil
	}
	return &RemoteRecord{Member: paid}
}

func (c *Controller) lookupLocal() *LocalRecord {
	if !c.viewer.Present() || c.deps.Local == nil {
		return nil
	}
	record, err := c.deps.Local.Get(c.id, c.viewer)
	if err != nil {
		c.deps.Log.WithError(err).WithField("content_id", c.id).Warn("local payment record lookup failed")
		return nil
	}
	return record
}

func (c *Controller) snapshotLocked(ctx context.Context) Status {
	status := Status{
		State:      c.state,
		Descriptor: c.desc,
		Warning:    c.warning,
		TxRef:      c.txRef,
	}
	if c.state != StateChecking && c.state != StateNotFound {
		decision := c.decision
		status.Decision = &decision
	}
	if c.state == StatePaymentRequired {
		status.PaymentError = c.payErr
		status.PayAvailable, status.PayHint = c.payAvailability(ctx)
	}
	return status
}

func (c *Controller) payAvailability(ctx context.Context) (bool, PayHint) {
	if !c.viewer.Present() {
		return false, PayHintIdentityUnavailable
	}
	if err := c.deps.Executor.Ready(ctx, c.viewer); err != nil {
		return false, PayHintSigningUnavailable
	}
	return true, ""
}
