package verification

import (
	"crypto/subtle"
	"time"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/randcode"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

const CodeLength = 6

type Identity string

func (i Identity) String() string {
	return string(i)
}

func (i Identity) Validate() error {
	return validation.Validate(string(i), validationx.IdentityRules...)
}

type State string

func (s State) String() string {
	return string(s)
}

const (
	StatePending  State = "pending"
	StateVerified State = "verified"
)

type CodeGenerator interface {
	Generate() (string, error)
}

type CodeGeneratorFunc func() (string, error)

func (f CodeGeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomCode draws CodeLength digits from crypto/rand.
var RandomCode CodeGenerator = CodeGeneratorFunc(func() (string, error) {
	return randcode.GenerateNumericCode(CodeLength)
})

// Record is the verification state of one identity. A missing record means
// the identity is unverified.
type Record struct {
	event.Recorder
	identity   Identity
	email      string
	handle     string
	code       string
	state      State
	issuedAt   time.Time
	verifiedAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

type StartArgs struct {
	Identity Identity
	Email    string
	Handle   string
	Code     string
	Now      time.Time
}

func (a *StartArgs) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Identity, validationx.IdentityRules...),
		validation.Field(&a.Email, validationx.EmailRules...),
		validation.Field(&a.Handle, validationx.HandleRules...),
		validation.Field(&a.Code, validationx.CodeRules(CodeLength)...),
	)
}

// NewPending builds a fresh pending record. Stores replace any existing
// record of the same identity with it.
func NewPending(args StartArgs) (*Record, error) {
	const op = "verification.NewPending"
	if err := args.Validate(); err != nil {
		return nil, errorx.Wrap(err, op)
	}
	now := args.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	r := &Record{
		identity:  args.Identity,
		email:     args.Email,
		handle:    args.Handle,
		code:      args.Code,
		state:     StatePending,
		issuedAt:  now,
		createdAt: now,
		updatedAt: now,
	}

	r.AddEvent(&VerificationStarted{
		Header:   event.NewEventHeader(),
		Identity: r.identity,
		Email:    r.email,
		Handle:   r.handle,
		IssuedAt: now,
	})

	return r, nil
}

// NewForced builds the minimal verified record used when an administrator
// verifies an identity that never started verification.
func NewForced(identity Identity, now time.Time) (*Record, error) {
	const op = "verification.NewForced"
	if err := identity.Validate(); err != nil {
		return nil, errorx.Wrap(err, op)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	r := &Record{
		identity:  identity,
		state:     StatePending,
		createdAt: now,
		updatedAt: now,
	}
	r.ForceVerify(now)

	return r, nil
}

type RehydrateArgs struct {
	Identity   Identity
	Email      string
	Handle     string
	Code       string
	State      State
	IssuedAt   time.Time
	VerifiedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func Rehydrate(args RehydrateArgs) *Record {
	return &Record{
		identity:   args.Identity,
		email:      args.Email,
		handle:     args.Handle,
		code:       args.Code,
		state:      args.State,
		issuedAt:   args.IssuedAt,
		verifiedAt: args.VerifiedAt,
		createdAt:  args.CreatedAt,
		updatedAt:  args.UpdatedAt,
	}
}

// Reissue replaces the code of a pending record and keeps its email.
func (r *Record) Reissue(code string, now time.Time) error {
	const op = "verification.Record.Reissue"
	if r == nil || r.state != StatePending {
		return errorx.Wrap(ErrNoPendingRecord, op)
	}
	if err := validation.Validate(code, validationx.CodeRules(CodeLength)...); err != nil {
		return errorx.Wrap(err, op)
	}

	r.code = code
	r.issuedAt = now
	r.updatedAt = now

	r.AddEvent(&VerificationCodeReissued{
		Header:   event.NewEventHeader(),
		Identity: r.identity,
		Email:    r.email,
		IssuedAt: now,
	})

	return nil
}

// VerifyCode moves a pending record to verified when submitted equals the
// current code. A mismatch leaves the record untouched.
func (r *Record) VerifyCode(submitted string, now time.Time) error {
	const op = "verification.Record.VerifyCode"
	if r == nil {
		return errorx.Wrap(ErrNotFound, op)
	}
	if r.state == StateVerified {
		return errorx.Wrap(ErrAlreadyVerified, op)
	}
	if !r.codeMatches(submitted) {
		return errorx.Wrap(ErrInvalidCode, op)
	}

	r.state = StateVerified
	r.verifiedAt = now
	r.updatedAt = now

	r.AddEvent(&IdentityVerified{
		Header:   event.NewEventHeader(),
		Identity: r.identity,
		Email:    r.email,
	})

	return nil
}

// ForceVerify marks the record verified without a code. Calling it on a
// verified record only refreshes updatedAt.
func (r *Record) ForceVerify(now time.Time) {
	if r == nil {
		return
	}
	r.updatedAt = now
	if r.state == StateVerified {
		return
	}

	r.state = StateVerified
	r.verifiedAt = now
	r.AddEvent(&IdentityVerified{
		Header:   event.NewEventHeader(),
		Identity: r.identity,
		Email:    r.email,
		Forced:   true,
	})
}

// Revoke records the removal of r. The store deletes the row.
func (r *Record) Revoke(reason RevokeReason) {
	if r == nil {
		return
	}
	r.AddEvent(&VerificationRevoked{
		Header:   event.NewEventHeader(),
		Identity: r.identity,
		Email:    r.email,
		Reason:   reason,
	})
}

func (r *Record) codeMatches(submitted string) bool {
	if r.code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(r.code), []byte(submitted)) == 1
}

func (r *Record) IsState(s State) bool {
	if r == nil {
		return false
	}
	return r.state == s
}

func (r *Record) IsVerified() bool {
	return r.IsState(StateVerified)
}

func (r *Record) Identity() Identity {
	if r == nil {
		return ""
	}
	return r.identity
}

func (r *Record) Email() string {
	if r == nil {
		return ""
	}
	return r.email
}

func (r *Record) Handle() string {
	if r == nil {
		return ""
	}
	return r.handle
}

func (r *Record) Code() string {
	if r == nil {
		return ""
	}
	return r.code
}

func (r *Record) State() State {
	if r == nil {
		return ""
	}
	return r.state
}

func (r *Record) IssuedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.issuedAt
}

func (r *Record) VerifiedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.verifiedAt
}

func (r *Record) CreatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.createdAt
}

func (r *Record) UpdatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.updatedAt
}

// Clone returns a copy of r without its uncommitted events.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Recorder = event.Recorder{}
	return &c
}

// Filter selects records for admin listings. The zero Filter matches all.
type Filter struct {
	State State
}

func (f Filter) Matches(r *Record) bool {
	return f.State == "" || r.IsState(f.State)
}

type RevokeReason string

const (
	RevokeReasonAdmin  RevokeReason = "admin"
	RevokeReasonLeft   RevokeReason = "left"
	RevokeReasonBanned RevokeReason = "banned"
)

// IsLifecycle reports whether the revocation was triggered by the identity
// leaving the trust domain rather than by an administrator.
func (r RevokeReason) IsLifecycle() bool {
	return r == RevokeReasonLeft || r == RevokeReasonBanned
}

func (r RevokeReason) Validate() error {
	return validation.Validate(string(r), validation.Required,
		validation.In(string(RevokeReasonAdmin), string(RevokeReasonLeft), string(RevokeReasonBanned)))
}
