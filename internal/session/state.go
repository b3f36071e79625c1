package session

import "github.com/spec-kit/phone-auth/internal/domain"

// Kind discriminates the session state variants.
type Kind string

const (
	KindAnonymous     Kind = "anonymous"
	KindPendingSignup Kind = "pending_signup"
	KindPendingSignin Kind = "pending_signin"
	KindAuthenticated Kind = "authenticated"
)

// PendingSignup holds the form data captured before the signup challenge is answered.
type PendingSignup struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// State is the tagged per-visitor session value. A session holds exactly one
// variant at a time; setting a variant replaces whatever was there before, so
// a stale pending flow cannot coexist with a later authenticated identity.
type State struct {
	kind          Kind
	pendingSignup *PendingSignup
	signinPhone   string
	user          *domain.SessionUser
}

// Anonymous returns the empty state.
func Anonymous() State {
	return State{kind: KindAnonymous}
}

// Kind reports the active variant.
func (s *State) Kind() Kind {
	if s.kind == "" {
		return KindAnonymous
	}
	return s.kind
}

// PendingSignup returns the pending signup data, if that variant is active.
func (s *State) PendingSignup() (PendingSignup, bool) {
	if s.Kind() != KindPendingSignup || s.pendingSignup == nil {
		return PendingSignup{}, false
	}
	return *s.pendingSignup, true
}

// SetPendingSignup moves the session into the pending-signup variant.
func (s *State) SetPendingSignup(name, phone string) {
	*s = State{kind: KindPendingSignup, pendingSignup: &PendingSignup{Name: name, Phone: phone}}
}

// SigninPhone returns the phone awaiting signin verification, if that variant is active.
func (s *State) SigninPhone() (string, bool) {
	if s.Kind() != KindPendingSignin || s.signinPhone == "" {
		return "", false
	}
	return s.signinPhone, true
}

// SetSigninPhone moves the session into the pending-signin variant.
func (s *State) SetSigninPhone(phone string) {
	*s = State{kind: KindPendingSignin, signinPhone: phone}
}

// User returns the authenticated identity, if present.
func (s *State) User() (domain.SessionUser, bool) {
	if s.Kind() != KindAuthenticated || s.user == nil {
		return domain.SessionUser{}, false
	}
	return *s.user, true
}

// SetUser promotes the session to authenticated, discarding any pending state.
func (s *State) SetUser(user domain.SessionUser) {
	*s = State{kind: KindAuthenticated, user: &user}
}

// Clear resets the session to anonymous.
func (s *State) Clear() {
	*s = Anonymous()
}
