package handlers

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/phone-auth/internal/api/dto"
	"github.com/spec-kit/phone-auth/internal/domain"
	"github.com/spec-kit/phone-auth/internal/service"
	"github.com/spec-kit/phone-auth/internal/session"
	apperrors "github.com/spec-kit/phone-auth/pkg/util"
)

// E.164 phone number format.
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// AuthHandler exposes the signup, signin and verification pages.
type AuthHandler struct {
	flow *service.AuthFlowService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(flow *service.AuthFlowService) *AuthHandler {
	return &AuthHandler{flow: flow}
}

// Home handles GET /.
func (h *AuthHandler) Home(c *fiber.Ctx) error {
	data := fiber.Map{}
	if sess, ok := session.FromContext(c); ok {
		if user, ok := sess.User(); ok {
			data["User"] = user
		}
	}
	return c.Render("home", data)
}

// SignupPage handles GET /signup.
func (h *AuthHandler) SignupPage(c *fiber.Ctx) error {
	return c.Render("signup", fiber.Map{})
}

// Signup handles POST /signup: stores the pending identity in the session
// once the challenge send is accepted, then redirects to the verify page.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return apperrors.NewValidationError("name and phone required", nil)
	}
	if !phoneRegex.MatchString(phone) {
		return apperrors.NewValidationError("phone must be in E.164 format", nil)
	}

	if err := h.flow.StartSignup(c.UserContext(), name, phone); err != nil {
		return err
	}

	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}
	sess.SetPendingSignup(name, phone)
	sess.Touch()

	return c.Redirect("/verify", fiber.StatusFound)
}

// VerifyPage handles GET /verify; the pending-signup guard runs before it.
func (h *AuthHandler) VerifyPage(c *fiber.Ctx) error {
	sess, _ := session.FromContext(c)
	pending, _ := sess.PendingSignup()
	return c.Render("verify", fiber.Map{"Phone": pending.Phone})
}

// Verify handles POST /verify: checks the code, provisions the account and
// promotes the session to authenticated.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.OTP) == "" {
		return apperrors.NewValidationError("verification code required", nil)
	}

	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewNoPendingVerification("no pending signup found, please sign up first")
	}
	pending, ok := sess.PendingSignup()
	if !ok {
		return apperrors.NewNoPendingVerification("no pending signup found, please sign up first")
	}

	profile, err := h.flow.CompleteSignup(c.UserContext(), pending.Name, pending.Phone, strings.TrimSpace(req.OTP))
	if err != nil {
		// The pending signup stays in place so the visitor can retry.
		return err
	}

	sess.SetUser(domain.SessionUser{ID: profile.ID, Name: profile.Name, Phone: profile.Phone})
	sess.Touch()
	return c.Redirect("/", fiber.StatusFound)
}

// SigninPage handles GET /signin.
func (h *AuthHandler) SigninPage(c *fiber.Ctx) error {
	return c.Render("signin", fiber.Map{})
}

// Signin handles POST /signin.
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return apperrors.NewValidationError("phone required", nil)
	}
	if !phoneRegex.MatchString(phone) {
		return apperrors.NewValidationError("phone must be in E.164 format", nil)
	}

	if err := h.flow.StartSignin(c.UserContext(), phone); err != nil {
		return err
	}

	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}
	sess.SetSigninPhone(phone)
	sess.Touch()

	return c.Redirect("/signin/verify", fiber.StatusFound)
}

// SigninVerifyPage handles GET /signin/verify; the pending-signin guard runs before it.
func (h *AuthHandler) SigninVerifyPage(c *fiber.Ctx) error {
	sess, _ := session.FromContext(c)
	phone, _ := sess.SigninPhone()
	return c.Render("signin_verify", fiber.Map{"Phone": phone})
}

// SigninVerify handles POST /signin/verify: checks the code and resolves the
// existing account by phone.
func (h *AuthHandler) SigninVerify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.OTP) == "" {
		return apperrors.NewValidationError("verification code required", nil)
	}

	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewNoPendingVerification("no phone number found, please sign in first")
	}
	phone, ok := sess.SigninPhone()
	if !ok {
		return apperrors.NewNoPendingVerification("no phone number found, please sign in first")
	}

	profile, err := h.flow.CompleteSignin(c.UserContext(), phone, strings.TrimSpace(req.OTP))
	if err != nil {
		return err
	}

	sess.SetUser(domain.SessionUser{ID: profile.ID, Name: profile.Name, Phone: profile.Phone})
	sess.Touch()
	return c.Redirect("/", fiber.StatusFound)
}

// Signout handles GET /signout.
func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	if sess, ok := session.FromContext(c); ok {
		if user, authenticated := sess.User(); authenticated {
			h.flow.SignOut(c.UserContext(), user.ID)
		}
		sess.Clear()
		sess.Touch()
	}
	return c.Redirect("/", fiber.StatusFound)
}
