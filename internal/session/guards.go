package session

import "github.com/gofiber/fiber/v2"

// RequirePendingSignup redirects to the signup form when the session holds no
// pending signup, so the verify page is never shown out of order.
func RequirePendingSignup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := FromContext(c)
		if !ok {
			return c.Redirect("/signup", fiber.StatusFound)
		}
		if _, ok := sess.PendingSignup(); !ok {
			return c.Redirect("/signup", fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequirePendingSignin redirects to the signin form when the session holds no
// pending signin phone.
func RequirePendingSignin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := FromContext(c)
		if !ok {
			return c.Redirect("/signin", fiber.StatusFound)
		}
		if _, ok := sess.SigninPhone(); !ok {
			return c.Redirect("/signin", fiber.StatusFound)
		}
		return c.Next()
	}
}
