package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/models"
	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/database"
	"github.com/ManuelReschke/DubFox/internal/pkg/env"
	"github.com/ManuelReschke/DubFox/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/DubFox/internal/pkg/mail"
	"github.com/ManuelReschke/DubFox/internal/pkg/session"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

const (
	AUTH_KEY      string = "authenticated"
	USER_ID       string = "user_id"
	USER_NAME     string = "username"
	USER_EMAIL    string = "email"
	USER_IS_ADMIN string = "isAdmin"
)

// HandleAuthLogin authenticates a user with email and password and creates the session.
func HandleAuthLogin(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByEmail(c.FormValue("email"))
	if err != nil {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.CheckPassword(c.FormValue("password")) {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.IsActive() {
		fm["message"] = "Please activate your account first. Check your inbox for the activation link."

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := createUserSession(c, user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}

	redirectTo := c.FormValue("redirect")
	if redirectTo == "" {
		redirectTo = "/dashboard"
	}

	return flash.WithSuccess(c, fm).Redirect(redirectTo)
}

// HandleAuthLogout destroys the session and redirects to the login page.
func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	err = sess.Destroy()
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Bye bye! See you soon.",
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthRegister creates a new inactive user and mails the activation link.
func HandleAuthRegister(c *fiber.Ctx) error {
	// Verify hCaptcha token
	hcaptchaToken := c.FormValue("h-captcha-response")
	valid, err := hcaptcha.Verify(hcaptchaToken)
	if err != nil || !valid {
		errorMsg := "Captcha validation failed. Please try again."
		if err != nil && env.IsDev() {
			errorMsg = fmt.Sprintf("Captcha validation failed: %v", err)
		}

		fm := fiber.Map{
			"type":    "error",
			"message": errorMsg,
		}
		return flash.WithError(c, fm).Redirect("/register")
	}

	if c.FormValue("email") == "" || c.FormValue("password") == "" {
		fm := fiber.Map{
			"type":    "error",
			"message": "Email and password are required",
		}
		return flash.WithError(c, fm).Redirect("/register")
	}

	user, err := models.CreateUser(c.FormValue("username"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}

		return flash.WithError(c, fm).Redirect("/register")
	}

	if err := user.GenerateActivationToken(); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}

		return flash.WithError(c, fm).Redirect("/register")
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}

		return flash.WithError(c, fm).Redirect("/register")
	}

	go sendActivationMail(user)

	fm := fiber.Map{
		"type":    "success",
		"message": "Thanks for signing up! Please check your email for a verification link.",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthActivate activates an account via the mailed token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	fm := fiber.Map{
		"type": "error",
	}

	if token == "" {
		fm["message"] = "Activation token is missing"

		return flash.WithError(c, fm).Redirect("/login")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		fm["message"] = "Invalid or expired activation token"

		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	user.ActivationSentAt = nil
	if err := repo.Update(user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Your account is active. You can log in now.",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthForgotPassword mails a password reset link.
func HandleAuthForgotPassword(c *fiber.Ctx) error {
	email := c.FormValue("email")
	if email == "" {
		fm := fiber.Map{
			"type":    "error",
			"message": "Email is required",
		}
		return flash.WithError(c, fm).Redirect("/forgot-password")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fm := fiber.Map{
				"type":    "error",
				"message": "Could not reset password",
			}
			return flash.WithError(c, fm).Redirect("/forgot-password")
		}
		// Do not leak whether the address exists
	} else {
		if err := user.GenerateResetToken(); err == nil {
			if err := repo.Update(user); err == nil {
				go sendResetMail(user)
			}
		}
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Check your email for a link to reset your password.",
	}

	return flash.WithSuccess(c, fm).Redirect("/forgot-password")
}

// HandleAuthResetPassword sets a new password via the mailed token.
func HandleAuthResetPassword(c *fiber.Ctx) error {
	token := c.FormValue("token")
	password := c.FormValue("password")
	confirmPassword := c.FormValue("confirm_password")
	fm := fiber.Map{
		"type": "error",
	}

	if password == "" || confirmPassword == "" {
		fm["message"] = "Password and confirm password are required"

		return flash.WithError(c, fm).Redirect("/reset-password?token=" + token)
	}

	if password != confirmPassword {
		fm["message"] = "Passwords do not match"

		return flash.WithError(c, fm).Redirect("/reset-password?token=" + token)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByResetToken(token)
	if err != nil || !user.IsResetTokenValid(token) {
		fm["message"] = "Invalid or expired reset token"

		return flash.WithError(c, fm).Redirect("/forgot-password")
	}

	if err := user.SetPassword(password); err != nil {
		fm["message"] = "Password update failed"

		return flash.WithError(c, fm).Redirect("/forgot-password")
	}
	user.ResetToken = ""
	user.ResetSentAt = nil

	if err := repo.Update(user); err != nil {
		fm["message"] = "Password update failed"

		return flash.WithError(c, fm).Redirect("/forgot-password")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Password updated",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// createUserSession stores the authenticated identity in the session store.
func createUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_EMAIL, user.Email)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)

	return sess.Save()
}

func sendActivationMail(user *models.User) {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	link := fmt.Sprintf("%s/activate?token=%s", base, user.ActivationToken)
	body := fmt.Sprintf("<p>Hi %s,</p><p>please confirm your account: <a href=\"%s\">activate</a></p>", user.Name, link)
	_ = mail.SendMail(user.Email, "Activate your DubFox account", body)
}

func sendResetMail(user *models.User) {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	link := fmt.Sprintf("%s/reset-password?token=%s", base, user.ResetToken)
	body := fmt.Sprintf("<p>Hi %s,</p><p>reset your password here: <a href=\"%s\">reset password</a></p>", user.Name, link)
	_ = mail.SendMail(user.Email, "Reset your DubFox password", body)
}
