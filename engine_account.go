package authsession

import "context"

// Auxiliary account flows. These are thin passthroughs to the backend: the
// flows hold no client-side state beyond what the session already tracks.

// RequestPasswordReset asks the backend to email a password reset token.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	return e.client.ForgotPassword(ctx, email)
}

// ConfirmPasswordReset completes a password reset with the emailed token.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	return e.client.ResetPassword(ctx, resetToken, newPassword)
}

// VerifyEmail confirms an email verification token. On success the current
// user record, if any, is marked verified.
func (e *Engine) VerifyEmail(ctx context.Context, verificationToken string) error {
	if err := e.client.VerifyEmail(ctx, verificationToken); err != nil {
		return err
	}

	verified := true
	e.state.UpdateUser(UserUpdate{Verified: &verified})
	return nil
}

// ResendVerification requests a fresh verification email.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	return e.client.ResendVerification(ctx, email)
}
