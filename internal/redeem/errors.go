package redeem

// Client-facing failure messages. Ineligibility and invalid input are
// reported identically to the wallet; only the message text differs.
const (
	MsgNoShirts           = "No T-Shirts to redeem"
	MsgInsufficientFunds  = "Insufficient funds to pay shipping fee"
	MsgRedeemNotAvailable = "Redeem not available"
	MsgTryAgainLater      = "Redeem not available, please try again later"
	MsgSignatureRequired  = "Transaction signature is required"
)

// UserError is a request-scoped failure carrying the message shown to the
// client. The HTTP layer maps it to a 422 response; anything else is a
// retryable resolution failure.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return "redeem: " + e.Message
}

func userError(message string) *UserError {
	return &UserError{Message: message}
}
