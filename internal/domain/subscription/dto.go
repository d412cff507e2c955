// internal/domain/subscription/dto.go
package subscription

import "time"

type CreateSubscriptionRequest struct {
	PackageID int64  `json:"package_id" binding:"required,min=1"`
	Notes     string `json:"notes" binding:"max=2000"`
}

type SubmitPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,max=50"`
	Reference     string `json:"reference" binding:"required,max=100"`
	AmountCents   int64  `json:"amount_cents" binding:"required,min=1"`
	ReceiptURL    string `json:"receipt_url" binding:"omitempty,url"`
}

// ApproveRequest carries an optional window; zero values fall back to the
// package duration starting now.
type ApproveRequest struct {
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ExpireRequest struct {
	Reason string `json:"reason"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=4000"`
}

// ActionResult is returned by approve/reject/expire.
type ActionResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Subscription *Subscription `json:"subscription,omitempty"`
	// ExpiredIDs lists subscriptions auto-expired by an approval.
	ExpiredIDs []int64 `json:"expired_ids,omitempty"`
}

type SweepResult struct {
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// SubscriptionDetails is a subscription with the receipts submitted for it.
type SubscriptionDetails struct {
	Subscription *Subscription    `json:"subscription"`
	Receipts     []PaymentReceipt `json:"receipts"`
}
