package models

import "time"

// ApplicationStatus tracks the review lifecycle of a beneficiary
// application. Only an external reviewer action flips the status; the
// beneficiary never edits a submitted application.
type ApplicationStatus string

const (
	ApplicationPendingVerification ApplicationStatus = "PENDING_VERIFICATION"
	ApplicationApproved            ApplicationStatus = "APPROVED"
	ApplicationRejected            ApplicationStatus = "REJECTED"
)

// Valid reports whether s is one of the known review states.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPendingVerification, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// BeneficiaryApplication is a scheme registration captured on the device.
// IdentityNumber holds the full 12-digit number; any UI-facing surface
// must render it masked except for the last 4 digits.
type BeneficiaryApplication struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	IdentityNumber   string            `json:"identity_number"`
	Phone            string            `json:"phone"`
	Address          string            `json:"address"`
	IdentityCaptured bool              `json:"identity_captured"`
	EvidencePath     string            `json:"evidence_path,omitempty"`
	Status           ApplicationStatus `json:"status"`
	SubmittedAt      time.Time         `json:"submitted_at"`
}
