package models

import "time"

// DeliveryStatus is the state of a delivery verification session. The
// happy path runs AwaitingOtp -> AwaitingBeneficiaryScan ->
// AwaitingAssetScan -> AwaitingGeofence -> Confirmed. Failed is reached
// only when the OTP attempt limit is exhausted.
type DeliveryStatus string

const (
	DeliveryAwaitingOtp             DeliveryStatus = "AWAITING_OTP"
	DeliveryAwaitingBeneficiaryScan DeliveryStatus = "AWAITING_BENEFICIARY_SCAN"
	DeliveryAwaitingAssetScan       DeliveryStatus = "AWAITING_ASSET_SCAN"
	DeliveryAwaitingGeofence        DeliveryStatus = "AWAITING_GEOFENCE"
	DeliveryConfirmed               DeliveryStatus = "CONFIRMED"
	DeliveryFailed                  DeliveryStatus = "FAILED"
)

// GeoPoint is a lat/lng pair recorded at confirmation time.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryRecord is the durable outcome of a delivery verification
// session. It is written only when the session confirms and is immutable
// afterwards.
type DeliveryRecord struct {
	ID               string         `json:"id"`
	BeneficiaryToken string         `json:"beneficiary_token"`
	AssetToken       string         `json:"asset_token"`
	GeoFix           GeoPoint       `json:"geo_fix"`
	OTPVerifiedAt    time.Time      `json:"otp_verified_at"`
	ConfirmedAt      time.Time      `json:"confirmed_at"`
	Status           DeliveryStatus `json:"status"`
}
