package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KYC status values as supplied by the compliance system of record.
const (
	KYCStatusVerified = "VERIFIED"
	KYCStatusPending  = "PENDING"
	KYCStatusExpired  = "EXPIRED"
)

// Customer risk ratings.
const (
	RiskRatingLow      = "LOW"
	RiskRatingMedium   = "MEDIUM"
	RiskRatingHigh     = "HIGH"
	RiskRatingVeryHigh = "VERY HIGH"
)

// CustomerProfile is the KYC record referenced by cases. It is owned by the
// upstream compliance system and treated as read-only here.
type CustomerProfile struct {
	ID                 uuid.UUID       `json:"id"`
	CustomerID         string          `json:"customer_id"`
	FullName           string          `json:"full_name"`
	DateOfBirth        string          `json:"date_of_birth,omitempty"`
	Nationality        string          `json:"nationality,omitempty"`
	Occupation         string          `json:"occupation,omitempty"`
	Employer           string          `json:"employer,omitempty"`
	AnnualIncome       decimal.Decimal `json:"annual_income"`
	RiskRating         string          `json:"risk_rating"`
	KYCStatus          string          `json:"kyc_status"`
	KYCDate            *time.Time      `json:"kyc_date,omitempty"`
	PEPStatus          bool            `json:"pep_status"`
	SanctionsChecked   bool            `json:"sanctions_checked"`
	AccountOpeningDate *time.Time      `json:"account_opening_date,omitempty"`
	Country            string          `json:"country,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}
