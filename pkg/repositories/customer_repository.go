package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
)

// CustomerRepository provides access to KYC profiles. Profiles are owned by
// the upstream compliance system of record; Upsert refreshes the local snapshot
// when a case is opened with newer profile data.
type CustomerRepository interface {
	Create(ctx context.Context, db database.Executor, profile *models.CustomerProfile) error

	// Upsert inserts the profile or refreshes an existing row in place,
	// keyed on the business customer_id.
	Upsert(ctx context.Context, db database.Executor, profile *models.CustomerProfile) error

	GetByCustomerID(ctx context.Context, db database.Executor, customerID string) (*models.CustomerProfile, error)
}

type customerRepository struct{}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

var _ CustomerRepository = (*customerRepository)(nil)

const customerColumns = `id, customer_id, full_name, date_of_birth, nationality, occupation, employer,
		annual_income, risk_rating, kyc_status, kyc_date, pep_status, sanctions_checked,
		account_opening_date, country, created_at`

func (r *customerRepository) Create(ctx context.Context, db database.Executor, profile *models.CustomerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = time.Now()

	query := `
		INSERT INTO customer_profiles (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := db.Exec(ctx, query,
		profile.ID, profile.CustomerID, profile.FullName, profile.DateOfBirth,
		profile.Nationality, profile.Occupation, profile.Employer,
		profile.AnnualIncome, profile.RiskRating, profile.KYCStatus, profile.KYCDate,
		profile.PEPStatus, profile.SanctionsChecked, profile.AccountOpeningDate,
		profile.Country, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create customer profile: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *customerRepository) Upsert(ctx context.Context, db database.Executor, profile *models.CustomerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO customer_profiles (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (customer_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			date_of_birth = EXCLUDED.date_of_birth,
			nationality = EXCLUDED.nationality,
			occupation = EXCLUDED.occupation,
			employer = EXCLUDED.employer,
			annual_income = EXCLUDED.annual_income,
			risk_rating = EXCLUDED.risk_rating,
			kyc_status = EXCLUDED.kyc_status,
			kyc_date = EXCLUDED.kyc_date,
			pep_status = EXCLUDED.pep_status,
			sanctions_checked = EXCLUDED.sanctions_checked,
			account_opening_date = EXCLUDED.account_opening_date,
			country = EXCLUDED.country`

	_, err := db.Exec(ctx, query,
		profile.ID, profile.CustomerID, profile.FullName, profile.DateOfBirth,
		profile.Nationality, profile.Occupation, profile.Employer,
		profile.AnnualIncome, profile.RiskRating, profile.KYCStatus, profile.KYCDate,
		profile.PEPStatus, profile.SanctionsChecked, profile.AccountOpeningDate,
		profile.Country, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert customer profile: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *customerRepository) GetByCustomerID(ctx context.Context, db database.Executor, customerID string) (*models.CustomerProfile, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customer_profiles
		WHERE customer_id = $1`

	var profile models.CustomerProfile
	err := db.QueryRow(ctx, query, customerID).Scan(
		&profile.ID, &profile.CustomerID, &profile.FullName, &profile.DateOfBirth,
		&profile.Nationality, &profile.Occupation, &profile.Employer,
		&profile.AnnualIncome, &profile.RiskRating, &profile.KYCStatus, &profile.KYCDate,
		&profile.PEPStatus, &profile.SanctionsChecked, &profile.AccountOpeningDate,
		&profile.Country, &profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan customer profile: %w", err)
	}

	return &profile, nil
}
