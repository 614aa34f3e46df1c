package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

const claimColumns = `id, claim_number, user_id, insurance_card_id, facility_id, policy_id, visit_type,
	admission_date, discharge_date, primary_diagnosis_code, primary_diagnosis_name, secondary_diagnoses,
	total_amount, covered_amount, patient_payment, status, submitted_at, reviewed_at, reviewer_id,
	review_notes, payment_date, created_at, updated_at`

var claimListColumns = []interface{}{
	"id", "claim_number", "user_id", "insurance_card_id", "facility_id", "policy_id", "visit_type",
	"admission_date", "discharge_date", "primary_diagnosis_code", "primary_diagnosis_name", "secondary_diagnoses",
	"total_amount", "covered_amount", "patient_payment", "status", "submitted_at", "reviewed_at", "reviewer_id",
	"review_notes", "payment_date", "created_at", "updated_at",
}

type claimRepository struct {
	BaseRepository
}

func NewClaimRepository(base BaseRepository) repository.ClaimRepository {
	return &claimRepository{base}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim, initial *model.ClaimStatusHistory, event *model.OutboxEvent) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	now := time.Now()
	claim.CreatedAt, claim.UpdatedAt = now, now

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO claims (
				id, claim_number, user_id, insurance_card_id, facility_id, policy_id, visit_type,
				admission_date, discharge_date, primary_diagnosis_code, primary_diagnosis_name,
				secondary_diagnoses, total_amount, covered_amount, patient_payment, status,
				submitted_at, created_at, updated_at
			) VALUES (
				:id, :claim_number, :user_id, :insurance_card_id, :facility_id, :policy_id, :visit_type,
				:admission_date, :discharge_date, :primary_diagnosis_code, :primary_diagnosis_name,
				:secondary_diagnoses, :total_amount, :covered_amount, :patient_payment, :status,
				:submitted_at, :created_at, :updated_at
			)`, claim)
		if err != nil {
			return err
		}

		for i := range claim.Services {
			s := &claim.Services[i]
			s.ID, s.ClaimID, s.CreatedAt = uuid.New(), claim.ID, now
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO claim_service_details (
					id, claim_id, service_code, service_name, service_type, quantity, unit_price,
					total_price, covered_amount, coverage_percentage, service_date, doctor_name, notes, created_at
				) VALUES (
					:id, :claim_id, :service_code, :service_name, :service_type, :quantity, :unit_price,
					:total_price, :covered_amount, :coverage_percentage, :service_date, :doctor_name, :notes, :created_at
				)`, s); err != nil {
				return err
			}
		}

		for i := range claim.Medications {
			m := &claim.Medications[i]
			m.ID, m.ClaimID, m.CreatedAt = uuid.New(), claim.ID, now
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO claim_medications (
					id, claim_id, medication_code, medication_name, dosage, quantity, unit, unit_price,
					total_price, covered_amount, coverage_percentage, prescribed_date, doctor_name, created_at
				) VALUES (
					:id, :claim_id, :medication_code, :medication_name, :dosage, :quantity, :unit, :unit_price,
					:total_price, :covered_amount, :coverage_percentage, :prescribed_date, :doctor_name, :created_at
				)`, m); err != nil {
				return err
			}
		}

		for i := range claim.Documents {
			d := &claim.Documents[i]
			d.ID, d.ClaimID = uuid.New(), claim.ID
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO claim_documents (
					id, claim_id, document_type, file_name, file_path, file_size, mime_type, uploaded_by, uploaded_at
				) VALUES (
					:id, :claim_id, :document_type, :file_name, :file_path, :file_size, :mime_type, :uploaded_by, :uploaded_at
				)`, d); err != nil {
				return err
			}
		}

		if initial != nil {
			initial.ID, initial.ClaimID = uuid.New(), claim.ID
			if err := insertHistory(ctx, tx, initial); err != nil {
				return err
			}
		}
		if event != nil {
			return insertOutbox(ctx, tx, event)
		}
		return nil
	})
	if err != nil {
		if pqCode(err) == uniqueViolation {
			monthKey, _, _ := model.ParseClaimNumber(claim.ClaimNumber)
			return errors.SequenceConflict(monthKey, err)
		}
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, h *model.ClaimStatusHistory) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO claim_status_history (id, claim_id, old_status, new_status, changed_by, reason, changed_at)
		VALUES (:id, :claim_id, :old_status, :new_status, :changed_by, :reason, :changed_at)`, h)
	return err
}

func (r *claimRepository) Get(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	var claim model.Claim
	if err := r.db.GetContext(ctx, &claim, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return nil, errors.ClaimNotFound(id.String())
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return &claim, r.loadChildren(ctx, &claim)
}

func (r *claimRepository) GetByNumber(ctx context.Context, claimNumber string) (*model.Claim, error) {
	var claim model.Claim
	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_number = $1`
	if err := r.db.GetContext(ctx, &claim, query, claimNumber); err != nil {
		if isNoRows(err) {
			return nil, errors.ClaimNotFound(claimNumber)
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return &claim, r.loadChildren(ctx, &claim)
}

func (r *claimRepository) loadChildren(ctx context.Context, claim *model.Claim) error {
	claim.Services = []model.ClaimServiceDetail{}
	if err := r.db.SelectContext(ctx, &claim.Services,
		`SELECT * FROM claim_service_details WHERE claim_id = $1 ORDER BY created_at, id`, claim.ID); err != nil {
		return fmt.Errorf("failed to load claim services: %w", err)
	}
	claim.Medications = []model.ClaimMedication{}
	if err := r.db.SelectContext(ctx, &claim.Medications,
		`SELECT * FROM claim_medications WHERE claim_id = $1 ORDER BY created_at, id`, claim.ID); err != nil {
		return fmt.Errorf("failed to load claim medications: %w", err)
	}
	claim.Documents = []model.ClaimDocument{}
	if err := r.db.SelectContext(ctx, &claim.Documents,
		`SELECT * FROM claim_documents WHERE claim_id = $1 ORDER BY uploaded_at, id`, claim.ID); err != nil {
		return fmt.Errorf("failed to load claim documents: %w", err)
	}
	history, err := r.ListHistory(ctx, claim.ID)
	if err != nil {
		return err
	}
	claim.History = make([]model.ClaimStatusHistory, 0, len(history))
	for _, h := range history {
		claim.History = append(claim.History, *h)
	}
	return nil
}

func (r *claimRepository) List(ctx context.Context, filters *model.ClaimFilters) ([]*model.Claim, int, error) {
	if filters == nil {
		filters = &model.ClaimFilters{}
	}

	where := claimConditions(filters)

	countSQL, countArgs, err := dialect.From("claims").Select(goqu.COUNT("*")).
		Where(where...).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count claims: %w", err)
	}

	limit, offset := filters.Normalize()
	query, args, err := dialect.From("claims").Select(claimListColumns...).
		Where(where...).
		Order(goqu.I("claim_number").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}
	claims := []*model.Claim{}
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, total, nil
}

func claimConditions(filters *model.ClaimFilters) []goqu.Expression {
	var where []goqu.Expression
	if filters.UserID != uuid.Nil {
		where = append(where, goqu.C("user_id").Eq(filters.UserID.String()))
	}
	if filters.FacilityID != uuid.Nil {
		where = append(where, goqu.C("facility_id").Eq(filters.FacilityID.String()))
	}
	if filters.Status != "" {
		where = append(where, goqu.C("status").Eq(string(filters.Status)))
	}
	if filters.VisitType != "" {
		where = append(where, goqu.C("visit_type").Eq(string(filters.VisitType)))
	}
	if filters.From != nil {
		where = append(where, goqu.C("submitted_at").Gte(*filters.From))
	}
	if filters.To != nil {
		where = append(where, goqu.C("submitted_at").Lte(*filters.To))
	}
	return where
}

func (r *claimRepository) UpdateStatus(ctx context.Context, id uuid.UUID, apply repository.StatusUpdate) (*model.Claim, error) {
	var updated model.Claim
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &updated,
			`SELECT `+claimColumns+` FROM claims WHERE id = $1 FOR UPDATE`, id); err != nil {
			if isNoRows(err) {
				return errors.ClaimNotFound(id.String())
			}
			return err
		}
		loaded := updated.Status

		entry, event, err := apply(&updated)
		if err != nil {
			return err
		}
		updated.UpdatedAt = time.Now()

		res, err := tx.ExecContext(ctx, `
			UPDATE claims
			SET status = $1, reviewed_at = $2, reviewer_id = $3, review_notes = $4,
				payment_date = $5, updated_at = $6
			WHERE id = $7 AND status = $8`,
			updated.Status, updated.ReviewedAt, updated.ReviewerID, updated.ReviewNotes,
			updated.PaymentDate, updated.UpdatedAt, id, loaded)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.InvalidTransition(string(loaded), string(updated.Status))
		}

		if entry != nil {
			entry.ID, entry.ClaimID = uuid.New(), id
			if err := insertHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		if event != nil {
			return insertOutbox(ctx, tx, event)
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update claim status: %w", err)
	}
	return &updated, r.loadChildren(ctx, &updated)
}

func (r *claimRepository) ListHistory(ctx context.Context, claimID uuid.UUID) ([]*model.ClaimStatusHistory, error) {
	history := []*model.ClaimStatusHistory{}
	err := r.db.SelectContext(ctx, &history, `
		SELECT id, claim_id, old_status, new_status, changed_by, reason, changed_at
		FROM claim_status_history
		WHERE claim_id = $1
		ORDER BY changed_at, id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim history: %w", err)
	}
	return history, nil
}

func (r *claimRepository) MaxSequence(ctx context.Context, monthKey string) (int64, error) {
	prefix := model.FormatClaimNumber(monthKey, 0)
	prefix = prefix[:len(prefix)-6]
	var max int64
	err := r.db.GetContext(ctx, &max, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(claim_number FROM $2) AS BIGINT)), 0)
		FROM claims
		WHERE claim_number LIKE $1`, prefix+"%", len(prefix)+1)
	if err != nil {
		return 0, fmt.Errorf("failed to read max claim sequence: %w", err)
	}
	return max, nil
}
