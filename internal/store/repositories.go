package store

import (
	"context"
	"time"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 100

type consortiumRepository struct {
	db *gorm.DB
}

func (r consortiumRepository) Get(ctx context.Context, id uuid.UUID) (models.Consortium, error) {
	var c models.Consortium
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return c, wrap(err)
}

func (r consortiumRepository) Save(ctx context.Context, c *models.Consortium) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

type memberRepository struct {
	db *gorm.DB
}

func (r memberRepository) Get(ctx context.Context, id uuid.UUID) (models.Member, error) {
	var m models.Member
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return m, wrap(err)
}

func (r memberRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Member, error) {
	members := make([]models.Member, 0, len(ids))
	if len(ids) == 0 {
		return members, nil
	}

	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&members).Error
	return members, wrap(err)
}

type membershipRepository struct {
	db *gorm.DB
}

func (r membershipRepository) Get(ctx context.Context, id uuid.UUID) (models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return m, wrap(err)
}

func (r membershipRepository) Find(ctx context.Context, consortiumID, memberID uuid.UUID) (models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Where("consortium_id = ? AND member_id = ?", consortiumID, memberID).
		First(&m).Error
	return m, wrap(err)
}

func (r membershipRepository) FindActiveByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Membership, error) {
	memberships := make([]models.Membership, 0)
	err := r.db.WithContext(ctx).
		Where("consortium_id = ? AND active = ?", consortiumID, true).
		Order("joined_at, created_at").
		Find(&memberships).Error
	return memberships, wrap(err)
}

func (r membershipRepository) Create(ctx context.Context, m *models.Membership) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r membershipRepository) Save(ctx context.Context, m *models.Membership) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
}

type obligationRepository struct {
	db *gorm.DB
}

func (r obligationRepository) Get(ctx context.Context, id uuid.UUID) (models.Obligation, error) {
	var o models.Obligation
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return o, wrap(err)
}

func (r obligationRepository) FindByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Obligation, error) {
	obligations := make([]models.Obligation, 0)
	err := r.db.WithContext(ctx).
		Where("consortium_id = ?", consortiumID).
		Order("month, due_date, member_id").
		Find(&obligations).Error
	return obligations, wrap(err)
}

func (r obligationRepository) FindByMonth(ctx context.Context, consortiumID uuid.UUID, month int) ([]models.Obligation, error) {
	obligations := make([]models.Obligation, 0)
	err := r.db.WithContext(ctx).
		Where("consortium_id = ? AND month = ?", consortiumID, month).
		Order("due_date, member_id").
		Find(&obligations).Error
	return obligations, wrap(err)
}

func (r obligationRepository) FindPendingDueBefore(ctx context.Context, date types.Date) ([]models.Obligation, error) {
	obligations := make([]models.Obligation, 0)
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.ObligationPending, date).
		Order("due_date").
		Find(&obligations).Error
	return obligations, wrap(err)
}

func (r obligationRepository) HasOverdue(ctx context.Context, membershipID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("membership_id = ? AND status = ?", membershipID, models.ObligationOverdue).
		Count(&count).Error
	return count > 0, wrap(err)
}

func (r obligationRepository) CreateBatch(ctx context.Context, obligations []models.Obligation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&obligations, batchSize).Error
}

func (r obligationRepository) Save(ctx context.Context, o *models.Obligation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

// MarkOverdue is a compare-and-set on the pending status. It does not run
// the model hooks.
func (r obligationRepository) MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("id = ? AND status = ?", id, models.ObligationPending).
		UpdateColumns(map[string]any{
			"status":     models.ObligationOverdue,
			"updated_at": time.Now().UTC(),
		})

	return res.RowsAffected == 1, res.Error
}

func (r obligationRepository) DeleteByConsortium(ctx context.Context, consortiumID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("consortium_id = ?", consortiumID).Delete(&models.Obligation{}).Error
}

func (r obligationRepository) DeleteByMembership(ctx context.Context, membershipID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("membership_id = ?", membershipID).Delete(&models.Obligation{}).Error
}

type contemplationRepository struct {
	db *gorm.DB
}

func (r contemplationRepository) Get(ctx context.Context, id uuid.UUID) (models.Contemplation, error) {
	var c models.Contemplation
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return c, wrap(err)
}

func (r contemplationRepository) FindByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Contemplation, error) {
	contemplations := make([]models.Contemplation, 0)
	err := r.db.WithContext(ctx).
		Where("consortium_id = ?", consortiumID).
		Order("month, created_at").
		Find(&contemplations).Error
	return contemplations, wrap(err)
}

func (r contemplationRepository) FindByMonth(ctx context.Context, consortiumID uuid.UUID, month int) ([]models.Contemplation, error) {
	contemplations := make([]models.Contemplation, 0)
	err := r.db.WithContext(ctx).
		Where("consortium_id = ? AND month = ?", consortiumID, month).
		Order("created_at").
		Find(&contemplations).Error
	return contemplations, wrap(err)
}

func (r contemplationRepository) Create(ctx context.Context, c *models.Contemplation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r contemplationRepository) Save(ctx context.Context, c *models.Contemplation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r contemplationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Contemplation{}, "id = ?", id).Error
}

func (r contemplationRepository) DeleteByMember(ctx context.Context, consortiumID, memberID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("consortium_id = ? AND member_id = ?", consortiumID, memberID).
		Delete(&models.Contemplation{}).Error
}
