package engine

import (
	"context"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
)

// ConsortiumRepository stores consortiums.
type ConsortiumRepository interface {
	Get(ctx context.Context, id uuid.UUID) (models.Consortium, error)
	Save(ctx context.Context, consortium *models.Consortium) error
}

// MemberRepository reads member profiles.
type MemberRepository interface {
	Get(ctx context.Context, id uuid.UUID) (models.Member, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Member, error)
}

// MembershipRepository stores memberships.
type MembershipRepository interface {
	Get(ctx context.Context, id uuid.UUID) (models.Membership, error)

	// Find returns the membership of a member in a consortium,
	// active or not.
	Find(ctx context.Context, consortiumID, memberID uuid.UUID) (models.Membership, error)
	FindActiveByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Membership, error)
	Create(ctx context.Context, membership *models.Membership) error
	Save(ctx context.Context, membership *models.Membership) error
}

// ObligationRepository stores obligations.
type ObligationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (models.Obligation, error)
	FindByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Obligation, error)
	FindByMonth(ctx context.Context, consortiumID uuid.UUID, month int) ([]models.Obligation, error)
	FindPendingDueBefore(ctx context.Context, date types.Date) ([]models.Obligation, error)
	HasOverdue(ctx context.Context, membershipID uuid.UUID) (bool, error)
	CreateBatch(ctx context.Context, obligations []models.Obligation) error
	Save(ctx context.Context, obligation *models.Obligation) error

	// MarkOverdue sets the status of a pending obligation to overdue.
	// It reports false if the obligation was not pending anymore.
	MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByConsortium(ctx context.Context, consortiumID uuid.UUID) error
	DeleteByMembership(ctx context.Context, membershipID uuid.UUID) error
}

// ContemplationRepository stores contemplations.
type ContemplationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (models.Contemplation, error)

	// FindByConsortium returns the contemplations of a consortium ordered by month.
	FindByConsortium(ctx context.Context, consortiumID uuid.UUID) ([]models.Contemplation, error)
	FindByMonth(ctx context.Context, consortiumID uuid.UUID, month int) ([]models.Contemplation, error)
	Create(ctx context.Context, contemplation *models.Contemplation) error
	Save(ctx context.Context, contemplation *models.Contemplation) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByMember(ctx context.Context, consortiumID, memberID uuid.UUID) error
}

// Repositories bundles the repositories for all entities.
type Repositories struct {
	Consortiums    ConsortiumRepository
	Members        MemberRepository
	Memberships    MembershipRepository
	Obligations    ObligationRepository
	Contemplations ContemplationRepository
}

// Store gives access to the repositories.
type Store interface {
	Repositories() Repositories

	// Transaction runs fn with repositories bound to one transaction.
	// The transaction is committed if fn returns nil and rolled back
	// otherwise, also when fn panics.
	Transaction(ctx context.Context, fn func(Repositories) error) error
}
