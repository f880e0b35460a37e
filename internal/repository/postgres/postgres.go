package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/lexhub/deadline-api/internal/repository"
)

type tenantRepository struct {
	db *sqlx.DB
}

type caseRepository struct {
	db *sqlx.DB
}

type deadlineRepository struct {
	db *sqlx.DB
}

type notificationRepository struct {
	db *sqlx.DB
}

type preferenceRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

func NewDeadlineRepository(db *sqlx.DB) repository.DeadlineRepository {
	return &deadlineRepository{db: db}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func NewPreferenceRepository(db *sqlx.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}
