package postgres

import (
	"time"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

const verificationColumns = `identity, email, handle, code, state, issued_at, verified_at, created_at, updated_at`

type VerificationDTO struct {
	Identity   string
	Email      string
	Handle     string
	Code       string
	State      string
	IssuedAt   *time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(row scanner) (VerificationDTO, error) {
	var dto VerificationDTO
	err := row.Scan(
		&dto.Identity, &dto.Email, &dto.Handle, &dto.Code, &dto.State,
		&dto.IssuedAt, &dto.VerifiedAt, &dto.CreatedAt, &dto.UpdatedAt,
	)
	return dto, err
}

func (dto VerificationDTO) args() []any {
	return []any{
		dto.Identity, dto.Email, dto.Handle, dto.Code, dto.State,
		dto.IssuedAt, dto.VerifiedAt, dto.CreatedAt, dto.UpdatedAt,
	}
}

func DomainToVerificationDTO(r *verification.Record) VerificationDTO {
	return VerificationDTO{
		Identity:   r.Identity().String(),
		Email:      r.Email(),
		Handle:     r.Handle(),
		Code:       r.Code(),
		State:      r.State().String(),
		IssuedAt:   nullableTime(r.IssuedAt()),
		VerifiedAt: nullableTime(r.VerifiedAt()),
		CreatedAt:  r.CreatedAt(),
		UpdatedAt:  r.UpdatedAt(),
	}
}

func VerificationToDomain(dto VerificationDTO) *verification.Record {
	return verification.Rehydrate(verification.RehydrateArgs{
		Identity:   verification.Identity(dto.Identity),
		Email:      dto.Email,
		Handle:     dto.Handle,
		Code:       dto.Code,
		State:      verification.State(dto.State),
		IssuedAt:   timeOrZero(dto.IssuedAt),
		VerifiedAt: timeOrZero(dto.VerifiedAt),
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
	})
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
