package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// MembershipService manages borrower profiles and account approval
type MembershipService struct {
	store    database.Store
	settings SettingsProvider
	effects  sideEffects
	logger   *slog.Logger
}

func NewMembershipService(store database.Store, settings SettingsProvider, logger *slog.Logger) *MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipService{store: store, settings: settings, effects: newSideEffects(logger), logger: logger}
}

func (s *MembershipService) WithAudit(audit AuditRecorder) *MembershipService {
	s.effects.audit = audit
	return s
}

// CreateMember attaches a borrowing profile to an existing user.
func (s *MembershipService) CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error) {
	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}

	var created queries.Member
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := q.GetUser(ctx, req.UserID); err != nil {
			if isNoRows(err) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		seq, err := q.NextMemberNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate member code: %w", err)
		}
		created, err = q.CreateMember(ctx, queries.CreateMemberParams{
			UserID:     req.UserID,
			MemberCode: FormatSequenceCode(settings.MemberIDFormat, seq),
			Mobile:     textOrNull(strings.TrimSpace(req.Mobile)),
		})
		if err != nil {
			if uniqueViolation(err, "members_user_id_key") {
				return apperrors.ErrMemberExists
			}
			return fmt.Errorf("failed to create member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member created", "member_id", created.ID, "member_code", created.MemberCode)
	return memberFromRow(created), nil
}

func (s *MembershipService) GetMember(ctx context.Context, id int32) (*models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return memberFromRow(m), nil
}

// RecomputeDefaulter sets is_defaulter from the member's outstanding fines.
func (s *MembershipService) RecomputeDefaulter(ctx context.Context, id int32) (*models.Member, error) {
	m, err := recomputeDefaulter(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return memberFromRow(m), nil
}

func recomputeDefaulter(ctx context.Context, q queries.Querier, memberID int32) (queries.Member, error) {
	m, err := q.RecomputeMemberDefaulter(ctx, memberID)
	if err != nil {
		if isNoRows(err) {
			return queries.Member{}, apperrors.ErrMemberNotFound
		}
		return queries.Member{}, fmt.Errorf("failed to recompute defaulter flag: %w", err)
	}
	return m, nil
}

// ApproveUser activates an account that is waiting for approval. A declined
// account can still be approved.
func (s *MembershipService) ApproveUser(ctx context.Context, userID int32, actor models.Actor) (*models.User, error) {
	updated, err := s.decide(ctx, userID, func(u queries.User) queries.SetUserApprovalParams {
		return queries.SetUserApprovalParams{ID: u.ID, IsActive: true, IsVerified: true, IsDeclined: false}
	})
	metrics.ObserveOperation("user_approve", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User approved", "user_id", userID, "by", actor.UserID)
	s.effects.record(ctx, actor, models.EventUserApproved, fmt.Sprintf("User %s approved", updated.Username))
	return userFromRow(updated), nil
}

// DeclineUser rejects an account that is waiting for approval.
func (s *MembershipService) DeclineUser(ctx context.Context, userID int32, actor models.Actor) (*models.User, error) {
	updated, err := s.decide(ctx, userID, func(u queries.User) queries.SetUserApprovalParams {
		return queries.SetUserApprovalParams{ID: u.ID, IsActive: false, IsVerified: u.IsVerified, IsDeclined: true}
	})
	metrics.ObserveOperation("user_decline", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User declined", "user_id", userID, "by", actor.UserID)
	s.effects.record(ctx, actor, models.EventUserDeclined, fmt.Sprintf("User %s declined", updated.Username))
	return userFromRow(updated), nil
}

// decide applies an approval decision to a locked user that is not yet active.
func (s *MembershipService) decide(ctx context.Context, userID int32, next func(queries.User) queries.SetUserApprovalParams) (queries.User, error) {
	var updated queries.User
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u.IsActive {
			return apperrors.ErrUserNotPending
		}
		updated, err = q.SetUserApproval(ctx, next(u))
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	return updated, err
}

// ListUsers returns users in one approval state, oldest first.
func (s *MembershipService) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, models.Pagination, error) {
	if !filter.State.Valid() {
		return nil, models.Pagination{}, apperrors.ErrInvalidUserState
	}
	page, limit := pageBounds(filter.Page, filter.Limit)
	total, err := s.store.CountUsersByState(ctx, string(filter.State))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count users: %w", err)
	}
	rows, err := s.store.ListUsersByState(ctx, queries.ListUsersByStateParams{
		State:  string(filter.State),
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users, models.NewPagination(page, limit, total), nil
}

// ToggleMemberActive flips whether a member may borrow. Login is unaffected.
func (s *MembershipService) ToggleMemberActive(ctx context.Context, memberID int32, actor models.Actor) (*models.Member, error) {
	var updated queries.Member
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		m, err := q.GetMemberForUpdate(ctx, memberID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrMemberNotFound
			}
			return fmt.Errorf("failed to get member: %w", err)
		}
		updated, err = q.SetMemberActive(ctx, queries.SetMemberActiveParams{ID: m.ID, IsActive: !m.IsActive})
		if err != nil {
			return fmt.Errorf("failed to update member: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("member_toggle_active", err)
	if err != nil {
		return nil, err
	}

	state := "disabled"
	if updated.IsActive {
		state = "enabled"
	}
	s.logger.Info("Member status changed", "member_id", memberID, "is_active", updated.IsActive)
	s.effects.record(ctx, actor, models.EventMemberStatusChanged, fmt.Sprintf("Member %s has been %s", updated.MemberCode, state))
	return memberFromRow(updated), nil
}
