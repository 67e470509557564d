package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

const (
	librarySettingsCacheKey = "settings:library"
	settingsCacheTTL        = 5 * time.Minute
)

// SettingsCache is the subset of the redis client the settings provider uses.
type SettingsCache interface {
	GetCached(ctx context.Context, key string) ([]byte, error)
	SetCached(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// SettingsQuerier defines the database operations for settings
type SettingsQuerier interface {
	GetLibrarySettings(ctx context.Context) (queries.LibrarySetting, error)
	UpsertLibrarySettings(ctx context.Context, arg queries.UpsertLibrarySettingsParams) (queries.LibrarySetting, error)
	GetNotificationSettings(ctx context.Context) (queries.NotificationSetting, error)
}

// SettingsService serves the library rules from the persisted row, falling
// back to the configured defaults while no row exists.
type SettingsService struct {
	queries  SettingsQuerier
	cache    SettingsCache
	defaults config.LibraryConfig
	audit    AuditRecorder
	logger   *slog.Logger
}

func NewSettingsService(q SettingsQuerier, defaults config.LibraryConfig, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		queries:  q,
		defaults: defaults,
		audit:    nopAudit{},
		logger:   logger,
	}
}

// WithCache enables the redis read-through cache.
func (s *SettingsService) WithCache(cache SettingsCache) *SettingsService {
	s.cache = cache
	return s
}

func (s *SettingsService) WithAudit(audit AuditRecorder) *SettingsService {
	s.audit = audit
	return s
}

// LibrarySettings returns the rules currently in force.
func (s *SettingsService) LibrarySettings(ctx context.Context) (models.LibrarySettings, error) {
	if settings, ok := s.cached(ctx); ok {
		return s.withRuntime(settings), nil
	}

	row, err := s.queries.GetLibrarySettings(ctx)
	if err != nil {
		if isNoRows(err) {
			return s.fromConfig()
		}
		return models.LibrarySettings{}, fmt.Errorf("failed to load library settings: %w", err)
	}

	settings := librarySettingsFromRow(row)
	s.store(ctx, settings)
	return s.withRuntime(settings), nil
}

// NotificationSettings returns the notification toggles; all are enabled
// until a row is persisted.
func (s *SettingsService) NotificationSettings(ctx context.Context) (models.NotificationSettings, error) {
	row, err := s.queries.GetNotificationSettings(ctx)
	if err != nil {
		if isNoRows(err) {
			return models.AllNotifications, nil
		}
		return models.NotificationSettings{}, fmt.Errorf("failed to load notification settings: %w", err)
	}
	return models.NotificationSettings{
		OnReservationRequest: row.OnReservationRequest,
		OnReservationReady:   row.OnReservationReady,
		OnBookIssue:          row.OnBookIssue,
		OnDueReminder:        row.OnDueReminder,
		OnFineImposition:     row.OnFineImposition,
		OnFineCollection:     row.OnFineCollection,
	}, nil
}

// Update persists new library rules and drops the cached copy.
func (s *SettingsService) Update(ctx context.Context, req models.UpdateSettingsRequest, actor models.Actor) (models.LibrarySettings, error) {
	if req.FinePerDay.IsNegative() {
		return models.LibrarySettings{}, apperrors.ErrNegativeAmount
	}
	if req.MaxBooksPerMember < 1 || req.MaxIssueDuration < 1 {
		return models.LibrarySettings{}, apperrors.New(apperrors.KindValidation, apperrors.CodeValidation,
			"max_books_per_member and max_issue_duration must be at least 1")
	}

	row, err := s.queries.UpsertLibrarySettings(ctx, queries.UpsertLibrarySettingsParams{
		MaxBooksPerMember: int32(req.MaxBooksPerMember),
		MaxIssueDuration:  int32(req.MaxIssueDuration),
		FinePerDay:        numericFromDecimal(req.FinePerDay),
		RackNumberFormat:  req.RackNumberFormat,
		MemberIDFormat:    req.MemberIDFormat,
		LowStockThreshold: int32(req.LowStockThreshold),
	})
	if err != nil {
		return models.LibrarySettings{}, fmt.Errorf("failed to save library settings: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, librarySettingsCacheKey); err != nil {
			s.logger.Warn("Failed to invalidate settings cache", "error", err)
		}
	}

	settings := librarySettingsFromRow(row)
	if err := s.audit.Record(ctx, actor.UserID, models.EventSettingsUpdated, fmt.Sprintf(
		"Library settings updated: max books %d, max duration %d days, fine per day %s",
		settings.MaxBooksPerMember, settings.MaxIssueDuration, settings.FinePerDay.StringFixed(2),
	)); err != nil {
		s.logger.Warn("Failed to record settings audit", "error", err)
	}

	s.logger.Info("Library settings updated", "actor_id", actor.UserID)
	return s.withRuntime(settings), nil
}

func (s *SettingsService) cached(ctx context.Context) (models.LibrarySettings, bool) {
	if s.cache == nil {
		return models.LibrarySettings{}, false
	}
	data, err := s.cache.GetCached(ctx, librarySettingsCacheKey)
	if err != nil {
		if !errors.Is(err, database.ErrCacheMiss) {
			s.logger.Warn("Settings cache read failed", "error", err)
		}
		return models.LibrarySettings{}, false
	}
	var settings models.LibrarySettings
	if err := jsoniter.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("Discarding malformed cached settings", "error", err)
		return models.LibrarySettings{}, false
	}
	return settings, true
}

func (s *SettingsService) store(ctx context.Context, settings models.LibrarySettings) {
	if s.cache == nil {
		return
	}
	data, err := jsoniter.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.SetCached(ctx, librarySettingsCacheKey, data, settingsCacheTTL); err != nil {
		s.logger.Warn("Settings cache write failed", "error", err)
	}
}

func (s *SettingsService) fromConfig() (models.LibrarySettings, error) {
	fine, err := s.defaults.FinePerDayDecimal()
	if err != nil {
		return models.LibrarySettings{}, err
	}
	return s.withRuntime(models.LibrarySettings{
		MaxBooksPerMember: s.defaults.MaxBooksPerMember,
		MaxIssueDuration:  s.defaults.MaxIssueDuration,
		FinePerDay:        fine,
		RackNumberFormat:  s.defaults.RackNumberFormat,
		MemberIDFormat:    s.defaults.MemberIDFormat,
		LowStockThreshold: s.defaults.LowStockThreshold,
	}), nil
}

// withRuntime fills the fields that only live in configuration.
func (s *SettingsService) withRuntime(settings models.LibrarySettings) models.LibrarySettings {
	settings.StaleAfter = s.defaults.StaleAfter()
	if settings.StaleAfter <= 0 {
		settings.StaleAfter = 25 * time.Hour
	}
	settings.Location = s.defaults.Location()
	return settings
}

func librarySettingsFromRow(row queries.LibrarySetting) models.LibrarySettings {
	return models.LibrarySettings{
		MaxBooksPerMember: int(row.MaxBooksPerMember),
		MaxIssueDuration:  int(row.MaxIssueDuration),
		FinePerDay:        decimalFromNumeric(row.FinePerDay),
		RackNumberFormat:  row.RackNumberFormat,
		MemberIDFormat:    row.MemberIDFormat,
		LowStockThreshold: int(row.LowStockThreshold),
	}
}

// StaticSettings serves fixed rules without touching the database.
type StaticSettings struct {
	Library       models.LibrarySettings
	Notifications models.NotificationSettings
}

func (s StaticSettings) LibrarySettings(context.Context) (models.LibrarySettings, error) {
	settings := s.Library
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.StaleAfter == 0 {
		settings.StaleAfter = 25 * time.Hour
	}
	return settings, nil
}

func (s StaticSettings) NotificationSettings(context.Context) (models.NotificationSettings, error) {
	return s.Notifications, nil
}

// DefaultLibrarySettings mirrors the configuration defaults.
func DefaultLibrarySettings() models.LibrarySettings {
	return models.LibrarySettings{
		MaxBooksPerMember: 3,
		MaxIssueDuration:  14,
		FinePerDay:        decimal.NewFromInt(10),
		RackNumberFormat:  "KFGC-000",
		MemberIDFormat:    "MBR-2025-000",
		LowStockThreshold: 3,
		StaleAfter:        25 * time.Hour,
		Location:          time.UTC,
	}
}
