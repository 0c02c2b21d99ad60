package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/automation-hub/hub/internal/bankhub"
	"github.com/automation-hub/hub/internal/config"
	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/security"
	"github.com/automation-hub/hub/internal/store"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrMissingJWTSecret reports a server start without a token signing secret.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")

// Services holds the wired import components over one database connection.
type Services struct {
	Config   config.Config
	DB       *gorm.DB
	Store    *store.Store
	Mappings *mapping.Service
	Detector *duplicate.Detector
	Importer *importer.Importer
}

// ConfigExists reports whether the config file exists.
func ConfigExists(configPath string) bool {
	info, err := os.Stat(configPath)
	return err == nil && !info.IsDir()
}

// LoadConfig loads the config file named by the app config.
func LoadConfig(appCfg config.AppConfig) (config.Config, error) {
	return config.Load(config.ResolveConfigPath(appCfg.ConfigPath))
}

// Open connects to the database, migrates it, and wires the import services.
func Open(cfg config.Config) (*Services, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return nil, err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	return NewServices(conn, cfg), nil
}

// NewServices wires the import services over an open, migrated connection.
func NewServices(conn *gorm.DB, cfg config.Config) *Services {
	st := store.New(conn)
	mappings := mapping.NewService(st)
	detector := duplicate.NewDetector(mappings, st, duplicate.Config{
		Module:         cfg.Import.Module,
		Window:         cfg.Import.DuplicateWindow,
		CandidateLimit: cfg.Import.CandidateLimit,
	})
	imp := importer.New(st, st, mappings, detector, importer.Config{
		ExternalIDLimit: cfg.Import.ExternalIDLimit,
	})
	return &Services{
		Config:   cfg,
		DB:       conn,
		Store:    st,
		Mappings: mappings,
		Detector: detector,
		Importer: imp,
	}
}

// Close releases the database connection.
func (s *Services) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, appCfg config.AppConfig) error {
	cfg, err := LoadConfig(appCfg)
	if err != nil {
		return err
	}
	svc, err := Open(cfg)
	if err != nil {
		return err
	}
	defer closeServices(svc)
	log.Infof("database migrated (module=%s)", cfg.Import.Module)
	return nil
}

// CleanupOrphans removes mappings of the configured module whose local rows are gone.
func CleanupOrphans(ctx context.Context, appCfg config.AppConfig) (int64, error) {
	cfg, err := LoadConfig(appCfg)
	if err != nil {
		return 0, err
	}
	svc, err := Open(cfg)
	if err != nil {
		return 0, err
	}
	defer closeServices(svc)
	return svc.CleanupOrphans(ctx)
}

// CleanupOrphans removes orphaned mappings of the configured module.
func (s *Services) CleanupOrphans(ctx context.Context) (int64, error) {
	deleted, err := s.Mappings.CleanupOrphanedMappings(ctx, s.Importer.Module())
	if err != nil {
		return 0, err
	}
	log.Infof("orphaned mappings removed (module=%s deleted=%d)", s.Importer.Module(), deleted)
	return deleted, nil
}

// ImportFile applies a bank-hub export file.
func ImportFile(ctx context.Context, appCfg config.AppConfig, path string) (bankhub.Report, error) {
	cfg, err := LoadConfig(appCfg)
	if err != nil {
		return bankhub.Report{}, err
	}
	svc, err := Open(cfg)
	if err != nil {
		return bankhub.Report{}, err
	}
	defer closeServices(svc)
	return svc.ImportFile(ctx, path)
}

// ImportFile applies a bank-hub export file, recording its runs with the file source.
func (s *Services) ImportFile(ctx context.Context, path string) (bankhub.Report, error) {
	export, err := bankhub.ReadExportFile(path)
	if err != nil {
		return bankhub.Report{}, err
	}
	return bankhub.Apply(ctx, s.Importer.WithSource(models.ImportSourceFile), export)
}

// CreateUser creates a local user that can log in to the API.
func CreateUser(ctx context.Context, appCfg config.AppConfig, email, name, password string) (*models.User, error) {
	cfg, err := LoadConfig(appCfg)
	if err != nil {
		return nil, err
	}
	svc, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer closeServices(svc)
	return svc.CreateUser(ctx, email, name, password)
}

// CreateUser creates a local user with a bcrypt password.
func (s *Services) CreateUser(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if errEmail := validator.New().Var(email, "required,email"); errEmail != nil {
		return nil, fmt.Errorf("create user: invalid email %q", email)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("create user: password must be at least 6 characters")
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name, Email: email, Password: hash}
	if errCreate := s.Store.CreateUser(ctx, user); errCreate != nil {
		return nil, fmt.Errorf("create user: %w", errCreate)
	}
	log.Infof("user created (id=%s email=%s)", user.ID, user.Email)
	return user, nil
}

func closeServices(svc *Services) {
	if errClose := svc.Close(); errClose != nil {
		log.WithError(errClose).Warn("close database failed")
	}
}
