package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

//baselineRecord is the baselines table row. The fitted model is kept as a JSON document.
type baselineRecord struct {
	PlayerID    string `gorm:"primaryKey;size:128"`
	Features    string `gorm:"type:text;not null"`
	Model       string `gorm:"type:text;not null"`
	SampleCount int    `gorm:"not null"`
	TrainedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (baselineRecord) TableName() string {
	return "baselines"
}

//OpenDB connects to driver ("sqlite" or "postgres") and migrates the baselines table
func OpenDB(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("OpenDB: unsupported driver '%s'", driver)
	}

	logLevel := gormlogger.Error
	if verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenDB: failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&baselineRecord{}); err != nil {
		return nil, fmt.Errorf("OpenDB: migrating baselines: %w", err)
	}

	return db, nil
}

//SQLRepository stores baselines in a relational database through gorm
type SQLRepository struct {
	db *gorm.DB
}

func NewSQLRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, playerID string) (*Baseline, error) {
	var rec baselineRecord
	err := r.db.WithContext(ctx).First(&rec, "player_id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: player '%s'", ErrModelNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("SQLRepository: loading '%s': %w", playerID, err)
	}

	b := &Baseline{}
	if err := json.Unmarshal([]byte(rec.Model), b); err != nil {
		return nil, fmt.Errorf("SQLRepository: decoding '%s': %w", playerID, err)
	}
	return b, nil
}

func (r *SQLRepository) Put(ctx context.Context, b *Baseline) error {
	model, err := json.Marshal(b)
	if err != nil {
		return err
	}
	featureNames, err := json.Marshal(b.FeatureNames)
	if err != nil {
		return err
	}

	rec := baselineRecord{
		PlayerID:    b.Player,
		Features:    string(featureNames),
		Model:       string(model),
		SampleCount: b.Samples,
		TrainedAt:   b.TrainedAt,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"features", "model", "sample_count", "trained_at", "updated_at"}),
	}).Create(&rec).Error
}
