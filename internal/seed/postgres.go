package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/draftroom/internal/engine"
)

type ItemRow struct {
	ID         int    `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	Categories string // comma separated, e.g. "1B,OF"
	Team       string
}

func (ItemRow) TableName() string { return "items" }

type ParticipantRow struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (ParticipantRow) TableName() string { return "participants" }

// TurnRow is one slot of an explicit draft order. The table may be empty,
// in which case the order is generated.
type TurnRow struct {
	PickNumber    int    `gorm:"primaryKey"`
	ParticipantID string `gorm:"not null"`
	Round         int    `gorm:"not null"`
}

func (TurnRow) TableName() string { return "draft_order" }

type PostgresSource struct {
	db       *gorm.DB
	defaults OrderDefaults
	logger   *zap.Logger
}

func OpenPostgres(dsn string, defaults OrderDefaults, log *zap.Logger) (*PostgresSource, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresSource{db: db, defaults: defaults, logger: log}, nil
}

func (p *PostgresSource) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load reads the three tables concurrently.
func (p *PostgresSource) Load(ctx context.Context) (Seed, error) {
	var (
		items        []ItemRow
		participants []ParticipantRow
		turns        []TurnRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.db.WithContext(gctx).Order("id").Find(&items).Error
	})
	g.Go(func() error {
		return p.db.WithContext(gctx).Order("id").Find(&participants).Error
	})
	g.Go(func() error {
		return p.db.WithContext(gctx).Order("pick_number").Find(&turns).Error
	})
	if err := g.Wait(); err != nil {
		return Seed{}, fmt.Errorf("load seed from postgres: %w", err)
	}

	p.logger.Info("seed loaded from postgres",
		zap.Int("items", len(items)),
		zap.Int("participants", len(participants)),
		zap.Int("turns", len(turns)))

	s := FromRows(items, participants, turns)
	if err := s.fillOrder(p.defaults); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// FromRows converts database rows into a seed.
func FromRows(items []ItemRow, participants []ParticipantRow, turns []TurnRow) Seed {
	s := Seed{
		Items:        make([]engine.Item, 0, len(items)),
		Participants: make([]engine.Participant, 0, len(participants)),
	}
	for _, r := range items {
		it := engine.Item{ID: r.ID, Name: r.Name, Categories: splitCategories(r.Categories)}
		if r.Team != "" {
			it.Attributes = map[string]string{"team": r.Team}
		}
		s.Items = append(s.Items, it)
	}
	for _, r := range participants {
		s.Participants = append(s.Participants, engine.Participant{ID: r.ID, Name: r.Name})
	}
	for _, r := range turns {
		s.Order = append(s.Order, engine.TurnSlot{ParticipantID: r.ParticipantID, Round: r.Round, PickNumber: r.PickNumber})
	}
	return s
}

func splitCategories(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
