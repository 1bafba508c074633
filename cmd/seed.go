package cmd

import (
	"fmt"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/config"
	"github.com/jmehdipour/parcel-relay/internal/db"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo carriers, trips and ratings (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer logger.Sync()

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		n, err := seedDemo(sqlDB, time.Now())
		if err != nil {
			return err
		}
		logger.L().Info("seed completed", zap.Int("carriers", n))
		return nil
	},
}

type demoCarrier struct {
	Address string
	Name    string
	Trips   [][2]string // origin, destination; dated from today
	Scores  []int
}

var demoCarriers = []demoCarrier{
	{Address: "+33600000001", Name: "Ali", Trips: [][2]string{{"Paris", "Lyon"}, {"Lyon", "Marseille"}}, Scores: []int{5, 4}},
	{Address: "+33600000002", Name: "Aminata", Trips: [][2]string{{"Paris", "Lyon"}}, Scores: []int{3}},
	{Address: "+33600000003", Name: "Moussa Diop", Trips: [][2]string{{"Dakar", "Thies"}}},
}

// seedDemo upserts carriers by address and only inserts trips and ratings for
// carriers that have none yet, so it can run repeatedly.
func seedDemo(dbx *sqlx.DB, now time.Time) (int, error) {
	tx, err := dbx.Beginx()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range demoCarriers {
		if _, err := tx.Exec(`
INSERT INTO users (address, role, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    role       = VALUES(role),
    name       = VALUES(name),
    updated_at = VALUES(updated_at)
`, c.Address, model.RoleCarrier.String(), c.Name, now, now); err != nil {
			return 0, fmt.Errorf("upsert carrier %q: %w", c.Name, err)
		}

		var id int64
		if err := tx.Get(&id, `SELECT id FROM users WHERE address = ?`, c.Address); err != nil {
			return 0, fmt.Errorf("carrier id %q: %w", c.Name, err)
		}

		var trips int
		if err := tx.Get(&trips, `SELECT COUNT(*) FROM trips WHERE carrier_id = ?`, id); err != nil {
			return 0, fmt.Errorf("count trips %q: %w", c.Name, err)
		}
		if trips > 0 {
			continue
		}

		for i, tr := range c.Trips {
			date := now.AddDate(0, 0, i+1).Format(model.DateLayout)
			if _, err := tx.Exec(`
INSERT INTO trips (carrier_id, date, origin, destination, description, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, id, date, tr[0], tr[1], "Demo trip", now); err != nil {
				return 0, fmt.Errorf("insert trip %q: %w", c.Name, err)
			}
		}
		for _, s := range c.Scores {
			if _, err := tx.Exec(`
INSERT INTO ratings (carrier_id, score, comment, created_at)
VALUES (?, ?, ?, ?)
`, id, s, "demo", now); err != nil {
				return 0, fmt.Errorf("insert rating %q: %w", c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(demoCarriers), nil
}
