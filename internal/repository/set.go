package repository

import "github.com/jmoiron/sqlx"

// NewPostgresSet builds every repository over db.
func NewPostgresSet(db *sqlx.DB) Set {
	return Set{
		Tx:      NewTxRunner(db),
		Users:   NewUserRepository(db),
		Friends: NewFriendRepository(db),
		Support: NewSupportRepository(db),
		Stats:   NewStatsRepository(db),
	}
}
