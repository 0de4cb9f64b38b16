// Package db is the record store client. It speaks to ScyllaDB across
// two keyspaces: farms_meta holds the slow-moving records (farms,
// devices, crop cycles) and farms_data the high-volume ones (logs,
// expenses, harvests, readings).
package db

import "github.com/gocql/gocql"

type DB struct {
	Meta *gocql.Session // farms_meta
	Data *gocql.Session // farms_data
}

func New(metaSess, dataSess *gocql.Session) *DB {
	return &DB{
		Meta: metaSess,
		Data: dataSess,
	}
}

func (db *DB) Close() {
	if db.Meta != nil {
		db.Meta.Close()
	}
	if db.Data != nil {
		db.Data.Close()
	}
}
