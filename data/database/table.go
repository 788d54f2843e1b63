package database

import "go.mongodb.org/mongo-driver/mongo"

// Table is implemented by every persisted document type.
type Table interface {
	GetTableName() string
}

func Collection(db *mongo.Database, t Table) *mongo.Collection {
	return db.Collection(t.GetTableName())
}
