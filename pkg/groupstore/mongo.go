package groupstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/viewgrid/pkg/view"
)

// Mongo stores one document per group.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// groupDoc is the stored form of a group. Position keeps registration order.
type groupDoc struct {
	Name     string   `bson:"_id"`
	Position int      `bson:"position"`
	Views    []string `bson:"views"`
}

// NewMongo connects to uri and uses database.collection.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *Mongo) Load(ctx context.Context) ([]view.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	groups := make([]view.Group, len(docs))
	for i, d := range docs {
		groups[i] = view.Group{Name: d.Name, Views: d.Views}
	}
	return groups, nil
}

// Save upserts every group and removes groups that no longer exist.
func (m *Mongo) Save(ctx context.Context, groups []view.Group) error {
	names := make([]string, 0, len(groups))
	models := make([]mongo.WriteModel, 0, len(groups))
	for i, g := range groups {
		names = append(names, g.Name)
		doc := groupDoc{Name: g.Name, Position: i, Views: g.Views}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: g.Name}}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(models) > 0 {
		if _, err := m.coll.BulkWrite(ctx, models); err != nil {
			return fmt.Errorf("write groups: %w", err)
		}
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: names}}}}
	if _, err := m.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("prune groups: %w", err)
	}
	return nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

var _ Store = (*Mongo)(nil)
