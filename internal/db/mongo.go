package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestor/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

// MongoBackend 每个集合对应一个 Mongo collection，ObjectID 在出口处转换为十六进制字符串。
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Backend = (*MongoBackend)(nil)

// OpenMongo 建立连接并 ping 一次，连接在进程生命周期内复用。
func OpenMongo(ctx context.Context, uri, name string) (*MongoBackend, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("mongo document store ready", slog.String("database", name))
	return &MongoBackend{client: client, db: client.Database(name)}, nil
}

func (b *MongoBackend) Insert(ctx context.Context, collection string, doc store.Document) (string, error) {
	payload := bson.M{}
	for key, value := range doc.Fields {
		payload[key] = value
	}
	payload[store.FieldCreatedAt] = doc.CreatedAt
	payload[store.FieldUpdatedAt] = doc.UpdatedAt

	result, err := b.db.Collection(collection).InsertOne(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return idString(result.InsertedID), nil
}

func (b *MongoBackend) Find(ctx context.Context, collection string, filter store.Filter, opts store.FindOptions) ([]store.Document, error) {
	query := bson.M{}
	for _, cond := range filter.Conditions {
		switch cond.Op {
		case store.OpEq:
			query[cond.Field] = cond.Value
		case store.OpGte, store.OpLte:
			operator := "$gte"
			if cond.Op == store.OpLte {
				operator = "$lte"
			}
			existing, ok := query[cond.Field].(bson.M)
			if !ok {
				existing = bson.M{}
			}
			existing[operator] = cond.Value
			query[cond.Field] = existing
		default:
			return nil, fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}

	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Sort != nil {
		direction := 1
		if opts.Sort.Desc {
			direction = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.Sort.Field, Value: direction}})
	}

	cursor, err := b.db.Collection(collection).Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []store.Document{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (b *MongoBackend) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var raw bson.M
	if err := b.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc := fromBSON(raw)
	return &doc, nil
}

// Update 用一次管道更新完成写入：第一阶段按旧值判断是否有字段变化来决定是否刷新
// updated_at，第二阶段写业务字段。值统一包在 $literal 里，避免被当作表达式。
// 需要 MongoDB 4.2+。
func (b *MongoBackend) Update(ctx context.Context, collection, id string, fields store.Fields, now time.Time) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || len(fields) == 0 {
		return 0, nil
	}

	changed := bson.A{}
	set := bson.D{}
	for key, value := range fields {
		literal := bson.M{"$literal": value}
		changed = append(changed, bson.M{"$ne": bson.A{"$" + key, literal}})
		set = append(set, bson.E{Key: key, Value: literal})
	}

	touch := bson.D{{Key: store.FieldUpdatedAt, Value: bson.M{
		"$cond": bson.A{bson.M{"$or": changed}, now, "$" + store.FieldUpdatedAt},
	}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: touch}},
		{{Key: "$set", Value: set}},
	}

	result, err := b.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	return result.ModifiedCount, nil
}

func (b *MongoBackend) Collections(ctx context.Context) ([]string, error) {
	names, err := b.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func (b *MongoBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}

func fromBSON(raw bson.M) store.Document {
	doc := store.Document{
		ID:        idString(raw["_id"]),
		CreatedAt: bsonTime(raw[store.FieldCreatedAt]),
		UpdatedAt: bsonTime(raw[store.FieldUpdatedAt]),
		Fields:    store.Fields{},
	}
	for key, value := range raw {
		switch key {
		case store.FieldID, store.FieldCreatedAt, store.FieldUpdatedAt:
			continue
		}
		doc.Fields[key] = plainValue(value)
	}
	return doc
}

func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func bsonTime(value any) time.Time {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time().UTC()
	case time.Time:
		return v.UTC()
	}
	return time.Time{}
}

// plainValue 把 BSON 解码出的类型转换为 JSON 基本类型，与 SQLite 后端保持一致。
func plainValue(value any) any {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case primitive.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = plainValue(elem.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plainValue(item)
		}
		return out
	}
	return value
}
