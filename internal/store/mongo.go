package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/omeyang/xshortlink/internal/shortcut"
)

// mongoDoc 是集合中的文档结构。
type mongoDoc struct {
	ID        string    `bson:"_id"`
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"created_at"`
}

// Mongo 基于 MongoDB 集合的存储。ID 即文档 _id，唯一性由主键保证。
type Mongo struct {
	coll  *mongo.Collection
	owned bool
	now   func() time.Time
}

// NewMongo 使用外部集合构建存储，并确保 url 字段上存在索引。
// Close 不会断开 coll 所属的客户端。
func NewMongo(ctx context.Context, coll *mongo.Collection) (*Mongo, error) {
	if coll == nil {
		return nil, ErrNilClient
	}
	m := &Mongo{coll: coll, now: time.Now}
	if err := m.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// OpenMongo 按配置连接 MongoDB，Close 时断开连接。
// 连接是惰性的，连通性由 [Open] 中的 Ping 重试确认；索引在首次 Ping 成功后创建。
func OpenMongo(cfg MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("store: connect mongo: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Mongo{coll: coll, owned: true, now: time.Now}, nil
}

// EnsureIndexes 在 url 字段上创建索引，已存在时为空操作。
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "url", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("store: create mongo url index: %w", err)
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, s shortcut.Shortcut) (shortcut.Shortcut, error) {
	if err := validateShortcut(s); err != nil {
		return shortcut.Shortcut{}, err
	}

	_, err := m.coll.InsertOne(ctx, mongoDoc{ID: s.ID, URL: s.URL, CreatedAt: m.now().UTC()})
	if err != nil {
		return shortcut.Shortcut{}, mongoWriteError(s.ID, err)
	}
	return s, nil
}

func (m *Mongo) Read(ctx context.Context, id string) (shortcut.Shortcut, bool, error) {
	if err := validateID(id); err != nil {
		return shortcut.Shortcut{}, false, err
	}

	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return shortcut.Shortcut{}, false, nil
	}
	if err != nil {
		return shortcut.Shortcut{}, false, fmt.Errorf("store: mongo find: %w", err)
	}
	return shortcut.Shortcut{ID: doc.ID, URL: doc.URL}, true, nil
}

// QueryByURL 按 _id 升序返回结果。
func (m *Mongo) QueryByURL(ctx context.Context, url string) ([]shortcut.Shortcut, error) {
	if err := validateURL(url); err != nil {
		return nil, err
	}

	cursor, err := m.coll.Find(ctx, bson.D{{Key: "url", Value: url}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("store: mongo find: %w", err)
	}
	var docs []mongoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: mongo decode: %w", err)
	}

	out := make([]shortcut.Shortcut, 0, len(docs))
	for _, d := range docs {
		out = append(out, shortcut.Shortcut{ID: d.ID, URL: d.URL})
	}
	return out, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	if !m.owned {
		return nil
	}
	return m.coll.Database().Client().Disconnect(ctx)
}

// mongoWriteError 将重复主键映射为 ErrConflict。
func mongoWriteError(id string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return conflict(id)
	}
	return fmt.Errorf("store: mongo insert: %w", err)
}

var _ Store = (*Mongo)(nil)
