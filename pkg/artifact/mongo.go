package artifact

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stacknotice/pkg/coordinate"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "stacknotice"
	DefaultMongoCollection = "notices"
)

// MongoConfig configures a MongoSink.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Enabled reports whether a connection URI is configured.
func (c MongoConfig) Enabled() bool { return strings.TrimSpace(c.URI) != "" }

// MongoSink records one document per run.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to MongoDB and verifies the connection.
func NewMongoSink(ctx context.Context, cfg MongoConfig) (*MongoSink, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongodb uri is required")
	}
	db := orDefault(cfg.Database, DefaultMongoDatabase)
	coll := orDefault(cfg.Collection, DefaultMongoCollection)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoSink{client: client, coll: client.Database(db).Collection(coll)}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

// Put inserts a and returns <database>.<collection>/<run id>.
func (s *MongoSink) Put(ctx context.Context, a *Artifact) (string, error) {
	doc := bson.M{
		"_id":         a.RunID,
		"repository":  a.Repository,
		"filename":    a.Filename,
		"format":      string(a.Format),
		"mode":        a.Mode,
		"content":     a.Content,
		"coordinates": a.Coordinates,
		"ecosystems":  coordinate.CountByType(a.Coordinates),
		"summary": bson.M{
			"total":         a.Summary.Total,
			"no_definition": a.Summary.Warnings.NoDefinition,
			"no_license":    a.Summary.Warnings.NoLicense,
			"no_copyright":  a.Summary.Warnings.NoCopyright,
		},
		"created_at": a.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "insert run %s", a.RunID)
	}
	return fmt.Sprintf("%s.%s/%s", s.coll.Database().Name(), s.coll.Name(), a.RunID), nil
}

// Find returns the stored run with the given id.
func (s *MongoSink) Find(ctx context.Context, runID string) (*Artifact, error) {
	var doc struct {
		ID          string    `bson:"_id"`
		Repository  string    `bson:"repository"`
		Filename    string    `bson:"filename"`
		Format      string    `bson:"format"`
		Mode        string    `bson:"mode"`
		Content     string    `bson:"content"`
		Coordinates []string  `bson:"coordinates"`
		CreatedAt   time.Time `bson:"created_at"`
		Summary     struct {
			Total        int      `bson:"total"`
			NoDefinition []string `bson:"no_definition"`
			NoLicense    []string `bson:"no_license"`
			NoCopyright  []string `bson:"no_copyright"`
		} `bson:"summary"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", runID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find run %s", runID)
	}

	a := &Artifact{
		RunID:       doc.ID,
		Repository:  doc.Repository,
		Filename:    doc.Filename,
		Format:      notice.Format(doc.Format),
		Content:     doc.Content,
		Mode:        doc.Mode,
		Coordinates: doc.Coordinates,
		CreatedAt:   doc.CreatedAt,
	}
	a.Summary.Total = doc.Summary.Total
	a.Summary.Warnings.NoDefinition = doc.Summary.NoDefinition
	a.Summary.Warnings.NoLicense = doc.Summary.NoLicense
	a.Summary.Warnings.NoCopyright = doc.Summary.NoCopyright
	return a, nil
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
