package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pixelwarden/domain/report"
)

// reportDocument is the MongoDB document structure for run reports.
type reportDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	RunID         string             `bson:"run_id"`
	ScenarioName  string             `bson:"scenario_name"`
	StartedAt     time.Time          `bson:"started_at"`
	EndedAt       time.Time          `bson:"ended_at"`
	StopReason    string             `bson:"stop_reason"`
	TriggerCounts map[string]int     `bson:"trigger_counts,omitempty"`
}

// MongoReportRepository implements report.Repository using MongoDB.
type MongoReportRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoReportRepository creates a new MongoDB-based report repository.
func NewMongoReportRepository(db *MongoDB, logger *slog.Logger) *MongoReportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoReportRepository{
		collection: db.Collection("report"),
		logger:     logger,
	}
}

// Insert stores a new run report.
func (r *MongoReportRepository) Insert(ctx context.Context, rep *report.Report) error {
	if err := rep.Validate(); err != nil {
		return err
	}

	doc := reportToDocument(rep)
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rep.ID = oid.Hex()
	}

	r.logger.Info("Report inserted", "run_id", rep.RunID, "scenario", rep.ScenarioName)
	return nil
}

// FindByScenario retrieves all reports for the named scenario, newest first.
func (r *MongoReportRepository) FindByScenario(ctx context.Context, scenarioName string) ([]*report.Report, error) {
	filter := bson.M{"scenario_name": scenarioName}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeReports(ctx, cursor)
}

// FindRecent retrieves the most recent reports across all scenarios.
func (r *MongoReportRepository) FindRecent(ctx context.Context, limit int) ([]*report.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeReports(ctx, cursor)
}

func decodeReports(ctx context.Context, cursor *mongo.Cursor) ([]*report.Report, error) {
	var docs []reportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	reports := make([]*report.Report, len(docs))
	for i, doc := range docs {
		reports[i] = documentToReport(&doc)
	}
	return reports, nil
}

func reportToDocument(rep *report.Report) *reportDocument {
	return &reportDocument{
		RunID:         rep.RunID,
		ScenarioName:  rep.ScenarioName,
		StartedAt:     rep.StartedAt,
		EndedAt:       rep.EndedAt,
		StopReason:    rep.StopReason,
		TriggerCounts: rep.TriggerCounts,
	}
}

func documentToReport(doc *reportDocument) *report.Report {
	rep := &report.Report{
		RunID:         doc.RunID,
		ScenarioName:  doc.ScenarioName,
		StartedAt:     doc.StartedAt,
		EndedAt:       doc.EndedAt,
		StopReason:    doc.StopReason,
		TriggerCounts: doc.TriggerCounts,
	}
	if !doc.ID.IsZero() {
		rep.ID = doc.ID.Hex()
	}
	return rep
}
