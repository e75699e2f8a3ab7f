package repository

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pixelwarden/domain/scenario"
)

// scenarioDocument is the MongoDB document structure for scenarios.
type scenarioDocument struct {
	Name                 string                 `bson:"_id"`
	DetectionQuality     int                    `bson:"detection_quality"`
	RandomizeActions     bool                   `bson:"randomize_actions"`
	EndConditionOperator string                 `bson:"end_condition_operator,omitempty"`
	Events               []eventDocument        `bson:"events,omitempty"`
	EndConditions        []endConditionDocument `bson:"end_conditions,omitempty"`
}

type eventDocument struct {
	ID                string              `bson:"id"`
	Name              string              `bson:"name"`
	ConditionOperator string              `bson:"condition_operator,omitempty"`
	Enabled           bool                `bson:"enabled"`
	Conditions        []conditionDocument `bson:"conditions,omitempty"`
	Actions           []actionDocument    `bson:"actions,omitempty"`
}

type conditionDocument struct {
	Name             string `bson:"name"`
	TemplateID       string `bson:"template_id,omitempty"`
	AreaX            int    `bson:"area_x"`
	AreaY            int    `bson:"area_y"`
	AreaWidth        int    `bson:"area_width"`
	AreaHeight       int    `bson:"area_height"`
	DetectionType    string `bson:"detection_type"`
	Threshold        int    `bson:"threshold"`
	ShouldBeDetected bool   `bson:"should_be_detected"`
}

type actionDocument struct {
	Type                string `bson:"type"`
	X                   int    `bson:"x,omitempty"`
	Y                   int    `bson:"y,omitempty"`
	ToX                 int    `bson:"to_x,omitempty"`
	ToY                 int    `bson:"to_y,omitempty"`
	DurationMS          int64  `bson:"duration_ms,omitempty"`
	UseDetectedPosition bool   `bson:"use_detected_position,omitempty"`
}

type endConditionDocument struct {
	EventID       string `bson:"event_id"`
	MaxExecutions int    `bson:"max_executions"`
}

// MongoScenarioRepository implements scenario.Repository using MongoDB.
type MongoScenarioRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoScenarioRepository creates a new MongoDB-based scenario repository.
func NewMongoScenarioRepository(db *MongoDB, logger *slog.Logger) *MongoScenarioRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoScenarioRepository{
		collection: db.Collection("scenario"),
		logger:     logger,
	}
}

// FindByName retrieves a scenario by its unique name.
func (r *MongoScenarioRepository) FindByName(ctx context.Context, name string) (*scenario.Scenario, error) {
	filter := bson.M{"_id": name}
	var doc scenarioDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find scenario: %w", err)
	}

	return documentToScenario(&doc), nil
}

// FindAll retrieves all stored scenarios.
func (r *MongoScenarioRepository) FindAll(ctx context.Context) ([]*scenario.Scenario, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scenarioDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}

	scenarios := make([]*scenario.Scenario, len(docs))
	for i, doc := range docs {
		scenarios[i] = documentToScenario(&doc)
	}

	return scenarios, nil
}

// Insert creates a new scenario.
func (r *MongoScenarioRepository) Insert(ctx context.Context, scn *scenario.Scenario) error {
	doc := scenarioToDocument(scn)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert scenario: %w", err)
	}

	r.logger.Info("Scenario inserted", "name", scn.Name)
	return nil
}

// Update replaces an existing scenario.
func (r *MongoScenarioRepository) Update(ctx context.Context, scn *scenario.Scenario) error {
	doc := scenarioToDocument(scn)
	filter := bson.M{"_id": scn.Name}

	result, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update scenario: %w", err)
	}

	r.logger.Info("Scenario updated", "name", scn.Name,
		"matched", result.MatchedCount, "upserted", result.UpsertedCount)
	return nil
}

// Delete removes a scenario by name.
func (r *MongoScenarioRepository) Delete(ctx context.Context, name string) error {
	filter := bson.M{"_id": name}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("scenario not found: %s", name)
	}

	r.logger.Info("Scenario deleted", "name", name)
	return nil
}

// --- Document conversion ---

func scenarioToDocument(scn *scenario.Scenario) *scenarioDocument {
	doc := &scenarioDocument{
		Name:                 scn.Name,
		DetectionQuality:     scn.DetectionQuality,
		RandomizeActions:     scn.RandomizeActions,
		EndConditionOperator: operatorToString(scn.EndConditionOperator),
	}

	for _, ev := range scn.Events {
		evDoc := eventDocument{
			ID:                ev.ID,
			Name:              ev.Name,
			ConditionOperator: operatorToString(ev.ConditionOperator),
			Enabled:           ev.Enabled,
		}
		for _, c := range ev.Conditions {
			evDoc.Conditions = append(evDoc.Conditions, conditionDocument{
				Name:             c.Name,
				TemplateID:       c.TemplateID,
				AreaX:            c.Area.Min.X,
				AreaY:            c.Area.Min.Y,
				AreaWidth:        c.Area.Dx(),
				AreaHeight:       c.Area.Dy(),
				DetectionType:    c.DetectionType.String(),
				Threshold:        c.Threshold,
				ShouldBeDetected: c.ShouldBeDetected,
			})
		}
		for _, a := range ev.Actions {
			evDoc.Actions = append(evDoc.Actions, actionDocument{
				Type:                string(a.Type),
				X:                   a.X,
				Y:                   a.Y,
				ToX:                 a.ToX,
				ToY:                 a.ToY,
				DurationMS:          a.Duration.Milliseconds(),
				UseDetectedPosition: a.UseDetectedPosition,
			})
		}
		doc.Events = append(doc.Events, evDoc)
	}

	for _, ec := range scn.EndConditions {
		doc.EndConditions = append(doc.EndConditions, endConditionDocument{
			EventID:       ec.EventID,
			MaxExecutions: ec.MaxExecutions,
		})
	}

	return doc
}

func documentToScenario(doc *scenarioDocument) *scenario.Scenario {
	scn := &scenario.Scenario{
		Name:                 doc.Name,
		DetectionQuality:     doc.DetectionQuality,
		RandomizeActions:     doc.RandomizeActions,
		EndConditionOperator: stringToOperator(doc.EndConditionOperator),
	}

	for _, evDoc := range doc.Events {
		ev := &scenario.Event{
			ID:                evDoc.ID,
			Name:              evDoc.Name,
			ConditionOperator: stringToOperator(evDoc.ConditionOperator),
			Enabled:           evDoc.Enabled,
		}
		for _, cDoc := range evDoc.Conditions {
			ev.Conditions = append(ev.Conditions, &scenario.Condition{
				Name:       cDoc.Name,
				TemplateID: cDoc.TemplateID,
				Area: image.Rect(cDoc.AreaX, cDoc.AreaY,
					cDoc.AreaX+cDoc.AreaWidth, cDoc.AreaY+cDoc.AreaHeight),
				DetectionType:    stringToDetectionType(cDoc.DetectionType),
				Threshold:        cDoc.Threshold,
				ShouldBeDetected: cDoc.ShouldBeDetected,
			})
		}
		for _, aDoc := range evDoc.Actions {
			ev.Actions = append(ev.Actions, scenario.Action{
				Type:                scenario.ActionType(aDoc.Type),
				X:                   aDoc.X,
				Y:                   aDoc.Y,
				ToX:                 aDoc.ToX,
				ToY:                 aDoc.ToY,
				Duration:            time.Duration(aDoc.DurationMS) * time.Millisecond,
				UseDetectedPosition: aDoc.UseDetectedPosition,
			})
		}
		scn.Events = append(scn.Events, ev)
	}

	for _, ecDoc := range doc.EndConditions {
		scn.EndConditions = append(scn.EndConditions, &scenario.EndCondition{
			EventID:       ecDoc.EventID,
			MaxExecutions: ecDoc.MaxExecutions,
		})
	}

	return scn
}

func operatorToString(op scenario.Operator) string {
	if !op.IsValid() {
		return ""
	}
	return op.String()
}

func stringToOperator(s string) scenario.Operator {
	switch s {
	case "AND":
		return scenario.OperatorAnd
	case "OR":
		return scenario.OperatorOr
	default:
		return 0
	}
}

func stringToDetectionType(s string) scenario.DetectionType {
	switch s {
	case "Exact":
		return scenario.DetectExact
	case "WholeScreen":
		return scenario.DetectWholeScreen
	default:
		return 0
	}
}
