package db

import (
	"context"

	"github.com/sunet/vc-exchanger/pkg/logger"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
)

// WorkflowConfigColl is the collection of WorkflowConfig documents,
// the Workflow Config Registry's storage half.
type WorkflowConfigColl struct {
	Service *Service
	Coll    *mongo.Collection
	log     *logger.Log
}

// NewWorkflowConfigColl creates the collection and its indexes.
func NewWorkflowConfigColl(ctx context.Context, collName string, service *Service, log *logger.Log) (*WorkflowConfigColl, error) {
	c := &WorkflowConfigColl{
		log:     log,
		Service: service,
	}
	c.Coll = service.dbClient.Database("exchanger").Collection(collName)

	if err := c.createIndex(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *WorkflowConfigColl) createIndex(ctx context.Context) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:workflow_config:createIndex")
	defer span.End()

	indexControllerSequence := mongo.IndexModel{
		Keys: bson.D{
			primitive.E{Key: "controller", Value: 1},
		},
		Options: options.Index().SetName("workflow_config_controller"),
	}

	_, err := c.Coll.Indexes().CreateMany(ctx, []mongo.IndexModel{indexControllerSequence})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Create inserts a new WorkflowConfig; a collision on id fails with
// DuplicateError.
func (c *WorkflowConfigColl) Create(ctx context.Context, cfg *wmodel.WorkflowConfig) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:workflow_config:create")
	defer span.End()

	cfg.Sequence = 0

	_, err := c.Coll.InsertOne(ctx, cfg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return werrors.Duplicate("workflow id already exists: " + cfg.ID)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Get loads a WorkflowConfig by id.
func (c *WorkflowConfigColl) Get(ctx context.Context, id string) (*wmodel.WorkflowConfig, error) {
	ctx, span := c.Service.tracer.Start(ctx, "db:workflow_config:get")
	defer span.End()

	var doc wmodel.WorkflowConfig
	if err := c.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, werrors.NotFound("workflow not found: " + id)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &doc, nil
}

// Update replaces a WorkflowConfig, requiring the stored sequence to
// equal expectedSequence ("sequence ... monotonic on
// update"). On mismatch returns InvalidStateError.
func (c *WorkflowConfigColl) Update(ctx context.Context, cfg *wmodel.WorkflowConfig, expectedSequence int64) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:workflow_config:update")
	defer span.End()

	cfg.Sequence = expectedSequence + 1

	filter := bson.M{"_id": cfg.ID, "sequence": expectedSequence}
	res, err := c.Coll.ReplaceOne(ctx, filter, cfg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.MatchedCount == 0 {
		return werrors.InvalidState("workflow sequence mismatch")
	}
	return nil
}
