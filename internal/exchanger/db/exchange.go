package db

import (
	"context"
	"time"

	"github.com/sunet/vc-exchanger/pkg/logger"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
)

// ExchangeColl is the collection of Exchange documents, the Exchange
// Store.
type ExchangeColl struct {
	Service *Service
	Coll    *mongo.Collection
	log     *logger.Log
}

func NewExchangeColl(ctx context.Context, collName string, service *Service, log *logger.Log) (*ExchangeColl, error) {
	c := &ExchangeColl{
		log:     log,
		Service: service,
	}
	c.Coll = service.dbClient.Database("exchanger").Collection(collName)

	if err := c.createIndex(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *ExchangeColl) createIndex(ctx context.Context) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:createIndex")
	defer span.End()

	indexWorkflow := mongo.IndexModel{
		Keys:    bson.D{primitive.E{Key: "workflowId", Value: 1}},
		Options: options.Index().SetName("exchange_workflow_id"),
	}
	indexPreAuthCode := mongo.IndexModel{
		Keys:    bson.D{primitive.E{Key: "openId.preAuthorizedCode", Value: 1}},
		Options: options.Index().SetName("exchange_pre_authorized_code").SetSparse(true),
	}

	_, err := c.Coll.Indexes().CreateMany(ctx, []mongo.IndexModel{indexWorkflow, indexPreAuthCode})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Create persists a new exchange; a caller-chosen id collision fails
// DuplicateError.
func (c *ExchangeColl) Create(ctx context.Context, exchange *wmodel.Exchange) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:create")
	defer span.End()

	exchange.Sequence = 0

	_, err := c.Coll.InsertOne(ctx, exchange)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return werrors.Duplicate("exchange id already exists: " + exchange.ID)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Load fetches an exchange by (workflowId, exchangeId). An exchange
// whose TTL has elapsed is treated as not found even though the row
// still physically exists -- expiry is lazy, checked on access rather
// than swept by a background reaper.
func (c *ExchangeColl) Load(ctx context.Context, workflowID, exchangeID string, now time.Time) (*wmodel.Exchange, error) {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:load")
	defer span.End()

	var doc wmodel.Exchange
	filter := bson.M{"_id": exchangeID, "workflowId": workflowID}
	if err := c.Coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, werrors.NotFound("exchange not found")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if doc.IsExpired(now) {
		return nil, werrors.NotFound("exchange not found")
	}

	return &doc, nil
}

// Update commits exchange atomically, requiring the stored sequence to
// equal expectedSequence (optimistic concurrency). On mismatch it
// returns InvalidStateError without mutating anything.
func (c *ExchangeColl) Update(ctx context.Context, exchange *wmodel.Exchange, expectedSequence int64) error {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:update")
	defer span.End()

	exchange.Sequence = expectedSequence + 1

	filter := bson.M{"_id": exchange.ID, "workflowId": exchange.WorkflowID, "sequence": expectedSequence}
	res, err := c.Coll.ReplaceOne(ctx, filter, exchange)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.MatchedCount == 0 {
		return werrors.InvalidState("exchange sequence mismatch")
	}
	return nil
}

// UpdateLastError best-effort records the most recent error without
// touching sequence/state; concurrent calls may race benignly since it
// never advances state.
func (c *ExchangeColl) UpdateLastError(ctx context.Context, workflowID, exchangeID string, lastError *wmodel.ErrorRecord) {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:updateLastError")
	defer span.End()

	filter := bson.M{"_id": exchangeID, "workflowId": workflowID}
	update := bson.M{"$set": bson.M{"lastError": lastError}}

	if _, err := c.Coll.UpdateOne(ctx, filter, update); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.log.Debug("best-effort lastError update failed", "error", err)
	}
}

// LoadByPreAuthorizedCode is used by the OID4VCI token endpoint to
// resolve the exchange a pre-authorized_code belongs to.
func (c *ExchangeColl) LoadByPreAuthorizedCode(ctx context.Context, code string, now time.Time) (*wmodel.Exchange, error) {
	ctx, span := c.Service.tracer.Start(ctx, "db:exchange:loadByPreAuthorizedCode")
	defer span.End()

	var doc wmodel.Exchange
	filter := bson.M{"openId.preAuthorizedCode": code}
	if err := c.Coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, werrors.NotAllowed("unknown pre-authorized_code")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if doc.IsExpired(now) {
		return nil, werrors.NotAllowed("unknown pre-authorized_code")
	}

	return &doc, nil
}
