// Package db is the exchanger's persistence layer: one MongoDB
// collection for WorkflowConfig documents and one for Exchange
// documents, built the way internal/apigw/db builds its collections --
// a shared Service holding the *mongo.Client and a tracer, with typed
// collection wrappers hung off it.
package db

import (
	"context"
	"reflect"
	"time"

	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/model"
	"github.com/sunet/vc-exchanger/pkg/trace"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mapRegistry overrides the driver's default of decoding an embedded
// document into primitive.D when the target is an empty interface (as
// happens for every value nested inside Exchange/WorkflowConfig's
// map[string]any fields). Without this, a round-tripped
// variables.results.<step> comes back as primitive.D instead of
// map[string]any and every type assertion against it fails silently.
var mapRegistry = func() *bsoncodec.Registry {
	rb := bson.NewRegistryBuilder()
	rb.RegisterTypeMapEntry(bsontype.EmbeddedDocument, reflect.TypeOf(map[string]any{}))
	return rb.Build()
}()

// Service is the exchanger's database service.
type Service struct {
	dbClient *mongo.Client
	cfg      *model.Cfg
	log      *logger.Log
	tracer   *trace.Tracer

	WorkflowConfigColl *WorkflowConfigColl
	ExchangeColl       *ExchangeColl
}

// New connects to MongoDB and initializes the exchanger's collections.
func New(ctx context.Context, cfg *model.Cfg, tracer *trace.Tracer, log *logger.Log) (*Service, error) {
	service := &Service{
		log:    log.New("db"),
		cfg:    cfg,
		tracer: tracer,
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if err := service.connect(ctx); err != nil {
		return nil, err
	}

	var err error

	service.WorkflowConfigColl, err = NewWorkflowConfigColl(ctx, "workflow_configs", service, log.New("WorkflowConfigColl"))
	if err != nil {
		return nil, err
	}

	service.ExchangeColl, err = NewExchangeColl(ctx, "exchanges", service, log.New("ExchangeColl"))
	if err != nil {
		return nil, err
	}

	service.log.Info("Started")

	return service, nil
}

func (s *Service) connect(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "exchanger:db:connect")
	defer span.End()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.cfg.Common.Mongo.URI).SetRegistry(mapRegistry))
	if err != nil {
		return err
	}
	s.dbClient = client

	return nil
}

// Close disconnects the database client.
func (s *Service) Close(ctx context.Context) error {
	return s.dbClient.Disconnect(ctx)
}
