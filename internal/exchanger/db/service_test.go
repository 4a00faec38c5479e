package db

import (
	"context"
	"testing"

	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/model"
	"github.com/sunet/vc-exchanger/pkg/trace"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// setupTestService brings up a MongoDB testcontainer and a fully
// initialized Service against it, the same pattern
// internal/apigw/apiv1/handlers_users_test.go uses for its db-backed
// collaborators.
func setupTestService(ctx context.Context, t *testing.T) (*Service, func()) {
	t.Helper()

	mongoContainer, err := mongodb.Run(ctx, "mongo:6")
	require.NoError(t, err)

	connStr, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &model.Cfg{Common: model.Common{Mongo: model.Mongo{URI: connStr}}}
	log := logger.NewSimple("db_test")

	tracer, err := trace.New(ctx, cfg, log, "db_test", "db_test")
	require.NoError(t, err)

	service, err := New(ctx, cfg, tracer, log)
	require.NoError(t, err)

	cleanup := func() {
		service.Close(ctx)
		tracer.Shutdown(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return service, cleanup
}
