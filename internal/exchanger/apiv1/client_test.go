package apiv1

import (
	"context"
	"testing"
	"time"

	"github.com/sunet/vc-exchanger/internal/exchanger/db"
	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/model"
	"github.com/sunet/vc-exchanger/pkg/trace"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// setupTestClient brings up a MongoDB testcontainer and a fully wired
// Client against it, the way internal/apigw/apiv1's handler tests wire
// their own db-backed collaborators.
func setupTestClient(ctx context.Context, t *testing.T) (*Client, func()) {
	t.Helper()

	mongoContainer, err := mongodb.Run(ctx, "mongo:6")
	require.NoError(t, err)

	connStr, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &model.Cfg{
		Common: model.Common{Mongo: model.Mongo{URI: connStr}},
		Exchanger: model.Exchanger{
			DefaultExchangeTTL: 15 * time.Minute,
			MaxExchangeTTL:     24 * time.Hour,
		},
	}

	log := logger.NewSimple("apiv1_test")
	tracer, err := trace.New(ctx, cfg, log, "apiv1_test", "apiv1_test")
	require.NoError(t, err)

	dbService, err := db.New(ctx, cfg, tracer, log)
	require.NoError(t, err)

	client, err := New(ctx, dbService, tracer, cfg, log)
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		dbService.Close(ctx)
		tracer.Shutdown(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return client, cleanup
}
