package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown := Setup(context.Background(), "mindconnect-test", "", false, nil)
	assert.NoError(t, shutdown(context.Background()))
}
