package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
)

func TestAPIErrorMessage(t *testing.T) {
	withMessage := &apiclient.APIError{Method: "GET", Path: "/visit-reports", StatusCode: 500, Message: "boom"}
	assert.Equal(t, "boom", apiErrorMessage(fmt.Errorf("wrapped: %w", withMessage)))

	bare := &apiclient.APIError{Method: "GET", Path: "/visit-reports", StatusCode: 502}
	assert.Equal(t, "GET /visit-reports returned status 502", apiErrorMessage(bare))

	assert.Equal(t, "dial tcp: refused", apiErrorMessage(errors.New("dial tcp: refused")))
}
