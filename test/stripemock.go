// Package test provides testing utilities for the checkout service, including
// a stripe-mock container to run the Stripe client against.
package test

import (
	"context"
	"fmt"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// StripeMockImage is the docker image of the official Stripe API mock.
	StripeMockImage = "stripe/stripe-mock:latest"
	// StripeMockPort is the HTTP port exposed by stripe-mock.
	StripeMockPort = 12111
	// StripeMockAPIKey is accepted by stripe-mock, any well formed test key is.
	StripeMockAPIKey = "sk_test_123"
)

// StartStripeMockContainer starts a stripe-mock container for testing the
// Stripe gateway. It returns the container and any error encountered during
// startup.
func StartStripeMockContainer(ctx context.Context) (testcontainers.Container, error) {
	exposedPort := fmt.Sprintf("%d/tcp", StripeMockPort)
	return testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        StripeMockImage,
				ExposedPorts: []string{exposedPort},
				WaitingFor:   wait.ForListeningPort(nat.Port(exposedPort)),
			},
			Started: true,
		})
}

// StripeMockURL returns the base URL of the HTTP API of the given stripe-mock
// container.
func StripeMockURL(ctx context.Context, container testcontainers.Container) (string, error) {
	return container.PortEndpoint(ctx, nat.Port(fmt.Sprintf("%d/tcp", StripeMockPort)), "http")
}
