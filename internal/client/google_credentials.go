package client

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GoogleCredentials carries the client options shared by the GCS and
// Pub/Sub clients.
type GoogleCredentials struct {
	ProjectID string
	Options   []option.ClientOption
}

// NewGoogleCredentials decodes a base64 service account JSON. An empty value
// falls back to application default credentials.
func NewGoogleCredentials(ctx context.Context, serviceAccountBase64 string) (*GoogleCredentials, error) {
	if serviceAccountBase64 == "" {
		return &GoogleCredentials{}, nil
	}

	saJSON, err := base64.StdEncoding.DecodeString(serviceAccountBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode service account: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, saJSON, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load service account: %w", err)
	}

	return &GoogleCredentials{
		ProjectID: creds.ProjectID,
		Options: []option.ClientOption{
			option.WithTokenSource(oauth2.ReuseTokenSource(nil, creds.TokenSource)),
		},
	}, nil
}

// Project returns projectID, or the service account's project when empty.
func (g *GoogleCredentials) Project(projectID string) string {
	if projectID != "" {
		return projectID
	}
	return g.ProjectID
}
