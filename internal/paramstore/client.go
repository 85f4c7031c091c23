// ABOUTME: AWS SSM Parameter Store client for resolving secrets at startup
// ABOUTME: Wraps the minimal GetParameter API so tests can substitute a fake

package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Errors returned by GetParameter.
var (
	ErrNameRequired = errors.New("paramstore: name is required")
	ErrMissingValue = errors.New("paramstore: parameter missing value")
)

// ssmAPI is the part of *ssm.Client this package calls.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter fetches one parameter value by name.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client reads parameters from SSM.
type Client struct {
	api ssmAPI
}

var _ Getter = (*Client)(nil)

// New creates a Client over an SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// NewFromEnvironment builds a Client from the default AWS credential chain
// (environment, shared config, instance role).
func NewFromEnvironment(ctx context.Context) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg))
}

// GetParameter returns the decrypted value of the named parameter.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingValue, name)
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}

// Resolve returns value when it is set, otherwise the named parameter.
// It is how a secret can live either inline in config or in SSM.
func Resolve(ctx context.Context, getter Getter, value, parameter string) (string, error) {
	if value != "" {
		return value, nil
	}
	if getter == nil {
		return "", errors.New("paramstore: no getter configured")
	}
	return getter.GetParameter(ctx, parameter)
}
