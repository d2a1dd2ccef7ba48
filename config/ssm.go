package config

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParametersAPI is the subset of the SSM client used to load secrets.
type ParametersAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// NewSSMClient builds an SSM client from the default AWS credential chain.
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return ssm.NewFromConfig(cfg), nil
}

// LoadSSM reads every parameter below prefix and returns them keyed by the
// upper-cased last path segment, so /portfolio/prod/jwt_secret becomes JWT_SECRET.
func LoadSSM(ctx context.Context, client ParametersAPI, prefix string) (map[string]string, error) {
	values := make(map[string]string)
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	for {
		out, err := client.GetParametersByPath(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, p := range out.Parameters {
			name := strings.ToUpper(path.Base(aws.ToString(p.Name)))
			values[name] = aws.ToString(p.Value)
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}

	log.Info().Int("count", len(values)).Str("prefix", prefix).Msg("Loaded parameters from SSM")
	return values, nil
}
