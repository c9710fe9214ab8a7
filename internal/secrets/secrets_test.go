package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeAWSClient struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (c *fakeAWSClient) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.out, nil
}

func TestEnvProvider(t *testing.T) {
	const key = "MERCH_PG_DSN_TEST_ENV"
	t.Setenv(key, "  postgres://merch:pw@localhost/merch  ")
	p := NewEnv()
	got, err := p.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "postgres://merch:pw@localhost/merch" {
		t.Fatalf("value mismatch: got %q", got)
	}

	if _, err := p.Get(context.Background(), "MISSING_ENV_KEY_XYZ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAWSProvider(t *testing.T) {
	t.Parallel()

	p, err := NewAWSWithClient(&fakeAWSClient{
		out: &secretsmanager.GetSecretValueOutput{
			SecretString: strPtr(" secret "),
		},
	})
	if err != nil {
		t.Fatalf("NewAWSWithClient: %v", err)
	}
	got, err := p.Get(context.Background(), "arn:aws:secretsmanager:us-east-1:123:secret:merch-pg-dsn")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "secret" {
		t.Fatalf("secret mismatch: got %q", got)
	}
}

func TestResolve(t *testing.T) {
	const key = "MERCH_RESOLVE_TEST_ENV"
	t.Setenv(key, "from-env")

	aws, err := NewAWSWithClient(&fakeAWSClient{
		out: &secretsmanager.GetSecretValueOutput{SecretString: strPtr("from-aws")},
	})
	if err != nil {
		t.Fatalf("NewAWSWithClient: %v", err)
	}

	cases := []struct {
		name  string
		value string
		aws   Provider
		want  string
	}{
		{name: "literal", value: "postgres://x", want: "postgres://x"},
		{name: "env reference", value: "env:" + key, want: "from-env"},
		{name: "aws reference", value: "aws:merch-pg-dsn", aws: aws, want: "from-aws"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(context.Background(), tc.value, tc.aws)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}

	if _, err := Resolve(context.Background(), "aws:no-provider", nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without aws provider, got %v", err)
	}
}

func strPtr(v string) *string { return &v }
