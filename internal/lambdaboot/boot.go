// Package lambdaboot provides the shared cold-start bootstrap for the Lambda
// entry point and the local server: AWS config, the wardrobe store selected
// by configuration, the SSM-backed API key source, and startup logging.
package lambdaboot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/config"
	"github.com/fpang/styleai/internal/logging"
	"github.com/fpang/styleai/internal/s3util"
	"github.com/fpang/styleai/internal/store"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitPhotoBucket returns the photo bucket, or nil when bucket is empty and
// photos stay inline in the table.
func InitPhotoBucket(cfg aws.Config, bucket string) *s3util.PhotoBucket {
	if bucket == "" {
		log.Warn().Msg("PHOTO_BUCKET_NAME not set, photos are stored inline")
		return nil
	}
	return s3util.NewPhotoBucket(s3.NewFromConfig(cfg), bucket)
}

// InitDynamo creates the DynamoDB wardrobe store.
func InitDynamo(cfg aws.Config, table, ownerID string, photos *s3util.PhotoBucket) *store.DynamoStore {
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), table, ownerID, photos)
}

// InitStore opens the backend named by cfg.StoreBackend. clients is only
// used by the dynamo backend and is loaded on demand when nil. The returned
// func releases the backend's resources.
func InitStore(ctx context.Context, cfg config.Config, clients *AWSClients) (store.WardrobeStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		if clients == nil {
			loaded := InitAWS(ctx)
			clients = &loaded
		}
		photos := InitPhotoBucket(clients.Config, cfg.PhotoBucket)
		return InitDynamo(clients.Config, cfg.WardrobeTable, cfg.OwnerID, photos), func() {}, nil
	case config.BackendFirestore:
		fs, err := store.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.OwnerID)
		if err != nil {
			return nil, nil, fmt.Errorf("open firestore: %w", err)
		}
		return fs, func() {
			if err := fs.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Firestore client")
			}
		}, nil
	default:
		return store.NewMemoryStore(cfg.OwnerID), func() {}, nil
	}
}

// ParameterGetter is the SSM call used to read the API key. *ssm.Client
// satisfies it.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMKeySource returns an auth.KeySource that reads the Gemini API key from
// the SecureString parameter paramName.
func SSMKeySource(client ParameterGetter, paramName string) auth.KeySource {
	return func(ctx context.Context) (string, error) {
		ssmStart := time.Now()
		result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", fmt.Errorf("read SSM parameter %s: %w", paramName, err)
		}
		if result.Parameter == nil || result.Parameter.Value == nil {
			return "", fmt.Errorf("SSM parameter %s has no value", paramName)
		}
		log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
		return strings.TrimSpace(*result.Parameter.Value), nil
	}
}

// InitSentry enables error reporting when cfg carries a DSN. The returned
// func flushes buffered events and must run before exit.
func InitSentry(cfg config.Config, release string) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     release,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Sentry init failed, error reporting disabled")
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
