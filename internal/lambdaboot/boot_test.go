package lambdaboot

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fpang/styleai/internal/config"
	"github.com/fpang/styleai/internal/store"
)

type fakeSSM struct {
	value *string
	err   error
	input *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: f.value}}, nil
}

func TestSSMKeySource(t *testing.T) {
	fake := &fakeSSM{value: aws.String(" ssm-key\n")}
	key, err := SSMKeySource(fake, "/styleai/prod/gemini-api-key")(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "ssm-key" {
		t.Errorf("expected trimmed key, got %q", key)
	}
	if aws.ToString(fake.input.Name) != "/styleai/prod/gemini-api-key" || !aws.ToBool(fake.input.WithDecryption) {
		t.Errorf("unexpected request: %+v", fake.input)
	}
}

func TestSSMKeySource_Errors(t *testing.T) {
	denied := errors.New("AccessDeniedException")
	if _, err := SSMKeySource(&fakeSSM{err: denied}, "/p")(context.Background()); !errors.Is(err, denied) {
		t.Errorf("expected wrapped SSM error, got %v", err)
	}
	if _, err := SSMKeySource(&fakeSSM{}, "/p")(context.Background()); err == nil {
		t.Error("expected error for parameter without value")
	}
}

func TestInitStore_Memory(t *testing.T) {
	ws, closeFn, err := InitStore(context.Background(), config.Config{StoreBackend: config.BackendMemory, OwnerID: "u1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := ws.(*store.MemoryStore); !ok {
		t.Errorf("expected *store.MemoryStore, got %T", ws)
	}
}

func TestInitPhotoBucket_Empty(t *testing.T) {
	if b := InitPhotoBucket(aws.Config{}, ""); b != nil {
		t.Errorf("expected nil bucket, got %v", b)
	}
}
