package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_BACKEND", "WARDROBE_OWNER_ID", "PORT", "SSM_API_KEY_PARAM", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "default", cfg.OwnerID)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/styleai/prod/gemini-api-key", cfg.SSMAPIKeyParam)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "dynamo")
	t.Setenv("WARDROBE_TABLE_NAME", "styleai-wardrobe")
	t.Setenv("PHOTO_BUCKET_NAME", "styleai-photos")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "styleai-wardrobe", cfg.WardrobeTable)
	assert.Equal(t, "styleai-photos", cfg.PhotoBucket)
	assert.Equal(t, 9090, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := map[string]Config{
		"unknown backend":        {StoreBackend: "sqlite", Port: 8080},
		"dynamo without table":   {StoreBackend: BackendDynamo, Port: 8080},
		"firestore without proj": {StoreBackend: BackendFirestore, Port: 8080},
		"port out of range":      {StoreBackend: BackendMemory, Port: 70000},
	}
	for name, cfg := range tests {
		assert.Error(t, cfg.Validate(), name)
	}
	assert.NoError(t, Config{StoreBackend: BackendFirestore, FirestoreProjectID: "p", Port: 1}.Validate())
}
