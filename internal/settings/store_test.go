package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMemoryStore() (*Store, *Memory, *Memory) {
	secure, plain := NewMemory(), NewMemory()
	return NewStore(secure, plain), secure, plain
}

func TestSetStringRoutesByTier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, secure, plain := newMemoryStore()

	require.NoError(t, store.SetString(ctx, SpeechSubscriptionKey, "key-1"))
	require.NoError(t, store.SetString(ctx, CustomSystemMessage, "be terse"))

	_, ok, _ := plain.Get(ctx, SpeechSubscriptionKey.Key())
	require.False(t, ok)
	v, ok, _ := secure.Get(ctx, SpeechSubscriptionKey.Key())
	require.True(t, ok)
	require.Equal(t, "key-1", v)

	v, ok, err := store.String(ctx, CustomSystemMessage)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "be terse", v)
}

func TestEmptySecureSaveRemovesKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, secure, _ := newMemoryStore()

	require.NoError(t, store.SetString(ctx, OpenAIServiceKey, "sk"))
	require.NoError(t, store.SetString(ctx, OpenAIServiceKey, ""))
	_, ok, _ := secure.Get(ctx, OpenAIServiceKey.Key())
	require.False(t, ok)

	require.NoError(t, store.SetString(ctx, CustomSystemMessage, ""))
	v, ok, err := store.String(ctx, CustomSystemMessage)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, v)
}

func TestIntRoundTripAndMalformed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, secure, _ := newMemoryStore()

	require.NoError(t, store.SetInt(ctx, LLMMaxTokens, 800))
	n, ok, err := store.Int(ctx, LLMMaxTokens)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 800, n)

	require.NoError(t, secure.Set(ctx, EndSilenceTimeoutMS.Key(), "soon"))
	_, _, err = store.Int(ctx, EndSilenceTimeoutMS)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not an integer")
}

func TestSetRawValidatesKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newMemoryStore()

	err := store.SetRaw(ctx, InitialSilenceTimeoutMS, "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expects an integer")

	require.NoError(t, store.SetRaw(ctx, InitialSilenceTimeoutMS, " 5000 "))
	n, ok, err := store.Int(ctx, InitialSilenceTimeoutMS)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5000, n)

	require.NoError(t, store.SetRaw(ctx, InitialSilenceTimeoutMS, ""))
	_, ok, err = store.Int(ctx, InitialSilenceTimeoutMS)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newMemoryStore()
	require.NoError(t, store.SetString(ctx, Mood, "Silly"))
	require.NoError(t, store.Clear(ctx, Mood))
	_, ok, err := store.String(ctx, Mood)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadReportsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, secure, _ := newMemoryStore()
	require.NoError(t, store.SetString(ctx, SpeechSubscriptionKey, "key"))
	require.NoError(t, store.SetString(ctx, SpeechServiceRegion, "westeurope"))
	require.NoError(t, secure.Set(ctx, LLMMaxTokens.Key(), "lots"))

	values, err := store.Load(ctx, ServiceFields())
	require.NoError(t, err)
	require.False(t, values.Complete())
	require.Equal(t, "westeurope", values.String(SpeechServiceRegion))
	require.Contains(t, values.Missing, LLMMaxTokens.Key())
	require.Contains(t, values.Missing, OpenAIServiceKey.Key())
	require.NotContains(t, values.Missing, SpeechSubscriptionKey.Key())
}

func TestLoadCompleteWhenEverythingSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := fullyConfiguredStore(t)

	values, err := store.Load(ctx, ServiceFields())
	require.NoError(t, err)
	require.True(t, values.Complete())
	require.Equal(t, 3000, values.Int(EndSilenceTimeoutMS))
	require.Equal(t, "gpt-4o", values.String(LLMDeploymentName))
}

type failingBackend struct{ *Memory }

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("keyring locked")
}

func TestLoadPropagatesBackendErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(failingBackend{NewMemory()}, NewMemory())
	_, err := store.Load(context.Background(), ServiceFields())
	require.Error(t, err)
	require.Contains(t, err.Error(), "keyring locked")
}

func TestLookup(t *testing.T) {
	t.Parallel()

	f, err := Lookup("llm_max_tokens")
	require.NoError(t, err)
	require.Equal(t, KindInt, f.Kind())
	require.True(t, f.Secure())

	f, err = Lookup("assist_voice_name")
	require.NoError(t, err)
	require.False(t, f.Secure())

	_, err = Lookup("speech_key")
	require.ErrorIs(t, err, ErrUnknownField)

	require.Len(t, ServiceFields(), 8)
	require.Len(t, Keys(), 12)
}

func fullyConfiguredStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, _, _ := newMemoryStore()
	require.NoError(t, store.SetString(ctx, SpeechSubscriptionKey, "key"))
	require.NoError(t, store.SetString(ctx, SpeechServiceRegion, "westeurope"))
	require.NoError(t, store.SetInt(ctx, InitialSilenceTimeoutMS, 5000))
	require.NoError(t, store.SetInt(ctx, EndSilenceTimeoutMS, 3000))
	require.NoError(t, store.SetString(ctx, OpenAIServiceKey, "sk"))
	require.NoError(t, store.SetString(ctx, OpenAIServiceEndpoint, "https://example.openai.azure.com"))
	require.NoError(t, store.SetString(ctx, LLMDeploymentName, "gpt-4o"))
	require.NoError(t, store.SetInt(ctx, LLMMaxTokens, 800))
	return store
}
