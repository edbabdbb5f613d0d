package secretref_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-jelly/jellos-sub002/internal/secretref"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    secretref.Reference
		wantErr bool
	}{
		{
			name: "bare key",
			body: "MY_KEY",
			want: secretref.Reference{Key: "MY_KEY"},
		},
		{
			name: "namespaced key",
			body: "production/DB_PASSWORD",
			want: secretref.Reference{Namespace: "production", Key: "DB_PASSWORD"},
		},
		{
			name: "whitespace stays part of the key",
			body: " MY_KEY ",
			want: secretref.Reference{Key: " MY_KEY "},
		},
		{
			name:    "two separators rejected",
			body:    "a/b/c",
			wantErr: true,
		},
		{
			name:    "empty body rejected",
			body:    "",
			wantErr: true,
		},
		{
			name:    "empty namespace rejected",
			body:    "/KEY",
			wantErr: true,
		},
		{
			name:    "empty key rejected",
			body:    "ns/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := secretref.ParseBody(tt.body)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan(t *testing.T) {
	t.Run("finds references in order", func(t *testing.T) {
		text := "a=${secret:ONE} b=${secret:prod/TWO} c=${secret:ONE}"
		refs, malformed := secretref.Scan(text)

		require.Empty(t, malformed)
		require.Len(t, refs, 3)
		assert.Equal(t, "ONE", refs[0].Key)
		assert.Equal(t, "${secret:ONE}", refs[0].Raw)
		assert.Equal(t, "prod", refs[1].Namespace)
		assert.Equal(t, "TWO", refs[1].Key)
		assert.Equal(t, "ONE", refs[2].Key)
	})

	t.Run("malformed tokens skipped and reported", func(t *testing.T) {
		text := "ok=${secret:GOOD} bad=${secret:a/b/c} empty=${secret:}"
		refs, malformed := secretref.Scan(text)

		require.Len(t, refs, 1)
		assert.Equal(t, "GOOD", refs[0].Key)
		assert.Len(t, malformed, 2)
	})

	t.Run("no references", func(t *testing.T) {
		refs, malformed := secretref.Scan("plain text without tokens")
		assert.Nil(t, refs)
		assert.Nil(t, malformed)
	})
}

func TestFind(t *testing.T) {
	refs := secretref.Find("${secret:GOOD} ${secret:a/b/c} ${secret:ns/KEY}")
	require.Len(t, refs, 2)
	assert.Equal(t, "GOOD", refs[0].Key)
	assert.Equal(t, "ns/KEY", refs[1].Identity())

	assert.Empty(t, secretref.Find("nothing here"))
}

func TestHas(t *testing.T) {
	assert.True(t, secretref.Has("x ${secret:KEY} y"))
	assert.True(t, secretref.Has("${secret:a/b/c}"), "malformed still counts as reference-shaped")
	assert.False(t, secretref.Has("no tokens here"))
	assert.False(t, secretref.Has("${other:KEY}"))

	// Probing twice must not skip matches on the second pass.
	text := "${secret:A} ${secret:B}"
	assert.True(t, secretref.Has(text))
	assert.True(t, secretref.Has(text))
}

func TestUnique(t *testing.T) {
	refs, _ := secretref.Scan("${secret:A} ${secret:prod/A} ${secret:A} ${secret:B}")
	unique := secretref.Unique(refs)

	require.Len(t, unique, 3)
	assert.Equal(t, "A", unique[0].Identity())
	assert.Equal(t, "prod/A", unique[1].Identity())
	assert.Equal(t, "B", unique[2].Identity())
}

func TestReferenceIdentity(t *testing.T) {
	assert.Equal(t, "KEY", secretref.Reference{Key: "KEY"}.Identity())
	assert.Equal(t, "ns/KEY", secretref.Reference{Namespace: "ns", Key: "KEY"}.Identity())
}

func TestReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("substitutes a single reference", func(t *testing.T) {
		out, err := secretref.Replace(ctx, "API_KEY=${secret:MY_KEY}", fixed("secret-value"))
		require.NoError(t, err)
		assert.Equal(t, "API_KEY=secret-value", out)
	})

	t.Run("repeated token resolves once and replaces everywhere", func(t *testing.T) {
		var calls atomic.Int32
		resolve := func(ctx context.Context, ref secretref.Reference) (string, error) {
			calls.Add(1)
			return "v-" + ref.Key, nil
		}

		out, err := secretref.Replace(ctx, "${secret:A} mid ${secret:A}", resolve)
		require.NoError(t, err)
		assert.Equal(t, "v-A mid v-A", out)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("distinct tokens resolve independently", func(t *testing.T) {
		var calls atomic.Int32
		resolve := func(ctx context.Context, ref secretref.Reference) (string, error) {
			calls.Add(1)
			return ref.Identity(), nil
		}

		out, err := secretref.Replace(ctx, "${secret:A}|${secret:ns/A}|${secret:B}", resolve)
		require.NoError(t, err)
		assert.Equal(t, "A|ns/A|B", out)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("malformed token left untouched", func(t *testing.T) {
		out, err := secretref.Replace(ctx, "x ${secret:a/b/c} ${secret:OK}", fixed("V"))
		require.NoError(t, err)
		assert.Equal(t, "x ${secret:a/b/c} V", out)
	})

	t.Run("resolver error aborts with original text", func(t *testing.T) {
		boom := errors.New("store unreachable")
		resolve := func(ctx context.Context, ref secretref.Reference) (string, error) {
			return "", boom
		}

		out, err := secretref.Replace(ctx, "a=${secret:A}", resolve)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, "a=${secret:A}", out)
	})

	t.Run("no references is a fast no-op", func(t *testing.T) {
		out, err := secretref.Replace(ctx, "plain", func(ctx context.Context, ref secretref.Reference) (string, error) {
			t.Fatal("resolver must not run")
			return "", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "plain", out)
	})

	t.Run("substituted output carries no further references", func(t *testing.T) {
		out, err := secretref.Replace(ctx, "k=${secret:A} j=${secret:B}", fixed("resolved-plain"))
		require.NoError(t, err)
		assert.False(t, secretref.Has(out))
	})

	t.Run("resolved value containing token syntax is not re-substituted", func(t *testing.T) {
		resolve := func(ctx context.Context, ref secretref.Reference) (string, error) {
			if ref.Key == "A" {
				return "${secret:B}", nil
			}
			return "b-value", nil
		}

		out, err := secretref.Replace(ctx, "${secret:A} ${secret:B}", resolve)
		require.NoError(t, err)
		assert.Equal(t, "${secret:B} b-value", out)
	})
}

func TestReplaceInObject(t *testing.T) {
	ctx := context.Background()

	in := map[string]any{
		"db": map[string]any{
			"url":  "postgres://app:${secret:prod/DB_PASSWORD}@host/db",
			"pool": 5,
		},
		"tokens": []any{"${secret:API_TOKEN}", true, nil},
		"plain":  "untouched",
	}

	resolve := func(ctx context.Context, ref secretref.Reference) (string, error) {
		return "R(" + ref.Identity() + ")", nil
	}

	got, err := secretref.ReplaceInObject(ctx, in, resolve)
	require.NoError(t, err)

	out, ok := got.(map[string]any)
	require.True(t, ok)

	db := out["db"].(map[string]any)
	assert.Equal(t, "postgres://app:R(prod/DB_PASSWORD)@host/db", db["url"])
	assert.Equal(t, 5, db["pool"])

	tokens := out["tokens"].([]any)
	assert.Equal(t, "R(API_TOKEN)", tokens[0])
	assert.Equal(t, true, tokens[1])
	assert.Nil(t, tokens[2])

	assert.Equal(t, "untouched", out["plain"])

	t.Run("input not mutated", func(t *testing.T) {
		orig := in["db"].(map[string]any)
		assert.Equal(t, "postgres://app:${secret:prod/DB_PASSWORD}@host/db", orig["url"])
	})

	t.Run("error propagates from nested leaf", func(t *testing.T) {
		boom := errors.New("nope")
		_, err := secretref.ReplaceInObject(ctx, in, func(ctx context.Context, ref secretref.Reference) (string, error) {
			return "", boom
		})
		require.ErrorIs(t, err, boom)
	})
}

func TestScanObject(t *testing.T) {
	obj := map[string]any{
		"b": "${secret:SECOND}",
		"a": map[string]any{
			"x": "${secret:FIRST} and ${secret:FIRST}",
		},
		"c": []any{"${secret:ns/THIRD}", 42},
	}

	refs, malformed := secretref.ScanObject(obj)
	require.Len(t, refs, 4)
	assert.Empty(t, malformed)

	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.Identity()
	}
	assert.Equal(t, []string{"FIRST", "FIRST", "SECOND", "ns/THIRD"}, ids)
}

func TestScanObjectReportsMalformed(t *testing.T) {
	obj := map[string]any{
		"good": "${secret:KEY}",
		"bad":  "${secret:a/b/c}",
	}

	refs, malformed := secretref.ScanObject(obj)
	require.Len(t, refs, 1)
	require.Len(t, malformed, 1)
	assert.Contains(t, malformed[0].Error(), "at most one / separator")
}

func fixed(v string) secretref.Resolver {
	return func(ctx context.Context, ref secretref.Reference) (string, error) {
		return v, nil
	}
}
